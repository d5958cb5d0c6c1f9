// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	// buildIDKey carries the id of one compile run across loader, compiler and store.
	buildIDKey contextKey = "build_id"

	// loggerKey is the context key for storing a logger instance.
	loggerKey contextKey = "logger"
)

// GenerateBuildID returns a short build id (first 8 characters of a UUID).
func GenerateBuildID() string {
	return uuid.New().String()[:8]
}

// ContextWithBuildID returns a new context carrying id.
func ContextWithBuildID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, buildIDKey, id)
}

// ContextWithNewBuildID returns a context with a freshly generated build id.
func ContextWithNewBuildID(ctx context.Context) context.Context {
	return ContextWithBuildID(ctx, GenerateBuildID())
}

// BuildIDFromContext returns the build id, or "" if none is set.
func BuildIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(buildIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithLogger stores a logger in the context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the stored logger or the global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger with the build id from ctx attached.
//
//	logging.Ctx(ctx).Info().Msg("loading ratings")
//	// {"level":"info","build_id":"abc12345","message":"loading ratings"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := LoggerFromContext(ctx)
	if id := BuildIDFromContext(ctx); id != "" {
		logger = logger.With().Str("build_id", id).Logger()
	}
	return &logger
}
