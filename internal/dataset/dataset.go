// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package dataset holds the raw relational tables (users, items, ratings)
// and the pure preparation steps applied before graph compilation:
// deduplication, debug subsampling, core filtering, attribute filtering and
// dense reindexing.
//
// Every function returns a new Dataset and leaves its input untouched.
// Attribute maps are shared between the input and the result when a step
// does not change them, so callers must treat them as read-only.
package dataset

import "errors"

// ErrUnknownEntity is returned when a rating references a user or item that
// is not in the corresponding entity table.
var ErrUnknownEntity = errors.New("unknown entity")

// User is one row of the user table.
type User struct {
	ID int64

	// Attrs maps an attribute name (gender, occupation, age, ...) to the
	// categorical values this user carries.
	Attrs map[string][]string
}

// Item is one row of the item table.
type Item struct {
	ID    int64
	Title string

	// Attrs maps an attribute name (genre, year, director, ...) to values.
	Attrs map[string][]string
}

// Rating is one user-item interaction.
type Rating struct {
	UserID    int64
	ItemID    int64
	Value     float64
	Timestamp int64
}

// Dataset bundles the three tables of one source.
type Dataset struct {
	Name    string
	Users   []User
	Items   []Item
	Ratings []Rating
}

// Clone returns a shallow copy with fresh row slices.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		Name:    d.Name,
		Users:   append([]User(nil), d.Users...),
		Items:   append([]Item(nil), d.Items...),
		Ratings: append([]Rating(nil), d.Ratings...),
	}
}

// Stats is a row count summary used in logs.
type Stats struct {
	Users   int `json:"users"`
	Items   int `json:"items"`
	Ratings int `json:"ratings"`
}

// Stats returns the row counts of d.
func (d *Dataset) Stats() Stats {
	return Stats{Users: len(d.Users), Items: len(d.Items), Ratings: len(d.Ratings)}
}
