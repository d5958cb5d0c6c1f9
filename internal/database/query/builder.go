// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package query builds the DuckDB SQL fragments used by the loader.
//
// DuckDB table functions such as read_csv take their file path and options
// as constants, so values are embedded as escaped string literals instead of
// bind parameters.
package query

import (
	"fmt"
	"strings"
)

// Column is one named, typed column of a delimited file.
type Column struct {
	Name string
	Type string
}

// CSVBuilder constructs a read_csv table expression.
//
// Example usage:
//
//	src := query.NewCSVBuilder("/data/ratings.dat").
//		Delimiter("::").
//		Encoding("latin-1").
//		Column("user_id", "BIGINT").
//		Column("item_id", "BIGINT").
//		Build()
//	// read_csv('/data/ratings.dat', delim='::', header=false, encoding='latin-1', columns={'user_id': 'BIGINT', 'item_id': 'BIGINT'})
type CSVBuilder struct {
	path      string
	delimiter string
	encoding  string
	columns   []Column
}

// NewCSVBuilder starts a read_csv expression over path.
func NewCSVBuilder(path string) *CSVBuilder {
	return &CSVBuilder{path: path}
}

// Delimiter sets the column separator (up to 4 bytes).
func (b *CSVBuilder) Delimiter(delim string) *CSVBuilder {
	b.delimiter = delim
	return b
}

// Encoding sets the file encoding (utf-8, utf-16, latin-1).
func (b *CSVBuilder) Encoding(enc string) *CSVBuilder {
	b.encoding = enc
	return b
}

// Column appends a column in file order.
func (b *CSVBuilder) Column(name, typ string) *CSVBuilder {
	b.columns = append(b.columns, Column{Name: name, Type: typ})
	return b
}

// Build returns the table expression. Files are read without a header row.
func (b *CSVBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString("read_csv(")
	sb.WriteString(Literal(b.path))
	if b.delimiter != "" {
		sb.WriteString(", delim=")
		sb.WriteString(Literal(b.delimiter))
	}
	sb.WriteString(", header=false")
	if b.encoding != "" {
		sb.WriteString(", encoding=")
		sb.WriteString(Literal(b.encoding))
	}
	if len(b.columns) > 0 {
		cols := make([]string, len(b.columns))
		for i, c := range b.columns {
			cols[i] = fmt.Sprintf("%s: %s", Literal(c.Name), Literal(c.Type))
		}
		sb.WriteString(", columns={")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString("}")
	}
	sb.WriteString(")")
	return sb.String()
}

// Literal quotes s as a SQL string literal, doubling embedded quotes.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
