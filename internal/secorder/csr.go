// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package secorder

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/james-bowman/sparse"
)

// CSR is a binary adjacency matrix in compressed sparse row form. Row i holds
// the sorted, distinct column indices Indices[Indptr[i]:Indptr[i+1]].
// Indptr and Indices alias the raw arrays of the underlying sparse.CSR.
type CSR struct {
	N       int
	Indptr  []int
	Indices []int

	m *sparse.CSR
}

type entry struct{ row, col int }

type cell struct{ col, count int }

// NewAdjacency builds the binary adjacency matrix of the edges src[i]->dst[i]
// over n nodes. Self-loops are dropped and parallel edges collapse to one
// entry.
func NewAdjacency(n int, src, dst []int) (*CSR, error) {
	if len(src) != len(dst) {
		return nil, fmt.Errorf("edge arrays differ in length: %d src, %d dst", len(src), len(dst))
	}

	entries := make([]entry, 0, len(src))
	for i := range src {
		s, d := src[i], dst[i]
		if s < 0 || s >= n || d < 0 || d >= n {
			return nil, fmt.Errorf("edge %d (%d,%d) outside [0,%d)", i, s, d, n)
		}
		if s != d {
			entries = append(entries, entry{s, d})
		}
	}
	if len(entries) == 0 {
		return &CSR{N: n, Indptr: make([]int, n+1)}, nil
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.row, b.row); c != 0 {
			return c
		}
		return cmp.Compare(a.col, b.col)
	})
	entries = slices.Compact(entries)

	rows := make([]int, len(entries))
	cols := make([]int, len(entries))
	ones := make([]float64, len(entries))
	for i, e := range entries {
		rows[i], cols[i], ones[i] = e.row, e.col, 1
	}

	m := sparse.NewCOO(n, n, rows, cols, ones).ToCSR()
	raw := m.RawMatrix()
	a := &CSR{N: n, Indptr: raw.Indptr, Indices: raw.Ind, m: m}
	for i := 0; i < n; i++ {
		slices.Sort(a.Row(i))
	}
	return a, nil
}

// Row returns the sorted neighbors of node i.
func (a *CSR) Row(i int) []int {
	return a.Indices[a.Indptr[i]:a.Indptr[i+1]]
}

// Degree returns the number of distinct neighbors of node i.
func (a *CSR) Degree(i int) int {
	return a.Indptr[i+1] - a.Indptr[i]
}

// NNZ returns the number of stored entries.
func (a *CSR) NNZ() int {
	return len(a.Indices)
}

// Has reports whether entry (i, j) is set.
func (a *CSR) Has(i, j int) bool {
	_, ok := slices.BinarySearch(a.Row(i), j)
	return ok
}

// CheckSymmetric returns ErrAsymmetric naming the first entry (i, j) whose
// transpose (j, i) is missing.
func (a *CSR) CheckSymmetric() error {
	for i := 0; i < a.N; i++ {
		for _, j := range a.Row(i) {
			if !a.Has(j, i) {
				return fmt.Errorf("%w: edge (%d,%d) has no reverse", ErrAsymmetric, i, j)
			}
		}
	}
	return nil
}

// CountCSR is a sparse matrix with integer values, the result of Square.
type CountCSR struct {
	N       int
	Indptr  []int
	Indices []int
	Counts  []int
}

// Row returns the column indices and values of row i.
func (c *CountCSR) Row(i int) (cols, counts []int) {
	lo, hi := c.Indptr[i], c.Indptr[i+1]
	return c.Indices[lo:hi], c.Counts[lo:hi]
}

// NNZ returns the number of stored entries.
func (c *CountCSR) NNZ() int {
	return len(c.Indices)
}

// Square computes A·A with a sparse product. Entry (h, t) counts the walks
// h->m->t. Rows of the result are sorted by column; the product matrix is
// dropped once its entries are copied out.
func (a *CSR) Square() *CountCSR {
	out := &CountCSR{N: a.N, Indptr: make([]int, a.N+1)}
	if a.m == nil || a.NNZ() == 0 {
		return out
	}

	var p sparse.CSR
	p.Mul(a.m, a.m)
	raw := p.RawMatrix()

	out.Indices = make([]int, 0, len(raw.Ind))
	out.Counts = make([]int, 0, len(raw.Ind))
	var row []cell
	for h := 0; h < a.N; h++ {
		row = row[:0]
		for k := raw.Indptr[h]; k < raw.Indptr[h+1]; k++ {
			if c := int(math.Round(raw.Data[k])); c > 0 {
				row = append(row, cell{col: raw.Ind[k], count: c})
			}
		}
		slices.SortFunc(row, func(x, y cell) int { return cmp.Compare(x.col, y.col) })
		for _, e := range row {
			out.Indices = append(out.Indices, e.col)
			out.Counts = append(out.Counts, e.count)
		}
		out.Indptr[h+1] = len(out.Indices)
	}
	return out
}
