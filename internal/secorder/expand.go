// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

// Package secorder computes second-order structure: every 2-hop path
// (head, mid, tail) of a symmetric first-order graph.
//
// The adjacency matrix A is squared with a sparse product. A² only counts
// the walks between head and tail, so the intermediate nodes of each
// nonzero entry are recovered by intersecting the neighbor lists of head
// and tail; the intersection size must equal the count.
package secorder

import (
	"errors"
	"fmt"
)

// ErrAsymmetric is returned when the first-order adjacency is not symmetric.
var ErrAsymmetric = errors.New("adjacency is not symmetric")

// Options tunes the diagonal of the expansion.
type Options struct {
	// ExpandDiagonal emits one (h, m, h) triple per neighbor m of h instead
	// of the single collapsed (h, h, h) triple.
	ExpandDiagonal bool
}

// Triples holds second-order paths as parallel arrays, ordered by head,
// then tail, then mid.
type Triples struct {
	Head []int
	Mid  []int
	Tail []int
}

// Len returns the number of triples.
func (t *Triples) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Head)
}

// Expand returns every 2-hop path of the graph given by src[i]->dst[i] over
// n nodes. The adjacency must already be symmetric; see Symmetrize.
//
// Off-diagonal entries (h, t) of A² yield one triple per shared neighbor.
// Each node with at least one neighbor yields the diagonal triple (h, h, h),
// or (h, m, h) for every neighbor m with Options.ExpandDiagonal.
func Expand(n int, src, dst []int, opts Options) (*Triples, error) {
	a, err := NewAdjacency(n, src, dst)
	if err != nil {
		return nil, err
	}
	if err := a.CheckSymmetric(); err != nil {
		return nil, err
	}

	sq := a.Square()

	total := 0
	for h := 0; h < n; h++ {
		cols, counts := sq.Row(h)
		for i, t := range cols {
			if t == h && !opts.ExpandDiagonal {
				total++
				continue
			}
			total += counts[i]
		}
	}

	out := &Triples{
		Head: make([]int, total),
		Mid:  make([]int, total),
		Tail: make([]int, total),
	}

	pos := 0
	for h := 0; h < n; h++ {
		cols, counts := sq.Row(h)
		for i, t := range cols {
			if t == h && !opts.ExpandDiagonal {
				out.Head[pos], out.Mid[pos], out.Tail[pos] = h, h, h
				pos++
				continue
			}
			// A is symmetric, so the column-neighbors of h are its row and
			// the row-neighbors of t are row t.
			k := intersectInto(a.Row(h), a.Row(t), out.Mid[pos:pos+counts[i]])
			if k != counts[i] {
				return nil, fmt.Errorf("entry (%d,%d): %d intermediates recovered, A² counts %d", h, t, k, counts[i])
			}
			for j := pos; j < pos+k; j++ {
				out.Head[j], out.Tail[j] = h, t
			}
			pos += k
		}
	}

	return out, nil
}

// intersectInto writes the common elements of the sorted slices a and b to
// dst and returns how many there are. It stops counting past len(dst)
// without writing.
func intersectInto(a, b, dst []int) int {
	n := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			if n < len(dst) {
				dst[n] = a[i]
			}
			n++
			i++
			j++
		}
	}
	return n
}

// Symmetrize returns src/dst extended with the reverse of every edge. It is
// the opt-in step for directed graphs before Expand.
func Symmetrize(src, dst []int) (symSrc, symDst []int) {
	symSrc = make([]int, 0, 2*len(src))
	symDst = make([]int, 0, 2*len(dst))
	symSrc = append(append(symSrc, src...), dst...)
	symDst = append(append(symDst, dst...), src...)
	return symSrc, symDst
}
