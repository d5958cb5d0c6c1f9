// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package sampling

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/tomtom215/hetgraph/internal/graph"
)

// NegativePool selects the items negatives are drawn from.
type NegativePool string

const (
	// PoolUnrated draws from items the user never rated.
	PoolUnrated NegativePool = "unrated"

	// PoolUnratedAndTest also draws from the user's test positives, so that
	// held-out items are treated as unobserved during training.
	PoolUnratedAndTest NegativePool = "unrated_and_test"
)

// ParsePool validates a pool name.
func ParsePool(s string) (NegativePool, error) {
	switch p := NegativePool(s); p {
	case PoolUnrated, PoolUnratedAndTest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown negative pool %q", s)
	}
}

// Triple is one ranking sample.
type Triple struct {
	User int
	Pos  int
	Neg  int
}

// RankingSampler draws (user, positive, negative) triples. Users without a
// train positive or with an empty pool are skipped.
type RankingSampler struct {
	users []int
	pos   map[int][]int
	pools map[int][]int
	rng   *rand.Rand

	skipped int
}

// NewRankingSampler prepares the per-user pools of g.
func NewRankingSampler(g *graph.Graph, pool NegativePool, rng *rand.Rand) (*RankingSampler, error) {
	if _, err := ParsePool(string(pool)); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("a random source is required")
	}

	s := &RankingSampler{
		pos:   make(map[int][]int),
		pools: make(map[int][]int),
		rng:   rng,
	}

	users := make([]int, 0, len(g.TrainPos))
	for u := range g.TrainPos {
		users = append(users, u)
	}
	slices.Sort(users)

	for _, u := range users {
		negs := g.Neg[u]
		if pool == PoolUnratedAndTest {
			negs = mergeSorted(negs, g.TestPos[u])
		}
		if len(g.TrainPos[u]) == 0 || len(negs) == 0 {
			s.skipped++
			continue
		}
		s.users = append(s.users, u)
		s.pos[u] = g.TrainPos[u]
		s.pools[u] = negs
	}
	return s, nil
}

// Users returns the eligible users in ascending order.
func (s *RankingSampler) Users() []int {
	return s.users
}

// Skipped returns the number of users left out.
func (s *RankingSampler) Skipped() int {
	return s.skipped
}

// Pool returns the negative pool of user u.
func (s *RankingSampler) Pool(u int) []int {
	return s.pools[u]
}

// Epoch returns one triple per train positive of every eligible user, each
// with a uniformly drawn negative, in shuffled order.
func (s *RankingSampler) Epoch() []Triple {
	n := 0
	for _, u := range s.users {
		n += len(s.pos[u])
	}

	out := make([]Triple, 0, n)
	for _, u := range s.users {
		pool := s.pools[u]
		for _, p := range s.pos[u] {
			out = append(out, Triple{User: u, Pos: p, Neg: pool[s.rng.Intn(len(pool))]})
		}
	}
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Sample draws n triples: a uniform eligible user, one of its positives and
// one negative from its pool.
func (s *RankingSampler) Sample(n int) []Triple {
	if len(s.users) == 0 || n <= 0 {
		return nil
	}
	out := make([]Triple, n)
	for i := range out {
		u := s.users[s.rng.Intn(len(s.users))]
		pos, pool := s.pos[u], s.pools[u]
		out[i] = Triple{User: u, Pos: pos[s.rng.Intn(len(pos))], Neg: pool[s.rng.Intn(len(pool))]}
	}
	return out
}

// mergeSorted returns the sorted union of two disjoint ascending slices.
func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
