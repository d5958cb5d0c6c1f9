// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/hetgraph/internal/secorder"
)

// Graph is a compiled heterogeneous graph. All tables are owned by the
// graph; callers must treat them as read-only.
type Graph struct {
	// Suffix is the cache key of the parameters that produced the graph.
	Suffix  string
	Dataset string
	Schema  Schema

	Nodes     *NodeIndex
	Relations []Relation
	Edges     *EdgeList
	Layout    Layout

	// Masks are aligned with Edges.
	RatingMask *bitset.BitSet
	TrainMask  *bitset.BitSet
	TestMask   *bitset.BitSet

	// SplitEnabled is false when the graph was compiled without a split.
	SplitEnabled bool
	TrainRows    []int

	TrainPos ItemSets
	TestPos  ItemSets
	Neg      ItemSets

	// SecondOrder is nil unless second-order expansion was requested.
	SecondOrder *secorder.Triples

	// SecondOrderVariant names the edge set the triples were computed on:
	// "train" or "full".
	SecondOrderVariant string
}

// NumNodes returns the size of the global node id space.
func (g *Graph) NumNodes() int {
	return g.Nodes.NumNodes
}

// NumEdges returns the edge count, both directions included.
func (g *Graph) NumEdges() int {
	return g.Edges.Len()
}

// EdgeIndex returns the [src, dst] arrays.
func (g *Graph) EdgeIndex() [2][]int {
	return [2][]int{g.Edges.Src, g.Edges.Dst}
}

// EdgeAttr returns one (relation id, weight) pair per edge.
func (g *Graph) EdgeAttr() [][2]float64 {
	out := make([][2]float64, g.Edges.Len())
	for i := range out {
		out[i] = [2]float64{float64(g.Edges.Relation[i]), g.Edges.Weight[i]}
	}
	return out
}

// TrainRatingMask marks interaction edges in the train split.
func (g *Graph) TrainRatingMask() *bitset.BitSet {
	return g.TrainMask.Intersection(g.RatingMask)
}

// TestRatingMask marks interaction edges in the test split.
func (g *Graph) TestRatingMask() *bitset.BitSet {
	return g.TestMask.Intersection(g.RatingMask)
}

// MaskedEdges returns the endpoints of the edges set in mask, in edge order.
func (g *Graph) MaskedEdges(mask *bitset.BitSet) (src, dst []int) {
	n := int(mask.Count())
	src, dst = make([]int, 0, n), make([]int, 0, n)
	for i, ok := mask.NextSet(0); ok && int(i) < g.Edges.Len(); i, ok = mask.NextSet(i + 1) {
		src = append(src, g.Edges.Src[i])
		dst = append(dst, g.Edges.Dst[i])
	}
	return src, dst
}

// Summary is a printable digest of a graph.
type Summary struct {
	Suffix             string         `json:"suffix"`
	Nodes              int            `json:"nodes"`
	Edges              int            `json:"edges"`
	NodesByType        map[string]int `json:"nodes_by_type"`
	EdgesByRelation    map[string]int `json:"edges_by_relation"`
	TrainInteractions  int            `json:"train_interactions"`
	TestInteractions   int            `json:"test_interactions"`
	SecondOrderTriples int            `json:"second_order_triples"`
	SecondOrderVariant string         `json:"second_order_variant,omitempty"`
	DegreeMean         float64        `json:"degree_mean"`
	DegreeStdDev       float64        `json:"degree_stddev"`
	RatingMean         float64        `json:"rating_mean"`
	RatingStdDev       float64        `json:"rating_stddev"`
}

// Summarize computes the digest of g. Interaction counts are per rating row,
// not per directed edge.
func (g *Graph) Summarize() Summary {
	s := Summary{
		Suffix:             g.Suffix,
		Nodes:              g.NumNodes(),
		Edges:              g.NumEdges(),
		NodesByType:        g.Nodes.Counts(),
		EdgesByRelation:    make(map[string]int, len(g.Relations)),
		SecondOrderTriples: g.SecondOrder.Len(),
		SecondOrderVariant: g.SecondOrderVariant,
	}

	for _, r := range g.Relations {
		s.EdgesByRelation[r.Name] = 0
	}
	for _, rel := range g.Edges.Relation {
		s.EdgesByRelation[g.Relations[rel].Name]++
	}

	k := g.Layout.NumInteractions()
	if g.SplitEnabled {
		s.TrainInteractions = len(g.TrainRows)
		s.TestInteractions = k - len(g.TrainRows)
	} else {
		s.TrainInteractions = k
		s.TestInteractions = k
	}

	if n := g.NumNodes(); n > 0 {
		deg := make([]float64, n)
		for _, src := range g.Edges.Src {
			deg[src]++
		}
		s.DegreeMean = stat.Mean(deg, nil)
		if n > 1 {
			s.DegreeStdDev = stat.StdDev(deg, nil)
		}
	}

	if k > 0 {
		w := g.Edges.Weight[g.Layout.RatingBegin:g.Layout.BlockLen]
		s.RatingMean = stat.Mean(w, nil)
		if k > 1 {
			s.RatingStdDev = stat.StdDev(w, nil)
		}
	}

	return s
}
