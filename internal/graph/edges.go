// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/tomtom215/hetgraph/internal/dataset"
)

// NoWeight marks structural edges in the weight array.
const NoWeight = -1.0

// EdgeList holds the edges as parallel arrays.
type EdgeList struct {
	Src      []int
	Dst      []int
	Relation []int
	Weight   []float64
}

// Len returns the number of edges.
func (e *EdgeList) Len() int {
	return len(e.Src)
}

func (e *EdgeList) grow(n int) {
	e.Src = slices.Grow(e.Src, n)
	e.Dst = slices.Grow(e.Dst, n)
	e.Relation = slices.Grow(e.Relation, n)
	e.Weight = slices.Grow(e.Weight, n)
}

func (e *EdgeList) add(src, dst, rel int, w float64) {
	e.Src = append(e.Src, src)
	e.Dst = append(e.Dst, dst)
	e.Relation = append(e.Relation, rel)
	e.Weight = append(e.Weight, w)
}

// Layout describes the block structure of an edge list:
//
//	[0, RatingBegin)                    forward structural
//	[RatingBegin, BlockLen)             forward interaction, one per rating row
//	[BlockLen, BlockLen+RatingBegin)    reverse structural   (undirected only)
//	[BlockLen+RatingBegin, 2*BlockLen)  reverse interaction  (undirected only)
type Layout struct {
	Directed    bool
	BlockLen    int
	RatingBegin int
}

// NumInteractions returns the number of interaction rows.
func (l Layout) NumInteractions() int {
	return l.BlockLen - l.RatingBegin
}

// NumEdges returns the total edge count.
func (l Layout) NumEdges() int {
	if l.Directed {
		return l.BlockLen
	}
	return 2 * l.BlockLen
}

// interactionEdges returns the edge positions of interaction row k: the
// forward edge and, for undirected layouts, its reverse.
func (l Layout) interactionEdges(k int) (fwd, rev int, hasRev bool) {
	fwd = l.RatingBegin + k
	if l.Directed {
		return fwd, 0, false
	}
	return fwd, l.BlockLen + fwd, true
}

// NodeSpecs derives the node types of a reindexed dataset: users and items
// by dense id with their raw ids as values, then each attribute of s with
// its values in lexicographic order.
func NodeSpecs(d *dataset.Reindexed, s Schema) []TypeSpec {
	users := make([]string, d.UserIDs.Len())
	for i := range users {
		users[i] = strconv.FormatInt(d.UserIDs.Raw(i), 10)
	}
	items := make([]string, d.ItemIDs.Len())
	for i := range items {
		items[i] = strconv.FormatInt(d.ItemIDs.Raw(i), 10)
	}

	specs := []TypeSpec{{Name: TypeUser, Values: users}, {Name: TypeItem, Values: items}}
	for _, a := range s.UserAttributes {
		specs = append(specs, TypeSpec{Name: a, Values: attributeValues(len(d.Users), func(i int) []string { return d.Users[i].Attrs[a] })})
	}
	for _, a := range s.ItemAttributes {
		specs = append(specs, TypeSpec{Name: a, Values: attributeValues(len(d.Items), func(i int) []string { return d.Items[i].Attrs[a] })})
	}
	return specs
}

func attributeValues(n int, valuesOf func(int) []string) []string {
	set := make(map[string]struct{})
	for i := 0; i < n; i++ {
		for _, v := range valuesOf(i) {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Materialize emits the edge list of a reindexed dataset. Structural edges
// come relation by relation in schema order, owners in table order, values
// in row order; interaction edges follow in rating-row order with the
// rating as weight. Unless directed, the whole forward block is then
// mirrored with the paired reverse relations and the same weights.
func Materialize(d *dataset.Reindexed, ix *NodeIndex, rels []Relation, directed bool) (*EdgeList, Layout, error) {
	forward := rels
	if !directed {
		forward = rels[:len(rels)/2]
	}

	userType, err := ix.Type(TypeUser)
	if err != nil {
		return nil, Layout{}, err
	}
	itemType, err := ix.Type(TypeItem)
	if err != nil {
		return nil, Layout{}, err
	}

	edges := &EdgeList{}
	for _, rel := range forward {
		if rel.Interaction {
			continue
		}
		var (
			owner *NodeType
			n     int
			attrs func(int) map[string][]string
		)
		switch rel.DstType {
		case TypeUser:
			owner, n = userType, len(d.Users)
			attrs = func(i int) map[string][]string { return d.Users[i].Attrs }
		case TypeItem:
			owner, n = itemType, len(d.Items)
			attrs = func(i int) map[string][]string { return d.Items[i].Attrs }
		default:
			return nil, Layout{}, fmt.Errorf("relation %s: owner %w: %q", rel.Name, ErrUnknownNodeType, rel.DstType)
		}

		for i := 0; i < n; i++ {
			dst := owner.Offset + i
			for _, v := range attrs(i)[rel.Attribute] {
				src, err := ix.Lookup(rel.SrcType, v)
				if err != nil {
					return nil, Layout{}, fmt.Errorf("relation %s: %w", rel.Name, err)
				}
				edges.add(src, dst, rel.ID, NoWeight)
			}
		}
	}

	layout := Layout{Directed: directed, RatingBegin: edges.Len()}

	interact, err := RelationByName(forward, InteractionRelation)
	if err != nil {
		return nil, Layout{}, err
	}
	edges.grow(len(d.Ratings))
	for k, r := range d.Ratings {
		if r.UserID < 0 || int(r.UserID) >= userType.Count() || r.ItemID < 0 || int(r.ItemID) >= itemType.Count() {
			return nil, Layout{}, fmt.Errorf("rating %d: %w: user %d item %d", k, ErrUnknownNode, r.UserID, r.ItemID)
		}
		edges.add(userType.Offset+int(r.UserID), itemType.Offset+int(r.ItemID), interact.ID, r.Value)
	}
	layout.BlockLen = edges.Len()

	if !directed {
		reverseOf := len(forward)
		edges.grow(layout.BlockLen)
		for e := 0; e < layout.BlockLen; e++ {
			edges.add(edges.Dst[e], edges.Src[e], edges.Relation[e]+reverseOf, edges.Weight[e])
		}
	}

	return edges, layout, nil
}
