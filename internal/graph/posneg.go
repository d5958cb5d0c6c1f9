// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/tomtom215/hetgraph/internal/dataset"
)

// ItemSets maps a user node id to an ascending list of item node ids.
type ItemSets map[int][]int

// Interactions are the per-user item sets used by ranking losses.
type Interactions struct {
	TrainPos ItemSets
	TestPos  ItemSets
	Neg      ItemSets
}

// MapInteractions builds, for every user of d (rated or not), the items
// rated in train rows, the items rated in the other rows, and every item
// never rated. Ids are global node ids. Users with empty sets keep an
// empty, non-nil entry.
func MapInteractions(d *dataset.Reindexed, ix *NodeIndex, split *Split) (*Interactions, error) {
	userType, err := ix.Type(TypeUser)
	if err != nil {
		return nil, err
	}
	itemType, err := ix.Type(TypeItem)
	if err != nil {
		return nil, err
	}

	numUsers, numItems := userType.Count(), itemType.Count()
	train := make([]map[int]struct{}, numUsers)
	test := make([]map[int]struct{}, numUsers)
	for u := range numUsers {
		train[u] = make(map[int]struct{})
		test[u] = make(map[int]struct{})
	}

	for k, r := range d.Ratings {
		u, it := int(r.UserID), itemType.Offset+int(r.ItemID)
		if split.IsTrainRow(k) {
			train[u][it] = struct{}{}
		} else {
			test[u][it] = struct{}{}
		}
	}

	out := &Interactions{
		TrainPos: make(ItemSets, numUsers),
		TestPos:  make(ItemSets, numUsers),
		Neg:      make(ItemSets, numUsers),
	}
	rated := bitset.New(uint(numItems))
	for u := range numUsers {
		node := userType.Offset + u
		// An item rated in both splits counts as train-positive only.
		for it := range train[u] {
			delete(test[u], it)
		}
		out.TrainPos[node] = sortedKeys(train[u])
		out.TestPos[node] = sortedKeys(test[u])

		rated.ClearAll()
		for _, set := range []map[int]struct{}{train[u], test[u]} {
			for it := range set {
				rated.Set(uint(it - itemType.Offset))
			}
		}
		neg := make([]int, 0, numItems-int(rated.Count()))
		for i, ok := rated.NextClear(0); ok && int(i) < numItems; i, ok = rated.NextClear(i + 1) {
			neg = append(neg, itemType.Offset+int(i))
		}
		out.Neg[node] = neg
	}
	return out, nil
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
