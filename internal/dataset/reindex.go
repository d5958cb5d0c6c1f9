// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package dataset

import "fmt"

// IDMap is the raw-to-dense id mapping of one entity type. Dense ids follow
// first-seen order in the entity table.
type IDMap struct {
	raw   []int64
	dense map[int64]int
}

// newIDMap assigns dense ids to ids in order; repeated ids keep their first slot.
func newIDMap(ids []int64) *IDMap {
	m := &IDMap{
		raw:   make([]int64, 0, len(ids)),
		dense: make(map[int64]int, len(ids)),
	}
	for _, id := range ids {
		if _, ok := m.dense[id]; ok {
			continue
		}
		m.dense[id] = len(m.raw)
		m.raw = append(m.raw, id)
	}
	return m
}

// Dense returns the dense id of raw.
func (m *IDMap) Dense(raw int64) (int, bool) {
	d, ok := m.dense[raw]
	return d, ok
}

// Raw returns the raw id of dense id d.
func (m *IDMap) Raw(d int) int64 {
	return m.raw[d]
}

// Len returns the number of distinct ids.
func (m *IDMap) Len() int {
	return len(m.raw)
}

// Reindexed is a dataset whose user, item and rating ids are dense, together
// with the mappings back to the raw ids.
type Reindexed struct {
	*Dataset
	UserIDs *IDMap
	ItemIDs *IDMap
}

// Reindex replaces raw user and item ids by dense ids 0..n-1 in table order.
// A rating that references an id absent from the entity tables fails with
// ErrUnknownEntity.
func Reindex(d *Dataset) (*Reindexed, error) {
	userRaw := make([]int64, len(d.Users))
	for i := range d.Users {
		userRaw[i] = d.Users[i].ID
	}
	itemRaw := make([]int64, len(d.Items))
	for i := range d.Items {
		itemRaw[i] = d.Items[i].ID
	}
	users := newIDMap(userRaw)
	items := newIDMap(itemRaw)

	out := &Dataset{
		Name:    d.Name,
		Users:   make([]User, 0, users.Len()),
		Items:   make([]Item, 0, items.Len()),
		Ratings: make([]Rating, len(d.Ratings)),
	}

	seen := make(map[int64]bool, users.Len())
	for _, u := range d.Users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		dense, _ := users.Dense(u.ID)
		u.ID = int64(dense)
		out.Users = append(out.Users, u)
	}

	clear(seen)
	for _, it := range d.Items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		dense, _ := items.Dense(it.ID)
		it.ID = int64(dense)
		out.Items = append(out.Items, it)
	}

	for i, r := range d.Ratings {
		u, ok := users.Dense(r.UserID)
		if !ok {
			return nil, fmt.Errorf("rating %d: user %d: %w", i, r.UserID, ErrUnknownEntity)
		}
		it, ok := items.Dense(r.ItemID)
		if !ok {
			return nil, fmt.Errorf("rating %d: item %d: %w", i, r.ItemID, ErrUnknownEntity)
		}
		r.UserID = int64(u)
		r.ItemID = int64(it)
		out.Ratings[i] = r
	}

	return &Reindexed{Dataset: out, UserIDs: users, ItemIDs: items}, nil
}
