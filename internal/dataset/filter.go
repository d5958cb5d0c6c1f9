// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package dataset

import (
	"math"
	"math/rand"
	"slices"
)

// Dedupe drops repeated entity ids (keeping the first row) and exact
// duplicate ratings.
func Dedupe(d *Dataset) *Dataset {
	out := &Dataset{Name: d.Name}

	seenUser := make(map[int64]struct{}, len(d.Users))
	for _, u := range d.Users {
		if _, ok := seenUser[u.ID]; ok {
			continue
		}
		seenUser[u.ID] = struct{}{}
		out.Users = append(out.Users, u)
	}

	seenItem := make(map[int64]struct{}, len(d.Items))
	for _, it := range d.Items {
		if _, ok := seenItem[it.ID]; ok {
			continue
		}
		seenItem[it.ID] = struct{}{}
		out.Items = append(out.Items, it)
	}

	seenRating := make(map[Rating]struct{}, len(d.Ratings))
	for _, r := range d.Ratings {
		if _, ok := seenRating[r]; ok {
			continue
		}
		seenRating[r] = struct{}{}
		out.Ratings = append(out.Ratings, r)
	}

	return out
}

// Subsample keeps round(fraction * |users|) users chosen uniformly with rng,
// in table order, and only their ratings. Items are kept; FilterCore drops
// the ones left without interactions. A fraction outside (0, 1) returns a
// copy of d.
func Subsample(d *Dataset, fraction float64, rng *rand.Rand) *Dataset {
	if fraction <= 0 || fraction >= 1 {
		return d.Clone()
	}

	n := int(math.Round(fraction * float64(len(d.Users))))
	picked := rng.Perm(len(d.Users))[:n]
	slices.Sort(picked)

	out := &Dataset{Name: d.Name, Items: append([]Item(nil), d.Items...)}
	keep := make(map[int64]struct{}, n)
	for _, i := range picked {
		out.Users = append(out.Users, d.Users[i])
		keep[d.Users[i].ID] = struct{}{}
	}
	for _, r := range d.Ratings {
		if _, ok := keep[r.UserID]; ok {
			out.Ratings = append(out.Ratings, r)
		}
	}
	return out
}

// FilterCore keeps ratings whose user and item both have at least nCore
// ratings, then keeps only the users and items that still appear in a
// rating. Counts are taken once, before filtering. nCore <= 0 keeps every
// row, including entities without ratings.
func FilterCore(d *Dataset, nCore int) *Dataset {
	if nCore <= 0 {
		return d.Clone()
	}

	userCount := make(map[int64]int)
	itemCount := make(map[int64]int)
	for _, r := range d.Ratings {
		userCount[r.UserID]++
		itemCount[r.ItemID]++
	}

	out := &Dataset{Name: d.Name}
	activeUser := make(map[int64]struct{})
	activeItem := make(map[int64]struct{})
	for _, r := range d.Ratings {
		if userCount[r.UserID] < nCore || itemCount[r.ItemID] < nCore {
			continue
		}
		out.Ratings = append(out.Ratings, r)
		activeUser[r.UserID] = struct{}{}
		activeItem[r.ItemID] = struct{}{}
	}

	for _, u := range d.Users {
		if _, ok := activeUser[u.ID]; ok {
			out.Users = append(out.Users, u)
		}
	}
	for _, it := range d.Items {
		if _, ok := activeItem[it.ID]; ok {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

// FilterFeatures removes attribute values carried by fewer than minCount
// entities. userAttrs and itemAttrs name the attributes to filter; others
// are dropped from the result. minCount <= 1 keeps every value of the named
// attributes.
func FilterFeatures(d *Dataset, minCount int, userAttrs, itemAttrs []string) *Dataset {
	out := &Dataset{
		Name:    d.Name,
		Users:   make([]User, len(d.Users)),
		Items:   make([]Item, len(d.Items)),
		Ratings: append([]Rating(nil), d.Ratings...),
	}

	userKeep := countValues(len(d.Users), func(i int) map[string][]string { return d.Users[i].Attrs }, userAttrs, minCount)
	for i, u := range d.Users {
		u.Attrs = keepValues(u.Attrs, userAttrs, userKeep)
		out.Users[i] = u
	}

	itemKeep := countValues(len(d.Items), func(i int) map[string][]string { return d.Items[i].Attrs }, itemAttrs, minCount)
	for i, it := range d.Items {
		it.Attrs = keepValues(it.Attrs, itemAttrs, itemKeep)
		out.Items[i] = it
	}
	return out
}

// countValues returns, per attribute, the set of values carried by at least
// minCount rows. A value repeated within one row counts once.
func countValues(n int, attrsOf func(int) map[string][]string, names []string, minCount int) map[string]map[string]struct{} {
	counts := make(map[string]map[string]int, len(names))
	for _, name := range names {
		counts[name] = make(map[string]int)
	}
	for i := 0; i < n; i++ {
		attrs := attrsOf(i)
		for _, name := range names {
			for _, v := range distinct(attrs[name]) {
				counts[name][v]++
			}
		}
	}

	keep := make(map[string]map[string]struct{}, len(names))
	for name, byValue := range counts {
		keep[name] = make(map[string]struct{}, len(byValue))
		for v, c := range byValue {
			if c >= minCount {
				keep[name][v] = struct{}{}
			}
		}
	}
	return keep
}

// keepValues builds a fresh attribute map restricted to names and keep.
func keepValues(attrs map[string][]string, names []string, keep map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(names))
	for _, name := range names {
		var vals []string
		for _, v := range distinct(attrs[name]) {
			if _, ok := keep[name][v]; ok {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			out[name] = vals
		}
	}
	return out
}

// distinct returns vals without repeats, in first-seen order.
func distinct(vals []string) []string {
	if len(vals) < 2 {
		return vals
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
