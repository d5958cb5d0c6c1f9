// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Node type names of the two entity tables.
const (
	TypeUser = "user"
	TypeItem = "item"
)

// InteractionRelation is the relation of rating edges.
const InteractionRelation = "user2item"

// ErrUnknownRelation is returned when a relation name is not enumerated.
var ErrUnknownRelation = errors.New("unknown relation")

// Schema selects and orders the attribute relations of a graph. Node types
// are laid out as user, item, then UserAttributes, then ItemAttributes.
type Schema struct {
	UserAttributes []string
	ItemAttributes []string
}

// DefaultSchema is the MovieLens-1M layout.
func DefaultSchema() Schema {
	return Schema{
		UserAttributes: []string{"gender", "occupation", "age"},
		ItemAttributes: []string{"genre", "year"},
	}
}

// Validate rejects empty, reserved and repeated attribute names.
func (s Schema) Validate() error {
	seen := map[string]bool{TypeUser: true, TypeItem: true}
	for _, name := range s.attributes() {
		if name == "" || strings.HasPrefix(name, "-") {
			return fmt.Errorf("invalid attribute name %q", name)
		}
		if seen[name] {
			return fmt.Errorf("attribute %q is reserved or repeated", name)
		}
		seen[name] = true
	}
	return nil
}

// NodeTypes returns the node type names in allocation order.
func (s Schema) NodeTypes() []string {
	return append([]string{TypeUser, TypeItem}, s.attributes()...)
}

func (s Schema) attributes() []string {
	out := make([]string, 0, len(s.UserAttributes)+len(s.ItemAttributes))
	out = append(out, s.UserAttributes...)
	return append(out, s.ItemAttributes...)
}

// Fingerprint is a short stable hash of the schema used in cache keys.
func (s Schema) Fingerprint() string {
	key := strings.Join(s.UserAttributes, ",") + "|" + strings.Join(s.ItemAttributes, ",")
	return fmt.Sprintf("%08x", xxhash.Sum64String(key)>>32)
}

// Relation is one entry of the fixed relation enumeration.
type Relation struct {
	ID   int
	Name string

	// SrcType and DstType are the node types at the edge endpoints.
	SrcType string
	DstType string

	// Attribute is the attribute name of a structural relation, "" for the
	// interaction relation.
	Attribute string

	Reverse     bool
	Interaction bool
}

// Relations enumerates the relations of s: attribute relations in schema
// order, then user2item, then (unless directed) the reverse of each in the
// same order.
//
// An attribute relation is named "<attr>2<owner>" and points from the
// attribute value to the owning user or item; its reverse is "-<attr>2<owner>".
func Relations(s Schema, directed bool) []Relation {
	var forward []Relation
	for _, a := range s.UserAttributes {
		forward = append(forward, Relation{Name: a + "2" + TypeUser, SrcType: a, DstType: TypeUser, Attribute: a})
	}
	for _, a := range s.ItemAttributes {
		forward = append(forward, Relation{Name: a + "2" + TypeItem, SrcType: a, DstType: TypeItem, Attribute: a})
	}
	forward = append(forward, Relation{Name: InteractionRelation, SrcType: TypeUser, DstType: TypeItem, Interaction: true})

	rels := forward
	if !directed {
		for _, r := range forward {
			rels = append(rels, Relation{
				Name:        "-" + r.Name,
				SrcType:     r.DstType,
				DstType:     r.SrcType,
				Attribute:   r.Attribute,
				Reverse:     true,
				Interaction: r.Interaction,
			})
		}
	}
	for i := range rels {
		rels[i].ID = i
	}
	return rels
}

// RelationByName looks a relation up in rels.
func RelationByName(rels []Relation, name string) (Relation, error) {
	for _, r := range rels {
		if r.Name == name {
			return r, nil
		}
	}
	return Relation{}, fmt.Errorf("%w: %q", ErrUnknownRelation, name)
}
