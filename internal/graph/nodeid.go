// Hetgraph - Heterogeneous Graph Compiler for Recommendation Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hetgraph

package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownNodeType is returned for a node type that was never allocated.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrUnknownNode is returned for a value or id outside a type's range.
var ErrUnknownNode = errors.New("unknown node")

// TypeSpec declares one node type and its values in local-id order.
type TypeSpec struct {
	Name   string
	Values []string
}

// NodeType is one contiguous range of the global id space. Values is the
// arena: Values[local] is the raw value of global id Offset+local.
type NodeType struct {
	Name   string
	Offset int
	Values []string
}

// Count returns the number of nodes of this type.
func (t *NodeType) Count() int {
	return len(t.Values)
}

// NodeRef decodes a global node id.
type NodeRef struct {
	Type  string
	Local int
	Value string
}

// NodeIndex is the bijection between (type, local id) and global node ids.
// Types are laid out in declaration order with monotonic, non-overlapping
// offsets.
type NodeIndex struct {
	Types    []NodeType
	NumNodes int

	once   sync.Once
	byName map[string]int
	byVal  []map[string]int
}

// NewNodeIndex allocates global ids for specs in order. Type names must be
// unique and non-empty; values must be unique within a type.
func NewNodeIndex(specs []TypeSpec) (*NodeIndex, error) {
	ix := &NodeIndex{Types: make([]NodeType, 0, len(specs))}
	seen := make(map[string]bool, len(specs))

	offset := 0
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("node type %d has no name", len(ix.Types))
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("node type %q declared twice", s.Name)
		}
		seen[s.Name] = true

		vals := make(map[string]struct{}, len(s.Values))
		for _, v := range s.Values {
			if _, dup := vals[v]; dup {
				return nil, fmt.Errorf("node type %q: duplicate value %q", s.Name, v)
			}
			vals[v] = struct{}{}
		}

		ix.Types = append(ix.Types, NodeType{
			Name:   s.Name,
			Offset: offset,
			Values: append([]string(nil), s.Values...),
		})
		offset += len(s.Values)
	}
	ix.NumNodes = offset
	return ix, nil
}

// lookups builds the name and value indexes on first use; the exported
// fields are all that is persisted.
func (ix *NodeIndex) lookups() {
	ix.once.Do(func() {
		ix.byName = make(map[string]int, len(ix.Types))
		ix.byVal = make([]map[string]int, len(ix.Types))
		for i := range ix.Types {
			t := &ix.Types[i]
			ix.byName[t.Name] = i
			m := make(map[string]int, len(t.Values))
			for local, v := range t.Values {
				m[v] = local
			}
			ix.byVal[i] = m
		}
	})
}

// Type returns the node type called name.
func (ix *NodeIndex) Type(name string) (*NodeType, error) {
	ix.lookups()
	i, ok := ix.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, name)
	}
	return &ix.Types[i], nil
}

// Global returns the global id of (typeName, local).
func (ix *NodeIndex) Global(typeName string, local int) (int, error) {
	t, err := ix.Type(typeName)
	if err != nil {
		return 0, err
	}
	if local < 0 || local >= t.Count() {
		return 0, fmt.Errorf("%w: %s local id %d out of range [0,%d)", ErrUnknownNode, typeName, local, t.Count())
	}
	return t.Offset + local, nil
}

// Lookup returns the global id of the node of typeName carrying value.
func (ix *NodeIndex) Lookup(typeName, value string) (int, error) {
	t, err := ix.Type(typeName)
	if err != nil {
		return 0, err
	}
	local, ok := ix.byVal[ix.byName[typeName]][value]
	if !ok {
		return 0, fmt.Errorf("%w: %s value %q", ErrUnknownNode, typeName, value)
	}
	return t.Offset + local, nil
}

// Decode maps a global id back to its type, local id and raw value.
func (ix *NodeIndex) Decode(global int) (NodeRef, error) {
	if global < 0 || global >= ix.NumNodes {
		return NodeRef{}, fmt.Errorf("%w: global id %d out of range [0,%d)", ErrUnknownNode, global, ix.NumNodes)
	}
	// First type whose range ends after global; empty types are skipped.
	i := sort.Search(len(ix.Types), func(i int) bool {
		return ix.Types[i].Offset+ix.Types[i].Count() > global
	})
	t := &ix.Types[i]
	local := global - t.Offset
	return NodeRef{Type: t.Name, Local: local, Value: t.Values[local]}, nil
}

// Counts returns the number of nodes per type.
func (ix *NodeIndex) Counts() map[string]int {
	out := make(map[string]int, len(ix.Types))
	for i := range ix.Types {
		out[ix.Types[i].Name] = ix.Types[i].Count()
	}
	return out
}
