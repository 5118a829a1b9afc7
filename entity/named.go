// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package entity implements the Named entry shared by concepts,
// individuals and roles: a classifiable thing carrying a unique name,
// told subsumers, synonym resolution and classification status,
// independent of which DAG entry or role it wraps.
package entity

import "github.com/go-air/sroiq/z"

// Named is a classifiable entity: a concept, individual or role name.
// Only primary entries (Synonym == the entity itself) ever appear in
// the DAG or the taxonomy; looking a name up always resolves synonyms
// first.
type Named struct {
	Name string

	// ID is negative for system/built-in entries (Top, Bottom, the
	// universal/empty role), positive for user-declared ones.
	ID int32

	// BP is the bipolar pointer of this entry's DAG leaf, if it has
	// one (concepts and individuals do; plain role names do not, since
	// roles are not DAG entries).
	BP z.BP

	// ToldSubsumers are the told (syntactic, pre-reasoning) superiors
	// of this entry, collected while axioms are told.
	ToldSubsumers []z.BP

	synonym *Named

	// VertexID is the back-link to this entry's taxonomy vertex, or -1
	// if it has not been classified yet.
	VertexID int

	Classified        bool
	CompletelyDefined bool

	// Primitive is true for a concept only ever subsumed (never
	// defined by an equivalence); false for a fully definitional
	// concept.
	Primitive bool
}

// New creates a new primary Named entry.
func New(name string, id int32) *Named {
	n := &Named{Name: name, ID: id, VertexID: -1, Primitive: true}
	n.synonym = n
	return n
}

// Primary reports whether n is its own synonym representative.
func (n *Named) Primary() bool {
	return n.synonym == n
}

// Resolve follows the synonym chain to the primary representative.
// Resolution is transitive and idempotent: Resolve(Resolve(n)) ==
// Resolve(n) always.
func (n *Named) Resolve() *Named {
	r := n
	for r.synonym != r {
		r = r.synonym
	}
	// path compression keeps subsequent resolutions O(1).
	for c := n; c != r; {
		next := c.synonym
		c.synonym = r
		c = next
	}
	return r
}

// MakeSynonymOf collapses n into rep's equivalence class. If n was
// itself a representative of other synonyms, they now resolve through
// n to rep transparently (Resolve follows the chain and compresses
// it).
func (n *Named) MakeSynonymOf(rep *Named) {
	root := rep.Resolve()
	if n.Resolve() == root {
		return
	}
	n.Resolve().synonym = root
}
