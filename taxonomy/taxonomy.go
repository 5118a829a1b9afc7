// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package taxonomy builds and maintains the classified subsumption DAG
// over a KB's named concepts: one Vertex per equivalence class, wired
// to its immediate (transitively-reduced) parents and children. The
// two-phase top-down/bottom-up walk that locates a new concept's
// border nodes is a marking recursion over an already-built
// structure; a memo table keyed by vertex guards against re-visiting
// or re-testing the same node twice in one walk.
package taxonomy

import (
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/z"
)

// Vertex is one node of the classified subsumption DAG: a primer
// entity plus every other entity found equivalent to it (its
// synonyms), wired to immediate parents and children in both
// directions.
type Vertex struct {
	Primer   *entity.Named
	Synonyms []*entity.Named

	parents  map[*Vertex]bool
	children map[*Vertex]bool
}

func newVertex(primer *entity.Named) *Vertex {
	return &Vertex{
		Primer:   primer,
		parents:  make(map[*Vertex]bool),
		children: make(map[*Vertex]bool),
	}
}

// Parents returns v's immediate (transitively-reduced) parents.
func (v *Vertex) Parents() []*Vertex {
	out := make([]*Vertex, 0, len(v.parents))
	for p := range v.parents {
		out = append(out, p)
	}
	return out
}

// Children returns v's immediate (transitively-reduced) children.
func (v *Vertex) Children() []*Vertex {
	out := make([]*Vertex, 0, len(v.children))
	for c := range v.children {
		out = append(out, c)
	}
	return out
}

// Tester decides whether c is subsumed by d, i.e. whether c ⊑ d
// holds. The KB facade supplies this, backed by a fresh tableau run
// testing c ⊓ ¬d for unsatisfiability; taxonomy itself never touches
// the tableau engine.
type Tester func(c, d z.BP) bool

// Resolver maps a concept's DAG entry back to the Named entity that
// declared it, so taxonomy can walk a told-subsumer list (which is
// stored as raw z.BP values) back to classifiable entities.
type Resolver func(bp z.BP) *entity.Named

// Taxonomy is the classified subsumption DAG over one KB's named
// concepts. Top and Bottom always exist, even before any concept has
// been classified.
type Taxonomy struct {
	Top, Bottom *Vertex

	vertices []*Vertex
	test     Tester
	resolve  Resolver

	// waitStack and onWaitStack implement the told-subsumer scheduling
	// step: a DFS over told-subsumer edges that detects cycles by
	// noticing a subsumer already on the current path.
	waitStack   []*entity.Named
	onWaitStack map[*entity.Named]bool
}

// New creates an empty taxonomy over top and bottom, the Named
// entities backing ⊤ and ⊥. test decides subsumption; resolve maps a
// told-subsumer's z.BP back to its Named entity.
func New(top, bottom *entity.Named, test Tester, resolve Resolver) *Taxonomy {
	t := &Taxonomy{
		test:        test,
		resolve:     resolve,
		onWaitStack: make(map[*entity.Named]bool),
	}
	t.Top = t.insertVertex(top)
	t.Bottom = t.insertVertex(bottom)
	t.Top.children[t.Bottom] = true
	t.Bottom.parents[t.Top] = true
	return t
}

func (t *Taxonomy) insertVertex(n *entity.Named) *Vertex {
	v := newVertex(n)
	n.VertexID = len(t.vertices)
	n.Classified = true
	t.vertices = append(t.vertices, v)
	return v
}

// vertexOf returns n's (already classified) vertex, resolving
// synonyms first.
func (t *Taxonomy) vertexOf(n *entity.Named) *Vertex {
	n = n.Resolve()
	if n.VertexID < 0 {
		return nil
	}
	return t.vertices[n.VertexID]
}

func (t *Taxonomy) namedOf(bp z.BP) *entity.Named {
	return t.resolve(bp).Resolve()
}

// Classify inserts c into the taxonomy, first classifying every told
// subsumer it depends on.
// Already-classified concepts are a no-op, so repeated calls across a
// KB's whole concept list are safe and idempotent.
func (t *Taxonomy) Classify(c *entity.Named) {
	c = c.Resolve()
	if c.Classified {
		return
	}
	t.scheduleToldSubsumers(c)
	c = c.Resolve() // may have become a synonym via cycle merging
	if c.Classified {
		return
	}
	if t.completelyDefined(c) {
		t.insertByToldSubsumers(c)
		return
	}
	parents := t.topDown(c)
	children := t.bottomUp(c)
	t.insert(c, parents, children)
}

// scheduleToldSubsumers pushes c on the wait stack and recursively
// classifies every told subsumer not yet classified, before c itself
// is inserted. A told subsumer already on the wait stack means c's
// told-subsumer graph has a cycle back to it: every entity from that
// subsumer to c on the current path is made a synonym of one
// representative.
func (t *Taxonomy) scheduleToldSubsumers(c *entity.Named) {
	t.waitStack = append(t.waitStack, c)
	t.onWaitStack[c] = true
	defer func() {
		t.waitStack = t.waitStack[:len(t.waitStack)-1]
		delete(t.onWaitStack, c)
	}()

	for _, bp := range c.ToldSubsumers {
		s := t.namedOf(bp)
		if s == c.Resolve() || s.Classified {
			continue
		}
		if t.onWaitStack[s] {
			t.mergeCycle(s)
			continue
		}
		t.Classify(s)
	}
}

// mergeCycle collapses every entity from s to the top of the wait
// stack into one synonym class, represented by s. The merged entities
// are still on the stack (their defer hasn't run), so this only
// rewrites synonym pointers; scheduleToldSubsumers callers above s on
// the stack resolve to the same representative once they resume.
func (t *Taxonomy) mergeCycle(s *entity.Named) {
	idx := -1
	for i, n := range t.waitStack {
		if n == s {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	rep := s.Resolve()
	for _, n := range t.waitStack[idx:] {
		if n.Resolve() != rep {
			n.MakeSynonymOf(rep)
		}
	}
}

// completelyDefined reports whether every told subsumer of c is
// already classified and c's definitional form is known, the
// precondition for the completely-defined shortcut.
func (t *Taxonomy) completelyDefined(c *entity.Named) bool {
	if !c.CompletelyDefined {
		return false
	}
	for _, bp := range c.ToldSubsumers {
		if !t.namedOf(bp).Classified {
			return false
		}
	}
	return true
}

// insertByToldSubsumers wires c directly under its non-redundant told
// subsumers, skipping the top-down/bottom-up search entirely. A told
// subsumer S is redundant if some other told subsumer of c is already
// one of S's children in the current taxonomy, since that other
// subsumer already implies S transitively.
func (t *Taxonomy) insertByToldSubsumers(c *entity.Named) {
	var told []*Vertex
	for _, bp := range c.ToldSubsumers {
		told = append(told, t.vertexOf(t.namedOf(bp)))
	}
	parents := nonRedundant(told)
	t.insert(c, parents, t.bottomUp(c))
}

func nonRedundant(verts []*Vertex) []*Vertex {
	set := make(map[*Vertex]bool, len(verts))
	for _, v := range verts {
		set[v] = true
	}
	var out []*Vertex
	for _, s := range verts {
		redundant := false
		for child := range s.children {
			if set[child] {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, s)
		}
	}
	return out
}

// topDown marks every vertex reachable from ⊤ with whether c ⊑ vertex
// holds, memoizing each test so a diamond in the DAG is only tested
// once, and returns the border: valued vertices with no valued child.
// Those border vertices are c's immediate parents.
func (t *Taxonomy) topDown(c *entity.Named) []*Vertex {
	valued := make(map[*Vertex]bool)
	visit := func(v *Vertex) bool {
		if res, ok := valued[v]; ok {
			return res
		}
		res := t.test(c.BP, v.Primer.BP)
		valued[v] = res
		return res
	}

	var border []*Vertex
	seen := make(map[*Vertex]bool)
	var walk func(v *Vertex)
	walk = func(v *Vertex) {
		if seen[v] {
			return
		}
		seen[v] = true
		if !visit(v) {
			return
		}
		hasValuedChild := false
		for child := range v.children {
			if visit(child) {
				hasValuedChild = true
				walk(child)
			}
		}
		if !hasValuedChild {
			border = append(border, v)
		}
	}
	walk(t.Top)
	return border
}

// bottomUp is topDown's mirror image: it marks every vertex reachable
// from ⊥ with whether vertex ⊑ c holds and returns the border in the
// parent direction, c's immediate children.
func (t *Taxonomy) bottomUp(c *entity.Named) []*Vertex {
	valued := make(map[*Vertex]bool)
	visit := func(v *Vertex) bool {
		if res, ok := valued[v]; ok {
			return res
		}
		res := t.test(v.Primer.BP, c.BP)
		valued[v] = res
		return res
	}

	var border []*Vertex
	seen := make(map[*Vertex]bool)
	var walk func(v *Vertex)
	walk = func(v *Vertex) {
		if seen[v] {
			return
		}
		seen[v] = true
		if !visit(v) {
			return
		}
		hasValuedParent := false
		for parent := range v.parents {
			if visit(parent) {
				hasValuedParent = true
				walk(parent)
			}
		}
		if !hasValuedParent {
			border = append(border, v)
		}
	}
	walk(t.Bottom)
	return border
}

// insert either folds c into an existing vertex whose
// parent and child sets both match (c is equivalent to that vertex's
// primer: a transitively-reduced taxonomy can't have two distinct
// vertices with identical borders), or inserts a fresh vertex wired to
// parents and children, pruning any direct parent-child edge they
// make redundant.
func (t *Taxonomy) insert(c *entity.Named, parents, children []*Vertex) {
	for _, v := range t.vertices {
		if sameVertexSet(v.parents, parents) && sameVertexSet(v.children, children) {
			v.Synonyms = append(v.Synonyms, c)
			c.MakeSynonymOf(v.Primer)
			c.Classified = true
			return
		}
	}

	v := t.insertVertex(c)
	for _, p := range parents {
		p.children[v] = true
		v.parents[p] = true
	}
	for _, ch := range children {
		ch.parents[v] = true
		v.children[ch] = true
	}
	for _, p := range parents {
		for _, ch := range children {
			if p.children[ch] {
				delete(p.children, ch)
				delete(ch.parents, p)
			}
		}
	}
}

func sameVertexSet(set map[*Vertex]bool, list []*Vertex) bool {
	if len(set) != len(list) {
		return false
	}
	for _, v := range list {
		if !set[v] {
			return false
		}
	}
	return true
}

// Equivalents returns every entity folded into v's equivalence class:
// v's primer together with its synonyms.
func (v *Vertex) Equivalents() []*entity.Named {
	out := make([]*entity.Named, 0, 1+len(v.Synonyms))
	out = append(out, v.Primer)
	out = append(out, v.Synonyms...)
	return out
}

// VertexOf exposes vertexOf to the KB facade, which needs to map a
// classified Named entity (e.g. an individual's most specific types)
// back to its taxonomy vertex.
func (t *Taxonomy) VertexOf(n *entity.Named) *Vertex {
	return t.vertexOf(n)
}

// DirectTypes returns the most specific classified concepts individual
// bp is an instance of: realization reduces to the same
// top-down border walk Classify uses for a concept's parents, run
// against a throwaway entity whose only role is to carry bp through
// the Tester. It never touches the taxonomy's vertex set, so it is
// safe to call on an individual's bipolar pointer without classifying
// anything.
func (t *Taxonomy) DirectTypes(bp z.BP) []*Vertex {
	probe := &entity.Named{BP: bp}
	return t.topDown(probe)
}
