// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dag

import "github.com/go-air/sroiq/z"

// Top returns the bipolar pointer for the universal concept. Bottom is
// its negation: z.BOTTOM == Top().Not().
func (d *DAG) Top() z.BP {
	return z.TOP
}

// CName interns (or looks up) the DAG leaf for a named concept. Calling
// CName twice with the same name returns the same bipolar pointer.
func (d *DAG) CName(name string) z.BP {
	if e, ok := d.cnames[name]; ok {
		return e.Pos()
	}
	bp := d.newNode(Node{Kind: KindCName, Name: name})
	d.cnames[name] = bp.Entry()
	return bp
}

// IName interns (or looks up) the DAG leaf for a named individual.
func (d *DAG) IName(name string) z.BP {
	if e, ok := d.inames[name]; ok {
		return e.Pos()
	}
	bp := d.newNode(Node{Kind: KindIName, Name: name})
	d.inames[name] = bp.Entry()
	return bp
}

// MkNot returns the arithmetic negation of c: no new entry is ever
// created, since Not is carried by a bipolar pointer's polarity, not by
// a DAG node. Only And, Forall and AtLeast appear as non-atomic
// connectives; negation is realized structurally as the sign bit.
func (d *DAG) MkNot(c z.BP) z.BP {
	return c.Not()
}

// MkAnd interns the conjunction of children, after flattening nested
// conjunctions and removing exact duplicates while preserving the
// order children were first seen in.
//
// MkAnd absorbs TOP and short-circuits to BOTTOM if BOTTOM is among
// the (flattened) children, or if some child and its negation both
// appear.
func (d *DAG) MkAnd(children ...z.BP) z.BP {
	flat := make([]z.BP, 0, len(children))
	d.flattenAnd(children, &flat)

	seen := make(map[z.BP]bool, len(flat))
	neg := make(map[z.BP]bool, len(flat))
	out := make([]z.BP, 0, len(flat))
	for _, c := range flat {
		if c == z.TOP {
			continue
		}
		if c == z.BOTTOM || neg[c] {
			return z.BOTTOM
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		neg[c.Not()] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return z.TOP
	}
	if len(out) == 1 {
		return out[0]
	}
	return d.internAnd(out)
}

func (d *DAG) flattenAnd(children []z.BP, out *[]z.BP) {
	for _, c := range children {
		if c.IsPos() && d.Get(c).Kind == KindAnd {
			d.flattenAnd(d.Get(c).Children, out)
			continue
		}
		*out = append(*out, c)
	}
}

func (d *DAG) internAnd(children []z.BP) z.BP {
	d.maybeGrow()
	h := andHash(children)
	k := h % uint32(len(d.andStrash))
	for e := d.andStrash[k]; e != z.EntryNull; e = d.nodes[e].next {
		n := &d.nodes[e]
		if n.Kind == KindAnd && bpSliceEqual(n.Children, children) {
			return e.Pos()
		}
	}
	bp := d.newNode(Node{Kind: KindAnd, Children: children})
	e := bp.Entry()
	d.nodes[e].next = d.andStrash[k]
	d.andStrash[k] = e
	return bp
}

func bpSliceEqual(a, b []z.BP) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MkForall interns universal(role, filler). The pair (role, filler) is
// never simplified away, even when filler is TOP or BOTTOM: Forall(r,
// Top) is the carrier of the functional-role flag, and Forall(r,
// Bottom) is the encoding of AtMost(0, r, Top).
func (d *DAG) MkForall(role z.Entry, filler z.BP) z.BP {
	d.maybeGrow()
	h := forallHash(role, filler)
	k := h % uint32(len(d.forallStrash))
	for e := d.forallStrash[k]; e != z.EntryNull; e = d.nodes[e].next {
		n := &d.nodes[e]
		if n.Kind == KindForall && n.Role == role && n.Filler == filler {
			return e.Pos()
		}
	}
	bp := d.newNode(Node{Kind: KindForall, Role: role, Filler: filler})
	e := bp.Entry()
	d.nodes[e].next = d.forallStrash[k]
	d.forallStrash[k] = e
	return bp
}

// MkGE interns AtLeast(n, role, filler). AtLeast(0, ...) is trivially
// TOP: zero successors is a vacuous requirement.
func (d *DAG) MkGE(n int, role z.Entry, filler z.BP) z.BP {
	if n <= 0 {
		return z.TOP
	}
	d.maybeGrow()
	h := atLeastHash(n, role, filler)
	k := h % uint32(len(d.atLeastStrash))
	for e := d.atLeastStrash[k]; e != z.EntryNull; e = d.nodes[e].next {
		nd := &d.nodes[e]
		if nd.Kind == KindAtLeast && nd.N == n && nd.Role == role && nd.Filler == filler {
			return e.Pos()
		}
	}
	bp := d.newNode(Node{Kind: KindAtLeast, N: n, Role: role, Filler: filler})
	e := bp.Entry()
	d.nodes[e].next = d.atLeastStrash[k]
	d.atLeastStrash[k] = e
	return bp
}

// MkDataValue interns a concrete datatype literal.
func (d *DAG) MkDataValue(datatype, value string) z.BP {
	return d.internData(Node{Kind: KindDataValue, Data: DataTerm{Datatype: datatype, Value: value}})
}

// MkDataExpr interns a datatype facet expression (e.g. an interval).
func (d *DAG) MkDataExpr(datatype, facets string) z.BP {
	return d.internData(Node{Kind: KindDataExpr, Data: DataTerm{Datatype: datatype, Facets: facets}})
}

func (d *DAG) internData(n Node) z.BP {
	d.maybeGrow()
	h := dataHash(n.Data)
	k := h % uint32(len(d.dataStrash))
	for e := d.dataStrash[k]; e != z.EntryNull; e = d.nodes[e].next {
		cur := &d.nodes[e]
		if cur.Kind == n.Kind && cur.Data == n.Data {
			return e.Pos()
		}
	}
	bp := d.newNode(n)
	e := bp.Entry()
	d.nodes[e].next = d.dataStrash[k]
	d.dataStrash[k] = e
	return bp
}

// MkProjection interns the projection marker node used by the role
// automaton rule to stand for "the remainder of a role composition
// chain" at an intermediate completion-graph node.
func (d *DAG) MkProjection(role z.Entry) z.BP {
	for i := range d.nodes {
		if n := &d.nodes[i]; n.Kind == KindProjection && n.Role == role {
			return z.Entry(i).Pos()
		}
	}
	return d.newNode(Node{Kind: KindProjection, Role: role})
}

// MarkFunctional interns Forall(role, Top) and marks it as the
// functional-flag carrier for role.
func (d *DAG) MarkFunctional(role z.Entry) z.BP {
	bp := d.MkForall(role, z.TOP)
	d.nodes[bp.Entry()].Functional = true
	return bp
}

// SetSortLabel assigns a cached sort label to bp's entry, for sorted
// reasoning profiles.
func (d *DAG) SetSortLabel(bp z.BP, label int32) {
	d.nodes[bp.Entry()].SortLabel = label
}

// --- derived SNF constructors: Or, Exists and AtMost are never
// interned directly, only built from And/Forall/AtLeast plus negation ---

// Or returns the disjunction of children: Or = ¬And(¬…).
func (d *DAG) Or(children ...z.BP) z.BP {
	negs := make([]z.BP, len(children))
	for i, c := range children {
		negs[i] = c.Not()
	}
	return d.MkAnd(negs...).Not()
}

// Exists returns ∃role.filler: Exists R.C = ¬∀R.¬C.
func (d *DAG) Exists(role z.Entry, filler z.BP) z.BP {
	return d.MkForall(role, filler.Not()).Not()
}

// AtMost returns the at-most-n qualified number restriction:
// AtMost 0 = ∀R.¬C; for n > 0, AtMost n R C = ¬(AtLeast (n+1) R C).
func (d *DAG) AtMost(n int, role z.Entry, filler z.BP) z.BP {
	if n <= 0 {
		return d.MkForall(role, filler.Not())
	}
	return d.MkGE(n+1, role, filler).Not()
}

func (d *DAG) maybeGrow() {
	if len(d.nodes) < cap(d.andStrash) {
		return
	}
	d.grow()
}
