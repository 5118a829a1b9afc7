// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package dag implements the term DAG: an interning store for concept
// and role expressions in Simplified Normal Form (SNF). Structural
// equality of two expressions implies pointer equality of their
// bipolar pointers, via hash-consing: a node arena plus a chained
// hash table over a canonical key, doubling capacity and rehashing in
// place when full.
package dag

import (
	"fmt"

	"github.com/go-air/sroiq/z"
)

// Kind discriminates the variant an entry holds. Only Not, And, Forall
// and AtLeast are non-atomic connectives in SNF; Or, Exists and AtMost
// are derived by callers composing these via negation.
type Kind uint8

const (
	KindTop Kind = iota
	KindCName
	KindIName
	KindAnd
	KindForall
	KindAtLeast
	KindProjection
	KindDataValue
	KindDataExpr
)

func (k Kind) String() string {
	switch k {
	case KindTop:
		return "Top"
	case KindCName:
		return "CName"
	case KindIName:
		return "IName"
	case KindAnd:
		return "And"
	case KindForall:
		return "Forall"
	case KindAtLeast:
		return "AtLeast"
	case KindProjection:
		return "Projection"
	case KindDataValue:
		return "DataValue"
	case KindDataExpr:
		return "DataExpr"
	default:
		return "?"
	}
}

// Node is one DAG entry. Only the fields relevant to Kind are
// meaningful; the others are zero. Negation is never a Node variant:
// it is carried entirely by the sign bit of a z.BP.
type Node struct {
	Kind Kind

	// KindCName, KindIName
	Name string

	// KindAnd: flattened, deduplicated operands, in first-seen order.
	Children []z.BP

	// KindForall, KindAtLeast: the role the restriction quantifies over
	// and the filler concept.
	Role   z.Entry
	Filler z.BP

	// KindAtLeast: the cardinality threshold.
	N int

	// Functional marks a KindForall(r, Top) node as the carrier of
	// "role r is functional"; it caches that reading so callers don't
	// need to re-derive it from Filler each time.
	Functional bool

	// KindDataValue, KindDataExpr
	Data DataTerm

	// SortLabel is a cached label for sorted/profile-based reasoning.
	// It is assigned lazily by SetSortLabel and defaults to 0
	// (unassigned).
	SortLabel int32

	next z.Entry // strash chain, 0-terminated
}

// DataTerm is the payload of a KindDataValue or KindDataExpr node. The
// datatype package interprets it; dag only needs it to be comparable
// for interning.
type DataTerm struct {
	Datatype string
	Value    string // KindDataValue: the literal's lexical form
	Facets   string // KindDataExpr: a canonical facet expression, e.g. "[18,)"
}

// DAG is an append-only arena of interned entries plus chained hash
// tables for each connective that needs structural hash-consing.
// Entries are never removed within a KB's lifetime.
type DAG struct {
	nodes []Node

	andStrash    []z.Entry
	forallStrash []z.Entry
	atLeastStrash []z.Entry
	dataStrash   []z.Entry

	cnames map[string]z.Entry
	inames map[string]z.Entry
}

// New creates an empty DAG, pre-seeded with the reserved TOP entry.
func New() *DAG {
	d := &DAG{
		nodes:  make([]Node, 2, 128),
		cnames: make(map[string]z.Entry),
		inames: make(map[string]z.Entry),
	}
	d.nodes[1] = Node{Kind: KindTop}
	d.initStrash(128)
	return d
}

func (d *DAG) initStrash(cap int) {
	d.andStrash = make([]z.Entry, cap)
	d.forallStrash = make([]z.Entry, cap)
	d.atLeastStrash = make([]z.Entry, cap)
	d.dataStrash = make([]z.Entry, cap)
}

// Len returns the number of entries in the DAG, including TOP.
func (d *DAG) Len() int {
	return len(d.nodes)
}

// Get returns a view of the entry named by bp's Entry, regardless of
// bp's polarity (callers test bp.IsPos() separately).
func (d *DAG) Get(bp z.BP) Node {
	return d.nodes[bp.Entry()]
}

// Negate returns the arithmetic negation of bp. It is O(1): a sign
// flip, never a new DAG entry.
func (d *DAG) Negate(bp z.BP) z.BP {
	return bp.Not()
}

func (d *DAG) newNode(n Node) z.BP {
	id := z.Entry(len(d.nodes))
	d.nodes = append(d.nodes, n)
	return id.Pos()
}

func (d *DAG) grow() {
	newCap := uint32(cap(d.andStrash)) * 2
	if newCap == 0 {
		newCap = 128
	}
	rehash := func(tbl []z.Entry, keyOf func(z.Entry) uint32) []z.Entry {
		out := make([]z.Entry, newCap)
		for i := 1; i < len(d.nodes); i++ {
			n := &d.nodes[i]
			if keyOf(z.Entry(i)) == invalidKey {
				continue
			}
			k := keyOf(z.Entry(i)) % newCap
			n.next = out[k]
			out[k] = z.Entry(i)
		}
		return out
	}
	d.andStrash = rehash(d.andStrash, func(e z.Entry) uint32 {
		n := &d.nodes[e]
		if n.Kind != KindAnd {
			return invalidKey
		}
		return andHash(n.Children)
	})
	d.forallStrash = rehash(d.forallStrash, func(e z.Entry) uint32 {
		n := &d.nodes[e]
		if n.Kind != KindForall {
			return invalidKey
		}
		return forallHash(n.Role, n.Filler)
	})
	d.atLeastStrash = rehash(d.atLeastStrash, func(e z.Entry) uint32 {
		n := &d.nodes[e]
		if n.Kind != KindAtLeast {
			return invalidKey
		}
		return atLeastHash(n.N, n.Role, n.Filler)
	})
	d.dataStrash = rehash(d.dataStrash, func(e z.Entry) uint32 {
		n := &d.nodes[e]
		if n.Kind != KindDataValue && n.Kind != KindDataExpr {
			return invalidKey
		}
		return dataHash(n.Data)
	})
}

const invalidKey = ^uint32(0)

func andHash(children []z.BP) uint32 {
	h := uint32(2166136261)
	for _, c := range children {
		h = (h ^ uint32(c)) * 16777619
	}
	return h
}

func forallHash(role z.Entry, filler z.BP) uint32 {
	return uint32(role)*2654435761 ^ uint32(filler)
}

func atLeastHash(n int, role z.Entry, filler z.BP) uint32 {
	return uint32(n)*40503 ^ uint32(role)*2654435761 ^ uint32(filler)
}

func dataHash(d DataTerm) uint32 {
	h := uint32(2166136261)
	for _, s := range [...]string{d.Datatype, d.Value, d.Facets} {
		for i := 0; i < len(s); i++ {
			h = (h ^ uint32(s[i])) * 16777619
		}
	}
	return h
}

func (d *DAG) String() string {
	return fmt.Sprintf("<dag %d entries>", len(d.nodes))
}
