// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package z provides the core identifiers shared by every package in
// sroiq: entry ids for the term DAG and role box, and bipolar pointers
// over them.
package z

import "fmt"

// Entry is the id of a DAG entry (concept, individual or role
// expression), independent of polarity. Entry 0 is never issued by an
// interner; it is reserved so that the zero value of Entry is
// recognizable as "no entry".
type Entry uint32

// EntryNull is the distinguished non-entry.
const EntryNull Entry = 0

// Pos returns the bipolar pointer for the positive occurrence of e.
func (e Entry) Pos() BP {
	return BP(e << 1)
}

// Neg returns the bipolar pointer for the negated occurrence of e.
func (e Entry) Neg() BP {
	return BP(e<<1) | 1
}

func (e Entry) String() string {
	return fmt.Sprintf("e%d", uint32(e))
}

// BP is a bipolar pointer: a signed handle identifying a DAG entry
// together with its polarity. The low bit carries polarity (1 means
// negated); the remaining bits are the Entry id. Negation is an xor of
// the low bit, hence O(1).
type BP uint32

// BPNull is a sentinel bipolar pointer that is never dereferenced.
const BPNull BP = 0

const (
	// entryTop is the reserved entry id for the universal concept. It
	// is entry 1 so that BPNull (entry 0) is never confused with TOP.
	entryTop Entry = 1
)

// TOP is the universal concept. BOTTOM is its negation.
var (
	TOP    = entryTop.Pos()
	BOTTOM = entryTop.Neg()
)

// Entry returns the entry this bipolar pointer refers to, stripping
// polarity.
func (m BP) Entry() Entry {
	return Entry(m >> 1)
}

// IsPos reports whether m is a positive occurrence.
func (m BP) IsPos() bool {
	return m&1 == 0
}

// Not returns the arithmetic negation of m: flip polarity, same entry.
// Not(Not(m)) == m for all m, and Not(TOP) == BOTTOM.
func (m BP) Not() BP {
	return m ^ 1
}

// Sign returns 1 for a positive occurrence, -1 for a negated one.
func (m BP) Sign() int {
	if m.IsPos() {
		return 1
	}
	return -1
}

func (m BP) String() string {
	if !m.IsPos() {
		return fmt.Sprintf("-%s", m.Entry())
	}
	return fmt.Sprintf("+%s", m.Entry())
}

// Valid reports whether m is dereferenceable, i.e. not BPNull.
func (m BP) Valid() bool {
	return m != BPNull
}
