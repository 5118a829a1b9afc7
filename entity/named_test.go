// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package entity

import "testing"

func TestPrimaryInitially(t *testing.T) {
	n := New("A", 1)
	if !n.Primary() {
		t.Errorf("fresh entry should be primary")
	}
	if n.Resolve() != n {
		t.Errorf("fresh entry should resolve to itself")
	}
}

func TestMakeSynonymOf(t *testing.T) {
	a := New("A", 1)
	b := New("B", 2)
	b.MakeSynonymOf(a)
	if b.Primary() {
		t.Errorf("B should no longer be primary")
	}
	if b.Resolve() != a {
		t.Errorf("B should resolve to A")
	}
}

func TestSynonymChainCollapses(t *testing.T) {
	a := New("A", 1)
	b := New("B", 2)
	c := New("C", 3)
	b.MakeSynonymOf(a)
	c.MakeSynonymOf(b)
	if c.Resolve() != a {
		t.Errorf("C should transitively resolve to A, got %v", c.Resolve().Name)
	}
	if b.Resolve() != a {
		t.Errorf("B should still resolve to A")
	}
}

func TestMakeSynonymOfIdempotent(t *testing.T) {
	a := New("A", 1)
	b := New("B", 2)
	b.MakeSynonymOf(a)
	b.MakeSynonymOf(a)
	if b.Resolve() != a {
		t.Errorf("repeated MakeSynonymOf should be a no-op past the first call")
	}
}

func TestCycleMergesToSingleRepresentative(t *testing.T) {
	a := New("A", 1)
	b := New("B", 2)
	// A <= B <= A: merge both directions, simulating a told-subsumer
	// cycle collapse.
	a.MakeSynonymOf(b)
	b.MakeSynonymOf(a)
	if a.Resolve() != b.Resolve() {
		t.Errorf("cyclic synonyms should share one representative")
	}
}
