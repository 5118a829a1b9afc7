// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package roles

import (
	"testing"

	"github.com/go-air/sroiq/dag"
)

func TestBitsetSetTest(t *testing.T) {
	b := newBitset(8)
	b.Set(3)
	b.Set(70)
	if !b.Test(3) || !b.Test(70) {
		t.Errorf("expected bits 3 and 70 set")
	}
	if b.Test(4) {
		t.Errorf("bit 4 should not be set")
	}
}

func TestBitsetOr(t *testing.T) {
	a := newBitset(8)
	a.Set(1)
	b := newBitset(8)
	b.Set(2)
	a.Or(b)
	if !a.Test(1) || !a.Test(2) {
		t.Errorf("Or should union bits")
	}
}

func TestBitsetBits(t *testing.T) {
	b := newBitset(8)
	b.Set(2)
	b.Set(5)
	got := b.Bits()
	if len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Errorf("Bits() = %v, want [2 5]", got)
	}
}

func TestAddRoleIdempotent(t *testing.T) {
	box := NewBox(dag.New())
	r1 := box.AddRole("hasChild")
	r2 := box.AddRole("hasChild")
	if r1 != r2 {
		t.Errorf("AddRole not idempotent by name")
	}
}

func TestSubRoleClosure(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("hasChild")
	s := box.AddRole("hasDescendant")
	top := box.AddRole("hasRelative")
	box.AddSubRole(r, s)
	box.AddSubRole(s, top)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !box.IsSubRoleOf(r, top) {
		t.Errorf("hasChild should transitively be a sub-role of hasRelative")
	}
	if box.IsSubRoleOf(top, r) {
		t.Errorf("hasRelative should not be a sub-role of hasChild")
	}
}

func TestSimplicity(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("ancestor")
	s := box.AddRole("parent")
	box.SetTransitive(r)
	box.AddSubRole(s, r)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if box.Role(r).Simple {
		t.Errorf("transitive role should not be simple")
	}
	if !box.Role(s).Simple {
		t.Errorf("parent has no transitive sub-role, so it should be simple")
	}
}

func TestTopFunctional(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("hasParent")
	s := box.AddRole("hasFather")
	box.SetFunctional(r)
	box.SetFunctional(s)
	box.AddSubRole(s, r)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !box.Role(r).TopFunctional {
		t.Errorf("hasParent has no functional ancestor, should be top-functional")
	}
	if box.Role(s).TopFunctional {
		t.Errorf("hasFather has a functional ancestor, should not be top-functional")
	}
}

func TestDisjointPropagation(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("hasChild")
	s := box.AddRole("hasSpouse")
	sub := box.AddRole("hasSon")
	box.AddSubRole(sub, r)
	box.AddDisjoint(r, s)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !box.Disjoint(sub, s) {
		t.Errorf("disjointness should propagate to descendants")
	}
}

func TestDisjointOverlapError(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("r")
	s := box.AddRole("s")
	common := box.AddRole("common")
	box.AddSubRole(common, r)
	box.AddSubRole(common, s)
	box.AddDisjoint(r, s)
	err := box.Finalize()
	if err == nil {
		t.Fatalf("expected DisjointOverlapError")
	}
	if _, ok := err.(*DisjointOverlapError); !ok {
		t.Errorf("expected *DisjointOverlapError, got %T: %v", err, err)
	}
}

func TestDataRoleTransitiveError(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("hasValue")
	box.SetDataRole(r)
	box.SetTransitive(r)
	err := box.Finalize()
	if _, ok := err.(*DataRoleTransitiveError); !ok {
		t.Errorf("expected *DataRoleTransitiveError, got %T: %v", err, err)
	}
}

func TestCycleMergeUnionsFeatures(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("r")
	s := box.AddRole("s")
	box.AddSubRole(r, s)
	box.AddSubRole(s, r)
	box.SetTransitive(r)
	box.SetReflexive(s)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	rep := box.Role(r).Named.Resolve()
	repRole := box.Role(ID(rep.ID))
	if !repRole.Transitive || !repRole.Reflexive {
		t.Errorf("merged cycle representative should carry union of features")
	}
}

func TestInverseAndRange(t *testing.T) {
	d := dag.New()
	box := NewBox(d)
	r := box.AddRole("hasChild")
	s := box.AddRole("hasParent")
	box.SetInverse(r, s)
	parent := d.CName("Parent")
	child := d.CName("Child")
	box.SetDomain(r, parent)
	box.SetDomain(s, child)
	if box.Range(r) != child {
		t.Errorf("Range(hasChild) should be Domain(hasParent)")
	}
}

func TestRoleAutomatonComposition(t *testing.T) {
	box := NewBox(dag.New())
	hasPart := box.AddRole("hasPart")
	hasLocation := box.AddRole("hasLocation")
	locatedIn := box.AddRole("locatedIn")
	box.AddComposition([]ID{hasPart, hasLocation}, locatedIn)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	a := box.Role(locatedIn).automaton
	states := a.Initial()
	states = a.Step(states, hasPart, box.IsSubRoleOf)
	if a.Accepts(states) {
		t.Errorf("should not accept after only the first chain element")
	}
	states = a.Step(states, hasLocation, box.IsSubRoleOf)
	if !a.Accepts(states) {
		t.Errorf("should accept after the full chain hasPart.hasLocation")
	}
}

func TestInverseSubRoleMirrored(t *testing.T) {
	box := NewBox(dag.New())
	hasChild := box.AddRole("hasChild")
	hasDescendant := box.AddRole("hasDescendant")
	hasParent := box.AddRole("hasParent")
	hasAncestor := box.AddRole("hasAncestor")
	box.SetInverse(hasChild, hasParent)
	box.SetInverse(hasDescendant, hasAncestor)
	box.AddSubRole(hasChild, hasDescendant)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !box.IsSubRoleOf(hasParent, hasAncestor) {
		t.Errorf("hasParent should be a sub-role of hasAncestor, mirrored from hasChild <= hasDescendant")
	}
}

func TestRoleAutomatonTransitiveSelfLoop(t *testing.T) {
	box := NewBox(dag.New())
	r := box.AddRole("ancestor")
	box.SetTransitive(r)
	if err := box.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	a := box.Role(r).automaton
	states := a.Initial()
	states = a.Step(states, r, box.IsSubRoleOf)
	states = a.Step(states, r, box.IsSubRoleOf)
	if !a.Accepts(states) {
		t.Errorf("transitive role automaton should accept r.r")
	}
}
