// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package tableau

import (
	"testing"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/graph"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

func newFixture(t *testing.T) (*dag.DAG, *roles.Box, *graph.Graph) {
	t.Helper()
	d := dag.New()
	rb := roles.NewBox(d)
	return d, rb, graph.New(d)
}

func TestDirectClashUnsat(t *testing.T) {
	d, rb, g := newFixture(t)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	a := d.CName("A")
	root := g.CreateNode(false, graph.NodeNull)
	e.Seed(root, a, depset.New())
	e.Seed(root, a.Not(), depset.New())
	if got := e.Run(); got != Unsat {
		t.Errorf("got %s, want Unsat", got)
	}
}

func TestDisjunctionForcesOtherDisjunct(t *testing.T) {
	d, rb, g := newFixture(t)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	a := d.CName("A")
	b := d.CName("B")
	or := d.Or(a, b)
	root := g.CreateNode(false, graph.NodeNull)
	e.Seed(root, or, depset.New())
	e.Seed(root, a.Not(), depset.New())
	if got := e.Run(); got != Saturated {
		t.Errorf("got %s, want Saturated", got)
	}
	if !g.HasLabel(root, b) {
		t.Errorf("expected B forced onto root after A excluded")
	}
}

func TestGCISubsumptionUnsat(t *testing.T) {
	// A ⊑ B as a global axiom (¬A⊔B everywhere), then assert A⊓¬B on
	// the root: the classic subsumption-as-unsatisfiability encoding.
	d, rb, g := newFixture(t)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	a := d.CName("A")
	b := d.CName("B")
	e.AddGlobalAxiom(d.Or(a.Not(), b))
	root := g.CreateNode(false, graph.NodeNull)
	e.SeedGlobalAxioms(root)
	e.Seed(root, a, depset.New())
	e.Seed(root, b.Not(), depset.New())
	if got := e.Run(); got != Unsat {
		t.Errorf("got %s, want Unsat", got)
	}
}

func TestGCISubsumptionHoldsIsSaturated(t *testing.T) {
	d, rb, g := newFixture(t)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	a := d.CName("A")
	b := d.CName("B")
	e.AddGlobalAxiom(d.Or(a.Not(), b))
	root := g.CreateNode(false, graph.NodeNull)
	e.SeedGlobalAxioms(root)
	e.Seed(root, a, depset.New())
	if got := e.Run(); got != Saturated {
		t.Errorf("got %s, want Saturated", got)
	}
	if !g.HasLabel(root, b) {
		t.Errorf("expected B derived from A under the A⊑B axiom")
	}
}

func TestForallPropagatesAcrossExistsWitness(t *testing.T) {
	d, rb, g := newFixture(t)
	r := rb.AddRole("R")
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	c := d.CName("C")
	ex := d.Exists(z.Entry(r), c)
	forall := d.MkForall(z.Entry(r), c)
	root := g.CreateNode(false, graph.NodeNull)
	e.Seed(root, ex, depset.New())
	e.Seed(root, forall, depset.New())
	if got := e.Run(); got != Saturated {
		t.Errorf("got %s, want Saturated", got)
	}
	succs := e.roleSuccessors(root, z.Entry(r))
	if len(succs) == 0 {
		t.Fatal("expected an R-successor to be created")
	}
	if !g.HasLabel(succs[0], c) {
		t.Errorf("expected C on the R-successor")
	}
}

func TestFunctionalRoleMergesSuccessors(t *testing.T) {
	d, rb, g := newFixture(t)
	r := rb.AddRole("hasParent")
	rb.SetFunctional(r)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	root := g.CreateNode(false, graph.NodeNull)
	b := g.CreateNode(false, root)
	c := g.CreateNode(false, root)
	g.CreateEdge(root, b, z.Entry(r), z.Entry(r), depset.New(), false)
	g.CreateEdge(root, c, z.Entry(r), z.Entry(r), depset.New(), false)
	if _, clashed := e.enforceFunctional(root, z.Entry(r), depset.New()); clashed {
		t.Fatal("unexpected clash merging functional successors")
	}
	succs := e.exactSuccessors(root, z.Entry(r))
	if len(succs) != 1 {
		t.Errorf("got %d distinct successors after functional merge, want 1", len(succs))
	}
}

func TestNominalRuleMergesDuplicateRepresentatives(t *testing.T) {
	d, rb, g := newFixture(t)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	bInd := d.IName("b")
	root := g.CreateNode(false, graph.NodeNull)
	x := g.CreateNode(true, root)
	e.RegisterNominal(bInd.Entry(), root)
	e.Seed(x, bInd, depset.New())
	if got := e.Run(); got != Saturated {
		t.Fatalf("got %s, want Saturated", got)
	}
	if id, ok := g.Node(x).PBlocked(); !ok || id != root {
		t.Errorf("expected x purge-blocked (merged) into root, got %v %v", id, ok)
	}
}

func TestDatatypeIntervalClash(t *testing.T) {
	d, rb, g := newFixture(t)
	age := rb.AddRole("age")
	rb.SetDataRole(age)
	if err := rb.Finalize(); err != nil {
		t.Fatal(err)
	}
	e := New(d, rb, g)
	e.SetKind("integer", datatype.IntegerKind{})
	root := g.CreateNode(false, graph.NodeNull)
	interval := d.MkDataExpr("integer", "[18,)")
	value := d.MkDataValue("integer", "10")
	e.Seed(root, interval, depset.New())
	e.Seed(root, value, depset.New())
	if got := e.Run(); got != Unsat {
		t.Errorf("got %s, want Unsat", got)
	}
}
