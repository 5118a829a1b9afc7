// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package graph

import (
	"testing"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/z"
)

func TestCreateEdgePairsReverse(t *testing.T) {
	g := New(dag.New())
	a := g.CreateNode(false, NodeNull)
	b := g.CreateNode(true, a)
	fwd := g.CreateEdge(a, b, z.Entry(5), z.Entry(6), depset.Single(1), false)

	if g.Edge(fwd).From() != a || g.Edge(fwd).To() != b {
		t.Fatalf("forward edge endpoints wrong")
	}
	found := false
	for _, eid := range g.Node(b).EdgesOut() {
		e := g.Edge(eid)
		if e.To() == a && e.Role() == z.Entry(6) {
			found = true
		}
	}
	if !found {
		t.Errorf("reverse edge b->a labeled with inverse role not found")
	}
}

func TestAddLabelIdempotentAndTightens(t *testing.T) {
	g := New(dag.New())
	n := g.CreateNode(true, NodeNull)
	d := dag.New()
	a := d.CName("A")

	g.AddLabel(n, a, depset.Single(3))
	dep, ok := n0Dep(g, n, a)
	if !ok || dep.Max() != 3 {
		t.Fatalf("expected label with dep {3}, got %v ok=%v", dep.Levels(), ok)
	}

	g.AddLabel(n, a, depset.New())
	dep, ok = n0Dep(g, n, a)
	if !ok || !dep.Empty() {
		t.Errorf("tighter (empty) DepSet should replace the existing one, got %v", dep.Levels())
	}
}

func n0Dep(g *Graph, n NodeID, bp z.BP) (depset.Set, bool) {
	return g.Node(n).LabelDep(bp)
}

func TestMergeRedirectsPredecessors(t *testing.T) {
	g := New(dag.New())
	x := g.CreateNode(false, NodeNull)
	from := g.CreateNode(true, NodeNull)
	to := g.CreateNode(true, NodeNull)
	g.CreateEdge(x, from, z.Entry(1), z.Entry(2), depset.Single(1), false)

	g.Merge(from, to, depset.Single(2))

	redirected := false
	for _, eid := range g.Node(x).EdgesOut() {
		e := g.Edge(eid)
		if e.Valid() && e.To() == to && e.Role() == z.Entry(1) {
			redirected = true
		}
	}
	if !redirected {
		t.Errorf("expected predecessor edge x->from redirected to x->to")
	}
	if _, blocked := g.Node(from).PBlocked(); !blocked {
		t.Errorf("from should be purge-blocked after merge")
	}
}

func TestDirectBlocking(t *testing.T) {
	g := New(dag.New())
	d := dag.New()
	a := d.CName("A")

	root := g.CreateNode(false, NodeNull)
	c1 := g.CreateNode(true, root)
	c2 := g.CreateNode(true, c1)

	g.AddLabel(c1, a, depset.New())
	g.AddLabel(c2, a, depset.New())

	g.RecomputeDirectBlock(c2)
	blocker, blocked := g.DirectlyBlocked(c2)
	if !blocked || blocker != c1 {
		t.Fatalf("c2 should be directly blocked by c1, got blocker=%v blocked=%v", blocker, blocked)
	}
}

func TestIndirectBlocking(t *testing.T) {
	g := New(dag.New())
	d := dag.New()
	a := d.CName("A")

	root := g.CreateNode(false, NodeNull)
	c1 := g.CreateNode(true, root)
	c2 := g.CreateNode(true, c1)
	c3 := g.CreateNode(true, c2)

	g.AddLabel(c1, a, depset.New())
	g.AddLabel(c2, a, depset.New())
	g.RecomputeDirectBlock(c2)

	if !g.IndirectlyBlocked(c3) {
		t.Errorf("c3 should be indirectly blocked through its blocked ancestor c2")
	}
}

func TestSaveRestoreTruncatesArena(t *testing.T) {
	g := New(dag.New())
	root := g.CreateNode(false, NodeNull)

	level := g.Save()
	child := g.CreateNode(true, root)
	_ = child
	if g.NumNodes() != 3 {
		t.Fatalf("expected 3 nodes (null + root + child), got %d", g.NumNodes())
	}

	g.Restore(level - 1)
	if g.NumNodes() != 2 {
		t.Errorf("restore should truncate the child created after Save, got %d nodes", g.NumNodes())
	}
}

func TestRestoreRemovesBranchLocalLabels(t *testing.T) {
	g := New(dag.New())
	n := g.CreateNode(true, NodeNull)
	d := dag.New()
	a := d.CName("A")
	b := d.CName("B")

	g.AddLabel(n, a, depset.New())
	level := g.Save()
	g.AddLabel(n, b, depset.Single(level))

	g.Restore(level - 1)

	depA, ok := n0Dep(g, n, a)
	if !ok || !depA.Empty() {
		t.Errorf("an unconditional label should be unaffected by restore, got %v ok=%v", depA.Levels(), ok)
	}
	if g.HasLabel(n, b) {
		// trimming the DepSet instead would leave B behind as a
		// permanent unconditional fact of the abandoned branch.
		t.Errorf("a label justified only by the purged level must be removed, not kept with a trimmed DepSet")
	}
}

func TestRestoreRemovesBranchLocalNeqs(t *testing.T) {
	g := New(dag.New())
	a := g.CreateNode(true, NodeNull)
	b := g.CreateNode(true, NodeNull)

	level := g.Save()
	g.AddNeq(a, b, depset.Single(level))
	if _, ok := g.Neq(a, b); !ok {
		t.Fatal("inequality not recorded")
	}

	g.Restore(level - 1)
	if _, ok := g.Neq(a, b); ok {
		t.Errorf("an inequality justified only by the purged level must be removed")
	}
	if _, ok := g.Neq(b, a); ok {
		t.Errorf("the reciprocal inequality entry must be removed too")
	}
}

// TestRestoreUndoesMerge brackets a Merge of two pre-existing nodes
// between Save and Restore and checks the graph comes back equal to
// its pre-save state: edge endpoints, validity, purge-block marks and
// inequalities all revert.
func TestRestoreUndoesMerge(t *testing.T) {
	g := New(dag.New())
	d := dag.New()
	c := d.CName("C")

	x := g.CreateNode(false, NodeNull)
	from := g.CreateNode(true, NodeNull)
	to := g.CreateNode(true, NodeNull)
	other := g.CreateNode(true, NodeNull)
	eid := g.CreateEdge(x, from, z.Entry(1), z.Entry(2), depset.New(), false)
	g.AddLabel(from, c, depset.New())
	g.AddNeq(from, other, depset.New())

	level := g.Save()
	g.Merge(from, to, depset.Single(level))

	// sanity: the merge really mutated pre-existing state.
	if g.Edge(eid).To() != to {
		t.Fatal("merge should have redirected x->from to x->to")
	}
	if _, blocked := g.Node(from).PBlocked(); !blocked {
		t.Fatal("merge should have purge-blocked from")
	}
	if _, ok := g.Neq(other, to); !ok {
		t.Fatal("merge should have rewritten the reciprocal inequality onto to")
	}

	g.Restore(level - 1)

	if e := g.Edge(eid); e.To() != from || !e.Valid() {
		t.Errorf("restore must revert the redirected edge: to=%v valid=%v", e.To(), e.Valid())
	}
	if _, blocked := g.Node(from).PBlocked(); blocked {
		t.Errorf("restore must clear the purge-block on from")
	}
	if edgeListHas(g, to, eid, true) {
		t.Errorf("restore must remove the redirected edge from to's incoming list")
	}
	if _, ok := g.Neq(other, to); ok {
		t.Errorf("restore must remove the inequality rewritten onto to")
	}
	if dep, ok := g.Neq(from, other); !ok || !dep.Empty() {
		t.Errorf("the pre-existing inequality on from must survive restore, got ok=%v dep=%v", ok, dep)
	}
	if !g.HasLabel(from, c) {
		t.Errorf("from's pre-existing label must survive restore")
	}
}

func edgeListHas(g *Graph, n NodeID, e EdgeID, in bool) bool {
	ids := g.Node(n).EdgesOut()
	if in {
		ids = g.Node(n).EdgesIn()
	}
	for _, id := range ids {
		if id == e {
			return true
		}
	}
	return false
}

func TestMergeKeepsNeqSymmetric(t *testing.T) {
	g := New(dag.New())
	from := g.CreateNode(true, NodeNull)
	to := g.CreateNode(true, NodeNull)
	other := g.CreateNode(true, NodeNull)
	g.AddNeq(from, other, depset.Single(1))

	g.Merge(from, to, depset.Single(2))

	if _, ok := g.Neq(to, other); !ok {
		t.Errorf("to should have inherited from's inequality")
	}
	if _, ok := g.Neq(other, to); !ok {
		t.Errorf("the reciprocal entry on other must point at to, not only at from")
	}
}
