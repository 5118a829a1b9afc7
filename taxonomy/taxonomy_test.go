// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package taxonomy

import (
	"testing"

	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/z"
)

// buildTester turns a told-subsumer map into a Tester by taking its
// reflexive-transitive closure, plus the universal cases (everything
// subsumed by Top, Bottom subsumes nothing but is subsumed by all):
// a stand-in for the KB facade's real tester, which asks a fresh
// tableau run whether c ⊓ ¬d is unsatisfiable.
func buildTester(told map[z.BP][]z.BP) Tester {
	memo := make(map[[2]z.BP]bool)
	var sub func(c, d z.BP) bool
	sub = func(c, d z.BP) bool {
		if c == d {
			return true
		}
		if d == z.TOP {
			return true
		}
		if c == z.BOTTOM {
			return true
		}
		key := [2]z.BP{c, d}
		if v, ok := memo[key]; ok {
			return v
		}
		memo[key] = false
		res := false
		for _, s := range told[c] {
			if sub(s, d) {
				res = true
				break
			}
		}
		memo[key] = res
		return res
	}
	return sub
}

func namedWithBP(name string, id int32, bp z.BP) *entity.Named {
	n := entity.New(name, id)
	n.BP = bp
	return n
}

func TestSubsumptionChainParents(t *testing.T) {
	top := namedWithBP("TOP", -1, z.TOP)
	bottom := namedWithBP("BOTTOM", -2, z.BOTTOM)
	a := namedWithBP("A", 1, z.Entry(10).Pos())
	b := namedWithBP("B", 2, z.Entry(11).Pos())
	c := namedWithBP("C", 3, z.Entry(12).Pos())

	a.ToldSubsumers = []z.BP{b.BP}
	b.ToldSubsumers = []z.BP{c.BP}

	told := map[z.BP][]z.BP{
		a.BP: a.ToldSubsumers,
		b.BP: b.ToldSubsumers,
	}
	byBP := map[z.BP]*entity.Named{
		top.BP: top, bottom.BP: bottom, a.BP: a, b.BP: b, c.BP: c,
	}
	resolve := func(bp z.BP) *entity.Named { return byBP[bp] }

	tx := New(top, bottom, buildTester(told), resolve)
	tx.Classify(c)
	tx.Classify(b)
	tx.Classify(a)

	parents := tx.VertexOf(a).Parents()
	if len(parents) != 1 || parents[0].Primer != b {
		t.Fatalf("got %d parents of A, want exactly [B]", len(parents))
	}

	bParents := tx.VertexOf(b).Parents()
	if len(bParents) != 1 || bParents[0].Primer != c {
		t.Fatalf("got %d parents of B, want exactly [C]", len(bParents))
	}

	// A's indirect subsumer C must not appear as a direct parent: the
	// taxonomy is transitively reduced.
	for _, p := range parents {
		if p.Primer == c {
			t.Errorf("A's parent set should not include C directly, only B")
		}
	}
}

func TestCyclicToldSubsumersShareOneVertex(t *testing.T) {
	top := namedWithBP("TOP", -1, z.TOP)
	bottom := namedWithBP("BOTTOM", -2, z.BOTTOM)
	d := namedWithBP("D", 1, z.Entry(20).Pos())
	e := namedWithBP("E", 2, z.Entry(21).Pos())

	d.ToldSubsumers = []z.BP{e.BP}
	e.ToldSubsumers = []z.BP{d.BP}

	told := map[z.BP][]z.BP{
		d.BP: d.ToldSubsumers,
		e.BP: e.ToldSubsumers,
	}
	byBP := map[z.BP]*entity.Named{
		top.BP: top, bottom.BP: bottom, d.BP: d, e.BP: e,
	}
	resolve := func(bp z.BP) *entity.Named { return byBP[bp] }

	tx := New(top, bottom, buildTester(told), resolve)
	tx.Classify(d)

	if d.Resolve() != e.Resolve() {
		t.Fatalf("D and E should have collapsed into one synonym class")
	}
	if tx.VertexOf(d) != tx.VertexOf(e) {
		t.Errorf("D and E should resolve to the same taxonomy vertex")
	}
	if tx.VertexOf(d) == tx.Top || tx.VertexOf(d) == tx.Bottom {
		t.Errorf("the merged D/E vertex should be distinct from Top and Bottom")
	}
}

func TestCompletelyDefinedShortcutSkipsRedundantParent(t *testing.T) {
	// F is completely defined as B ⊓ C, with B ⊑ C already told: C is
	// redundant as a direct parent of F since F's other told subsumer
	// B is already C's child.
	top := namedWithBP("TOP", -1, z.TOP)
	bottom := namedWithBP("BOTTOM", -2, z.BOTTOM)
	b := namedWithBP("B", 1, z.Entry(30).Pos())
	c := namedWithBP("C", 2, z.Entry(31).Pos())
	f := namedWithBP("F", 3, z.Entry(32).Pos())

	b.ToldSubsumers = []z.BP{c.BP}
	f.ToldSubsumers = []z.BP{b.BP, c.BP}
	f.CompletelyDefined = true

	told := map[z.BP][]z.BP{
		b.BP: b.ToldSubsumers,
		f.BP: f.ToldSubsumers,
	}
	byBP := map[z.BP]*entity.Named{
		top.BP: top, bottom.BP: bottom, b.BP: b, c.BP: c, f.BP: f,
	}
	resolve := func(bp z.BP) *entity.Named { return byBP[bp] }

	tx := New(top, bottom, buildTester(told), resolve)
	tx.Classify(c)
	tx.Classify(b)
	tx.Classify(f)

	parents := tx.VertexOf(f).Parents()
	if len(parents) != 1 || parents[0].Primer != b {
		t.Fatalf("got %d parents of F, want exactly [B] (C is redundant)", len(parents))
	}
}
