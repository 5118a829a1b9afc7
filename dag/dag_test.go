// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dag

import (
	"testing"

	"github.com/go-air/sroiq/z"
)

func TestInternCNameIdempotent(t *testing.T) {
	d := New()
	a := d.CName("A")
	b := d.CName("A")
	if a != b {
		t.Errorf("CName(A) not idempotent: %s != %s", a, b)
	}
	c := d.CName("B")
	if a == c {
		t.Errorf("distinct names interned to same entry")
	}
}

func TestMkAndFlattenDedup(t *testing.T) {
	d := New()
	a := d.CName("A")
	b := d.CName("B")
	c := d.CName("C")

	ab := d.MkAnd(a, b)
	abc1 := d.MkAnd(ab, c)
	abc2 := d.MkAnd(a, b, c)
	if abc1 != abc2 {
		t.Errorf("nested And not flattened to same entry: %s != %s", abc1, abc2)
	}

	dup := d.MkAnd(a, a, b, c)
	if dup != abc2 {
		t.Errorf("duplicate conjuncts not collapsed: %s != %s", dup, abc2)
	}
}

func TestMkAndAbsorbsTop(t *testing.T) {
	d := New()
	a := d.CName("A")
	got := d.MkAnd(a, z.TOP)
	if got != a {
		t.Errorf("And(A, Top) should simplify to A, got %s", got)
	}
}

func TestMkAndComplementClash(t *testing.T) {
	d := New()
	a := d.CName("A")
	got := d.MkAnd(a, a.Not())
	if got != z.BOTTOM {
		t.Errorf("And(A, Not A) should be Bottom, got %s", got)
	}
}

func TestMkAndEmptyIsTop(t *testing.T) {
	d := New()
	if d.MkAnd() != z.TOP {
		t.Errorf("And() should be Top")
	}
}

func TestMkForallInterning(t *testing.T) {
	d := New()
	a := d.CName("A")
	r := z.Entry(7)
	f1 := d.MkForall(r, a)
	f2 := d.MkForall(r, a)
	if f1 != f2 {
		t.Errorf("Forall not interned: %s != %s", f1, f2)
	}
}

func TestMkGEZeroIsTop(t *testing.T) {
	d := New()
	a := d.CName("A")
	if d.MkGE(0, z.Entry(3), a) != z.TOP {
		t.Errorf("AtLeast(0,...) should be Top")
	}
}

func TestExistsDerivedFromForall(t *testing.T) {
	d := New()
	a := d.CName("A")
	r := z.Entry(5)
	exists := d.Exists(r, a)
	want := d.MkForall(r, a.Not()).Not()
	if exists != want {
		t.Errorf("Exists R.C != Not(Forall(R, Not C))")
	}
}

func TestAtMostZeroIsForallNot(t *testing.T) {
	d := New()
	a := d.CName("A")
	r := z.Entry(5)
	am := d.AtMost(0, r, a)
	want := d.MkForall(r, a.Not())
	if am != want {
		t.Errorf("AtMost(0,R,C) != Forall(R, Not C)")
	}
}

func TestOrIsNegatedAndOfNegations(t *testing.T) {
	d := New()
	a := d.CName("A")
	b := d.CName("B")
	or := d.Or(a, b)
	want := d.MkAnd(a.Not(), b.Not()).Not()
	if or != want {
		t.Errorf("Or(A,B) != Not(And(Not A, Not B))")
	}
}

func TestNegateInvolutive(t *testing.T) {
	d := New()
	a := d.CName("A")
	if d.MkNot(d.MkNot(a)) != a {
		t.Errorf("MkNot not involutive")
	}
}

func TestDataValueInterning(t *testing.T) {
	d := New()
	v1 := d.MkDataValue("integer", "10")
	v2 := d.MkDataValue("integer", "10")
	v3 := d.MkDataValue("integer", "11")
	if v1 != v2 {
		t.Errorf("same data value not interned identically")
	}
	if v1 == v3 {
		t.Errorf("distinct data values interned identically")
	}
}

func TestGrowPreservesLookups(t *testing.T) {
	d := New()
	names := make([]z.BP, 0, 300)
	for i := 0; i < 300; i++ {
		names = append(names, d.CName(string(rune('a'+i%26))+string(rune('A'+i%17))))
	}
	ands := make([]z.BP, 0, 300)
	for i := 0; i+1 < len(names); i += 2 {
		ands = append(ands, d.MkAnd(names[i], names[i+1]))
	}
	for i := 0; i+1 < len(names); i += 2 {
		got := d.MkAnd(names[i], names[i+1])
		if got != ands[i/2] {
			t.Fatalf("lookup after grow changed identity at %d", i)
		}
	}
}

func TestMarkFunctional(t *testing.T) {
	d := New()
	r := z.Entry(9)
	bp := d.MarkFunctional(r)
	if !d.Get(bp).Functional {
		t.Errorf("MarkFunctional should set Functional flag")
	}
	if d.Get(bp).Filler != z.TOP {
		t.Errorf("functional marker should be Forall(r, Top)")
	}
}
