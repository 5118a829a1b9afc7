// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package depset

import "testing"

func TestUnionSorted(t *testing.T) {
	a := Union(Single(3), Single(1))
	b := Union(a, Single(2))
	want := []int{1, 2, 3}
	got := b.Levels()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("levels[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestUnionDedup(t *testing.T) {
	a := Union(Single(5), Single(5))
	if len(a.Levels()) != 1 {
		t.Errorf("union should dedup equal levels, got %v", a.Levels())
	}
}

func TestMaxEmpty(t *testing.T) {
	if New().Max() != 0 {
		t.Errorf("Max of empty set should be 0")
	}
}

func TestMaxIsBacktrackTarget(t *testing.T) {
	d := Union(Single(2), Union(Single(7), Single(4)))
	if d.Max() != 7 {
		t.Errorf("Max() = %d, want 7", d.Max())
	}
}

func TestDelete(t *testing.T) {
	d := Union(Single(1), Union(Single(2), Single(3)))
	d = d.Delete(2)
	for _, l := range d.Levels() {
		if l == 2 {
			t.Errorf("level 2 should have been deleted: %v", d.Levels())
		}
	}
	if len(d.Levels()) != 2 {
		t.Errorf("expected 2 levels left, got %v", d.Levels())
	}
}

func TestDropAbove(t *testing.T) {
	d := Union(Single(1), Union(Single(5), Single(9)))
	d = d.DropAbove(5)
	want := []int{1, 5}
	got := d.Levels()
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("levels[%d] = %d want %d", i, got[i], want[i])
		}
	}
}

func TestSubset(t *testing.T) {
	a := Single(1)
	b := Union(Single(1), Single(2))
	if !a.Subset(b) {
		t.Errorf("{1} should be subset of {1,2}")
	}
	if b.Subset(a) {
		t.Errorf("{1,2} should not be subset of {1}")
	}
}

func TestActive(t *testing.T) {
	d := Union(Single(2), Single(5))
	if d.Active(4) {
		t.Errorf("set containing 5 should not be active at level 4")
	}
	if !d.Active(5) {
		t.Errorf("set containing only <=5 should be active at level 5")
	}
}
