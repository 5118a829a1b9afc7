// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package datatype

import (
	"testing"

	"github.com/go-air/sroiq/depset"
)

func TestPositiveValueNarrowsInterval(t *testing.T) {
	a := NewAppearance(IntegerKind{})
	v, _ := IntegerKind{}.Parse("10")
	c, clash := a.AddValue(v, depset.Single(1), true)
	if clash {
		t.Fatalf("unexpected clash: %v", c)
	}
	if !a.PType {
		t.Errorf("PType should be set after a positive value")
	}
	if !a.Interval.Min.Value.Equal(v) || !a.Interval.Max.Value.Equal(v) {
		t.Errorf("interval should narrow to the singleton value")
	}
}

func TestPositiveAndNegativePresenceClashes(t *testing.T) {
	a := NewAppearance(IntegerKind{})
	v, _ := IntegerKind{}.Parse("10")
	a.AddValue(v, depset.Single(1), true)
	c, clash := a.AddValue(v, depset.Single(2), false)
	if !clash {
		t.Fatalf("expected PType+NType clash")
	}
	if c.Set.Max() != 2 {
		t.Errorf("clash set should include both contributing levels, got %v", c.Set.Levels())
	}
}

func TestIntervalIntersectionEmptyClashes(t *testing.T) {
	a := NewAppearance(IntegerKind{})
	ten, _ := IntegerKind{}.Parse("10")
	five, _ := IntegerKind{}.Parse("5")
	// age >= 10
	a.AddInterval(Interval{Min: &Bound{Value: ten, Inclusive: true}}, depset.Single(1), true)
	// age <= 5
	c, clash := a.AddInterval(Interval{Max: &Bound{Value: five, Inclusive: true}}, depset.Single(2), true)
	if !clash {
		t.Fatalf("expected empty-interval clash, got none: %+v", c)
	}
}

func TestIntervalIntersectionNonEmptyNoClash(t *testing.T) {
	a := NewAppearance(IntegerKind{})
	ten, _ := IntegerKind{}.Parse("10")
	twenty, _ := IntegerKind{}.Parse("20")
	_, clash := a.AddInterval(Interval{Min: &Bound{Value: ten, Inclusive: true}}, depset.Single(1), true)
	if clash {
		t.Fatalf("unexpected clash on first bound")
	}
	_, clash = a.AddInterval(Interval{Max: &Bound{Value: twenty, Inclusive: true}}, depset.Single(2), true)
	if clash {
		t.Fatalf("unexpected clash narrowing [10,20]")
	}
}

func TestEnumerableCoveredByNegValuesClashes(t *testing.T) {
	k := NewStringEnumKind("color", "red", "green", "blue")
	a := NewAppearance(k)
	red, _ := k.Parse("red")
	green, _ := k.Parse("green")
	blue, _ := k.Parse("blue")
	// interval spanning the whole domain, no narrowing
	a.Interval = Interval{Min: &Bound{Value: k.Domain()[0], Inclusive: true}, Max: &Bound{Value: k.Domain()[len(k.Domain())-1], Inclusive: true}}
	a.AddValue(red, depset.Single(1), false)
	a.AddValue(green, depset.Single(2), false)
	c, clash := a.AddValue(blue, depset.Single(3), false)
	if !clash {
		t.Fatalf("expected full coverage by negated values to clash, got %+v", c)
	}
}

func TestCrossDatatypeIncomparablePresenceClashes(t *testing.T) {
	a := NewAppearance(IntegerKind{})
	b := NewAppearance(NewStringEnumKind("color", "red", "green"))
	a.PType, a.PTypeDep = true, depset.Single(1)
	b.PType, b.PTypeDep = true, depset.Single(2)
	_, clash := CheckCross(a, b)
	if !clash {
		t.Errorf("expected incomparable cross-datatype clash")
	}
}

func TestClearResetsState(t *testing.T) {
	a := NewAppearance(IntegerKind{})
	v, _ := IntegerKind{}.Parse("10")
	a.AddValue(v, depset.Single(1), true)
	a.Clear()
	if a.PType || a.NType || a.Interval.Min != nil || len(a.NegValues) != 0 {
		t.Errorf("Clear should reset all appearance state")
	}
}

func TestDecimalKindParse(t *testing.T) {
	d := DecimalKind{}
	v, err := d.Parse("3.25")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.String() != "3.25" {
		t.Errorf("got %s, want 3.25", v.String())
	}
}

func TestStringEnumKindRejectsUnknownValue(t *testing.T) {
	k := NewStringEnumKind("color", "red", "green")
	if _, err := k.Parse("purple"); err == nil {
		t.Errorf("expected error for value outside enumeration")
	}
}
