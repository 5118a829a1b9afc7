// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package datatype

import "github.com/go-air/sroiq/depset"

// Bound is one edge of an interval, with the dependency set that
// justifies it (so a clash computed from it can be traced back to the
// branching choices that produced it).
type Bound struct {
	Value     Value
	Inclusive bool
	Dep       depset.Set
}

// Interval is a closed, open or half-open range over a Kind's values.
// A nil Min or Max means unbounded on that side.
type Interval struct {
	Min *Bound
	Max *Bound
}

// empty reports whether the interval can contain no value.
func (iv Interval) empty() bool {
	if iv.Min == nil || iv.Max == nil {
		return false
	}
	if iv.Min.Value.Less(iv.Max.Value) {
		return false
	}
	if iv.Min.Value.Equal(iv.Max.Value) {
		return !(iv.Min.Inclusive && iv.Max.Inclusive)
	}
	return true
}

// contains reports whether iv contains v.
func (iv Interval) contains(v Value) bool {
	if iv.Min != nil {
		if v.Less(iv.Min.Value) {
			return false
		}
		if v.Equal(iv.Min.Value) && !iv.Min.Inclusive {
			return false
		}
	}
	if iv.Max != nil {
		if iv.Max.Value.Less(v) {
			return false
		}
		if v.Equal(iv.Max.Value) && !iv.Max.Inclusive {
			return false
		}
	}
	return true
}

// NegValue is a negated singleton value with its justifying DepSet.
type NegValue struct {
	Value Value
	Dep   depset.Set
}

// Appearance is the per-(node,datatype) constraint state: positive/
// negative presence, the current (conjunctively narrowed) interval,
// and excluded singleton values.
type Appearance struct {
	Kind Kind

	PType    bool
	PTypeDep depset.Set

	NType    bool
	NTypeDep depset.Set

	// Interval is the current positive constraint, narrowed by every
	// positive value or interval entry seen so far. It starts
	// unbounded (Min == Max == nil).
	Interval Interval

	NegValues []NegValue
}

// NewAppearance creates an empty appearance for kind.
func NewAppearance(kind Kind) *Appearance {
	return &Appearance{Kind: kind}
}

// Clash is returned by the Add* methods and Check when the
// appearance's state is contradictory; Set is the union of every
// DepSet that contributed to the contradiction.
type Clash struct {
	Reason string
	Set    depset.Set
}

// AddValue dispatches a single datatype value entry: positive sets
// PType and narrows Interval to the singleton {v}; negative records a
// NegValue.
func (a *Appearance) AddValue(v Value, dep depset.Set, positive bool) (*Clash, bool) {
	if positive {
		a.PType = true
		a.PTypeDep = depset.Union(a.PTypeDep, dep)
		b := &Bound{Value: v, Inclusive: true, Dep: dep}
		a.Interval = Interval{Min: b, Max: b}
	} else {
		a.NType = true
		a.NTypeDep = depset.Union(a.NTypeDep, dep)
		a.NegValues = append(a.NegValues, NegValue{Value: v, Dep: dep})
	}
	return a.Check()
}

// AddInterval dispatches an interval (facet) entry: a positive
// interval intersects with the current Interval; a negative interval
// is recorded by excluding every domain value it covers, for
// enumerable kinds. For non-enumerable kinds a negative interval has
// no finite value expansion, so it is conservatively ignored — the
// enumerable-coverage clash only ever applies to enumerable types, and
// the other clash conditions do not need negative-interval bookkeeping
// for continuous kinds.
func (a *Appearance) AddInterval(iv Interval, dep depset.Set, positive bool) (*Clash, bool) {
	if positive {
		a.PType = true
		a.PTypeDep = depset.Union(a.PTypeDep, dep)
		a.Interval = intersect(a.Interval, iv, dep)

	} else {
		a.NType = true
		a.NTypeDep = depset.Union(a.NTypeDep, dep)
		if a.Kind.Enumerable() {
			for _, v := range a.Kind.Domain() {
				if iv.contains(v) {
					a.NegValues = append(a.NegValues, NegValue{Value: v, Dep: dep})
				}
			}
		}
	}
	return a.Check()
}

// intersect narrows cur with iv, keeping whichever Min bound is
// higher and whichever Max bound is lower; the surviving bound's
// DepSet is unioned with dep (the entry-level dependency set) so a
// later clash traces back to every entry that contributed to the
// narrowing.
func intersect(cur, iv Interval, dep depset.Set) Interval {
	out := cur
	if iv.Min != nil && (out.Min == nil || out.Min.Value.Less(iv.Min.Value)) {
		out.Min = &Bound{Value: iv.Min.Value, Inclusive: iv.Min.Inclusive, Dep: depset.Union(iv.Min.Dep, dep)}
	} else if iv.Min != nil && out.Min != nil {
		out.Min.Dep = depset.Union(out.Min.Dep, dep)
	}
	if iv.Max != nil && (out.Max == nil || iv.Max.Value.Less(out.Max.Value)) {
		out.Max = &Bound{Value: iv.Max.Value, Inclusive: iv.Max.Inclusive, Dep: depset.Union(iv.Max.Dep, dep)}
	} else if iv.Max != nil && out.Max != nil {
		out.Max.Dep = depset.Union(out.Max.Dep, dep)
	}
	return out
}

// Check evaluates clash conditions 1, 3 and 4 against this
// appearance's current state (condition 2, cross-datatype presence
// conflicts, is evaluated across two appearances by CheckCross since
// it is not local to one Appearance).
func (a *Appearance) Check() (*Clash, bool) {
	if a.PType && a.NType {
		return &Clash{Reason: "positive and negative datatype presence", Set: depset.Union(a.PTypeDep, a.NTypeDep)}, true
	}
	if a.Interval.Min != nil && a.Interval.Max != nil && a.Interval.empty() {
		return &Clash{Reason: "empty datatype interval", Set: depset.Union(a.Interval.Min.Dep, a.Interval.Max.Dep)}, true
	}
	if a.Kind.Enumerable() && a.Interval.Min != nil && len(a.NegValues) > 0 {
		if c, ok := a.coveredByNegValues(); ok {
			return c, true
		}
	}
	return nil, false
}

// coveredByNegValues implements clash condition 4: every domain value
// inside the current interval is individually excluded.
func (a *Appearance) coveredByNegValues() (*Clash, bool) {
	dep := depset.New()
	any := false
	for _, v := range a.Kind.Domain() {
		if !a.Interval.contains(v) {
			continue
		}
		any = true
		covered := false
		for _, nv := range a.NegValues {
			if nv.Value.Equal(v) {
				dep = depset.Union(dep, nv.Dep)
				covered = true
				break
			}
		}
		if !covered {
			return nil, false
		}
	}
	if !any {
		return nil, false
	}
	if a.Interval.Min != nil {
		dep = depset.Union(dep, a.Interval.Min.Dep)
	}
	if a.Interval.Max != nil {
		dep = depset.Union(dep, a.Interval.Max.Dep)
	}
	return &Clash{Reason: "interval fully covered by negated values", Set: dep}, true
}

// CheckCross implements clash condition 2: two positive presences of
// incomparable datatypes on the same node.
func CheckCross(a, b *Appearance) (*Clash, bool) {
	if a.PType && b.PType && !Comparable(a.Kind, b.Kind) {
		return &Clash{Reason: "incomparable datatypes both positively present", Set: depset.Union(a.PTypeDep, b.PTypeDep)}, true
	}
	return nil, false
}

// Clear resets all appearance state. Branch restoration does not call
// it: restoring the graph drops a node's appearances, and the tableau
// engine replays the surviving datatype labels into fresh ones.
func (a *Appearance) Clear() {
	a.PType = false
	a.PTypeDep = depset.New()
	a.NType = false
	a.NTypeDep = depset.New()
	a.Interval = Interval{}
	a.NegValues = nil
}
