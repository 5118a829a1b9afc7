// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package depset implements dependency sets: ordered sets of
// branching levels that justify a fact recorded during tableau
// expansion. The representation favors the common case of small,
// mostly-disjoint sets over wide bitsets: one short sorted slice per
// fact rather than a dense bitmap.
package depset

import "sort"

// Set is a dependency set: the sorted, deduplicated branching levels
// that justify some fact. The zero value is the empty set, which
// justifies facts that hold unconditionally (dependency on nothing,
// i.e. never reverted by backtracking).
type Set struct {
	levels []int
}

// New returns the empty dependency set.
func New() Set {
	return Set{}
}

// Single returns the dependency set justified by a single branching
// level.
func Single(level int) Set {
	if level == 0 {
		return Set{}
	}
	return Set{levels: []int{level}}
}

// Empty reports whether d has no dependencies.
func (d Set) Empty() bool {
	return len(d.levels) == 0
}

// Levels returns the sorted branching levels in d. The caller must not
// mutate the returned slice.
func (d Set) Levels() []int {
	return d.levels
}

// Max returns the greatest branching level in d, or 0 if d is empty.
// Max is the correct dependency-directed backtrack target: reverting
// to Max(d) is guaranteed to invalidate at least one choice that
// produced d, and no earlier level is guaranteed to do so.
func (d Set) Max() int {
	if len(d.levels) == 0 {
		return 0
	}
	return d.levels[len(d.levels)-1]
}

// Union returns the dependency set justified by either d or o.
func Union(d, o Set) Set {
	if len(d.levels) == 0 {
		return o
	}
	if len(o.levels) == 0 {
		return d
	}
	out := make([]int, 0, len(d.levels)+len(o.levels))
	i, j := 0, 0
	for i < len(d.levels) && j < len(o.levels) {
		a, b := d.levels[i], o.levels[j]
		switch {
		case a == b:
			out = append(out, a)
			i++
			j++
		case a < b:
			out = append(out, a)
			i++
		default:
			out = append(out, b)
			j++
		}
	}
	out = append(out, d.levels[i:]...)
	out = append(out, o.levels[j:]...)
	return Set{levels: out}
}

// Delete returns d with level removed, used when restoring the graph
// to a branching level that no longer exists: any dependency set
// naming a purged level is dropped from every label.
func (d Set) Delete(level int) Set {
	if len(d.levels) == 0 {
		return d
	}
	i := sort.SearchInts(d.levels, level)
	if i == len(d.levels) || d.levels[i] != level {
		return d
	}
	out := make([]int, 0, len(d.levels)-1)
	out = append(out, d.levels[:i]...)
	out = append(out, d.levels[i+1:]...)
	return Set{levels: out}
}

// DropAbove returns d with every level > level removed. This is the
// bulk form of Delete used by graph restoration: rather than deleting
// one purged level at a time, a restore to level rewinds every
// dependency past it in one pass.
func (d Set) DropAbove(level int) Set {
	if len(d.levels) == 0 {
		return d
	}
	i := sort.SearchInts(d.levels, level+1)
	if i == len(d.levels) {
		return d
	}
	return Set{levels: append([]int{}, d.levels[:i]...)}
}

// Subset reports whether every level in d also occurs in o.
func (d Set) Subset(o Set) bool {
	if len(d.levels) > len(o.levels) {
		return false
	}
	j := 0
	for _, a := range d.levels {
		for j < len(o.levels) && o.levels[j] < a {
			j++
		}
		if j == len(o.levels) || o.levels[j] != a {
			return false
		}
	}
	return true
}

// Active reports whether every level in d is still live, i.e. <=
// current and not one of the reverted levels. A fact with dependency
// set d remains valid while all of its levels are active.
func (d Set) Active(current int) bool {
	return len(d.levels) == 0 || d.levels[len(d.levels)-1] <= current
}
