// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package graph

// Blocking stops the tableau engine from expanding a node further
// once its presence adds nothing a finite model doesn't already
// witness.

// RecomputeDirectBlock recomputes whether x is directly (equality-)
// blocked by an ancestor y with an identical label set, walking the
// parent chain from x to the root. It must be called whenever x's
// labels change, since blocking is defined lazily over current
// labels rather than maintained incrementally.
func (g *Graph) RecomputeDirectBlock(x NodeID) {
	n := &g.nodes[x]
	n.directBlockedBy = NodeNull
	if !n.blockable {
		return
	}
	xset := g.labelSet(x)
	for a := n.parent; a != NodeNull; a = g.nodes[a].parent {
		if g.sameLabelSet(xset, a) {
			n.directBlockedBy = a
			return
		}
	}
}

func (g *Graph) labelSet(id NodeID) map[uint32]bool {
	n := &g.nodes[id]
	s := make(map[uint32]bool, len(n.labels))
	for _, l := range n.labels {
		s[uint32(l.bp)] = true
	}
	return s
}

func (g *Graph) sameLabelSet(xset map[uint32]bool, y NodeID) bool {
	yn := &g.nodes[y]
	if len(xset) != len(yn.labels) {
		return false
	}
	seen := make(map[uint32]bool, len(yn.labels))
	for _, l := range yn.labels {
		if !xset[uint32(l.bp)] {
			return false
		}
		seen[uint32(l.bp)] = true
	}
	return len(seen) == len(xset)
}

// DirectlyBlocked reports whether x is directly blocked, and by whom.
func (g *Graph) DirectlyBlocked(x NodeID) (NodeID, bool) {
	b := g.nodes[x].directBlockedBy
	return b, b != NodeNull
}

// IndirectlyBlocked reports whether any ancestor of x on the path to
// the root is itself blocked (directly or indirectly).
func (g *Graph) IndirectlyBlocked(x NodeID) bool {
	for a := g.nodes[x].parent; a != NodeNull; a = g.nodes[a].parent {
		if _, blocked := g.DirectlyBlocked(a); blocked {
			return true
		}
		if g.IndirectlyBlocked(a) {
			return true
		}
	}
	return false
}

// Blocked reports whether x should be treated as blocked for the
// purposes of rule expansion: directly, indirectly, or purge-blocked.
func (g *Graph) Blocked(x NodeID) bool {
	if _, blocked := g.nodes[x].PBlocked(); blocked {
		return true
	}
	if _, blocked := g.DirectlyBlocked(x); blocked {
		return true
	}
	return g.IndirectlyBlocked(x)
}
