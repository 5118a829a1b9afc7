// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package graph

import "github.com/go-air/sroiq/depset"

// Arena truncation alone cannot undo a branch: Merge and Purge mutate
// pre-existing nodes and edges in place (retargeted arcs, invalidated
// arcs, pBlockedBy). Those mutations go through the rare log below, so
// Restore can replay them backwards before rewinding the arenas.

// rareKind discriminates the in-place mutations the rare log records.
type rareKind uint8

const (
	rareEdgeMove  rareKind = iota // edge endpoints and dep changed
	rareEdgeDep                   // edge dep unioned in place
	rareEdgeValid                 // edge validity flipped
	rarePBlocked                  // node purge-blocked
	rareListOut                   // edge id appended to a node's edgesOut
	rareListIn                    // edge id appended to a node's edgesIn
)

// rareOp is one undo record. Only the fields its kind needs are set.
type rareOp struct {
	kind        rareKind
	node        NodeID
	edge        EdgeID
	oldFrom     NodeID
	oldTo       NodeID
	oldDep      depset.Set
	oldValid    bool
	oldPBlocked NodeID
}

// recordRare appends op to the rare log. Mutations made outside any
// branch point are permanent and never recorded.
func (g *Graph) recordRare(op rareOp) {
	if len(g.saves) == 0 {
		return
	}
	g.rare = append(g.rare, op)
}

// replayRare undoes every logged mutation back to (and truncating at)
// log position end, newest first.
func (g *Graph) replayRare(end int) {
	for i := len(g.rare) - 1; i >= end; i-- {
		op := g.rare[i]
		switch op.kind {
		case rareEdgeMove:
			e := &g.edges[op.edge]
			e.from, e.to, e.dep = op.oldFrom, op.oldTo, op.oldDep
		case rareEdgeDep:
			g.edges[op.edge].dep = op.oldDep
		case rareEdgeValid:
			g.edges[op.edge].valid = op.oldValid
		case rarePBlocked:
			g.nodes[op.node].pBlockedBy = op.oldPBlocked
		case rareListOut:
			g.nodes[op.node].edgesOut = removeEdgeID(g.nodes[op.node].edgesOut, op.edge)
		case rareListIn:
			g.nodes[op.node].edgesIn = removeEdgeID(g.nodes[op.node].edgesIn, op.edge)
		}
	}
	g.rare = g.rare[:end]
}

// removeEdgeID deletes the most recent occurrence of id from ids.
func removeEdgeID(ids []EdgeID, id EdgeID) []EdgeID {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Save records the current arena sizes and rare-log position and
// enters a new branching level, returning it. It must be called once
// before the tableau engine commits to a non-deterministic choice
// (⊔, ≤n merge, ...), so Restore can later undo exactly that choice
// and everything built on top of it.
func (g *Graph) Save() int {
	g.branchingLevel++
	g.saves = append(g.saves, savePoint{
		nodeEnd: len(g.nodes),
		edgeEnd: len(g.edges),
		rareEnd: len(g.rare),
		level:   g.branchingLevel,
	})
	return g.branchingLevel
}

// BranchingLevel returns the current branching level.
func (g *Graph) BranchingLevel() int { return g.branchingLevel }

// Restore rewinds the graph to the state it had at the start of
// level+1: the rare log is replayed backwards to the position recorded
// when that level was entered, the node and edge arenas are truncated
// to the recorded sizes, and every label or inequality whose
// dependency set references a level above the target is removed
// outright — a fact is valid only while all of its levels are active,
// so trimming the set instead of dropping the fact would promote a
// branch-local conclusion to a permanent one.
func (g *Graph) Restore(level int) {
	replayTo := -1
	for len(g.saves) > 0 && g.saves[len(g.saves)-1].level > level+1 {
		replayTo = g.saves[len(g.saves)-1].rareEnd
		g.saves = g.saves[:len(g.saves)-1]
	}
	if len(g.saves) == 0 || g.saves[len(g.saves)-1].level != level+1 {
		// nothing was ever saved at level+1: undo whatever deeper
		// levels were popped above, then drop their facts.
		if replayTo >= 0 {
			g.replayRare(replayTo)
		}
		g.removeAbove(level)
		g.branchingLevel = level
		return
	}
	sp := g.saves[len(g.saves)-1]
	g.saves = g.saves[:len(g.saves)-1]

	g.replayRare(sp.rareEnd)
	if sp.nodeEnd < len(g.nodes) {
		g.nodes = g.nodes[:sp.nodeEnd]
	}
	if sp.edgeEnd < len(g.edges) {
		g.edges = g.edges[:sp.edgeEnd]
	}
	// drop dangling arcs/parents that pointed past the truncated arena.
	for i := range g.nodes {
		n := &g.nodes[i]
		if int(n.parent) >= len(g.nodes) {
			n.parent = NodeNull
		}
		if int(n.pBlockedBy) >= len(g.nodes) {
			n.pBlockedBy = NodeNull
		}
		n.edgesOut = dropDangling(n.edgesOut, len(g.edges))
		n.edgesIn = dropDangling(n.edgesIn, len(g.edges))
	}
	g.removeAbove(level)
	g.branchingLevel = level
}

func dropDangling(ids []EdgeID, edgeLen int) []EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if int(id) < edgeLen {
			out = append(out, id)
		}
	}
	return out
}

// removeAbove removes every label and inequality justified by a level
// above level, resets per-node datatype appearance state (the engine
// replays surviving datatype labels into fresh appearances after a
// restore), and recomputes direct blocking, which is defined over the
// surviving labels.
func (g *Graph) removeAbove(level int) {
	for i := range g.nodes {
		n := &g.nodes[i]
		labels := n.labels[:0]
		for _, l := range n.labels {
			if l.dep.Max() <= level {
				labels = append(labels, l)
			}
		}
		n.labels = labels
		neqs := n.neqs[:0]
		for _, ne := range n.neqs {
			if ne.dep.Max() <= level && int(ne.other) < len(g.nodes) {
				neqs = append(neqs, ne)
			}
		}
		n.neqs = neqs
		n.data = nil
	}
	for i := range g.nodes {
		g.RecomputeDirectBlock(NodeID(i))
	}
}
