// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package graph

import (
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/z"
)

// CreateNode allocates a fresh node. blockable distinguishes a
// tree-shaped successor (eligible for blocking) from a root node
// backing a named individual.
func (g *Graph) CreateNode(blockable bool, parent NodeID) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{id: id, blockable: blockable, parent: parent})
	return id
}

// SetNominal records that node id represents the individual named by
// entry's DAG leaf. The KB facade calls this once per asserted
// individual's root node, before Merge/Purge ever run; Purge consults
// it to decide whether a successor being purged must instead be
// invalidated (a nominal's node is permanent across branches).
func (g *Graph) SetNominal(id NodeID, entry z.Entry) {
	g.nodes[id].nominal = entry
}

// Nominal returns the individual entry node id represents, or 0 if id
// is not a nominal's node.
func (g *Graph) Nominal(id NodeID) z.Entry {
	return g.nodes[id].nominal
}

// CreateEdge adds a forward arc from→to labeled role, and its paired
// reverse arc to→from labeled roleInv (role's told inverse, or role
// itself if none was declared — the tableau engine is expected to
// track, per role, whether traversing an edge in reverse needs
// inverting value restrictions). Both arcs share dep and the upLink
// flag.
func (g *Graph) CreateEdge(from, to NodeID, role, roleInv z.Entry, dep depset.Set, upLink bool) EdgeID {
	fwdID := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{id: fwdID, from: from, to: to, role: role, dep: dep, valid: true, upLink: upLink})
	revID := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{id: revID, from: to, to: from, role: roleInv, dep: dep, valid: true})
	g.edges[fwdID].inverse = revID
	g.edges[revID].inverse = fwdID

	g.nodes[from].edgesOut = append(g.nodes[from].edgesOut, fwdID)
	g.nodes[to].edgesIn = append(g.nodes[to].edgesIn, fwdID)
	g.nodes[to].edgesOut = append(g.nodes[to].edgesOut, revID)
	g.nodes[from].edgesIn = append(g.nodes[from].edgesIn, revID)
	return fwdID
}

// AddLabel records bp on node id with dependency dep. Idempotent: if
// bp is already present, the existing entry's DepSet is kept unless
// dep is a strict subset of it, in which case the tighter (smaller)
// DepSet replaces it — a fact justified by fewer branch choices is
// strictly more useful to keep.
func (g *Graph) AddLabel(id NodeID, bp z.BP, dep depset.Set) {
	n := &g.nodes[id]
	for i := range n.labels {
		if n.labels[i].bp == bp {
			if dep.Subset(n.labels[i].dep) && !n.labels[i].dep.Subset(dep) {
				n.labels[i].dep = dep
			}
			return
		}
	}
	n.labels = append(n.labels, label{bp: bp, dep: dep})
}

// HasLabel reports whether bp is present on node id.
func (g *Graph) HasLabel(id NodeID, bp z.BP) bool {
	_, ok := g.nodes[id].LabelDep(bp)
	return ok
}

// InvalidateEdge clears both directions of e; the edge remains in the
// arena (so its id stays stable) but is ignored by every subsequent
// traversal.
func (g *Graph) InvalidateEdge(e EdgeID) {
	g.recordRare(rareOp{kind: rareEdgeValid, edge: e, oldValid: g.edges[e].valid})
	g.edges[e].valid = false
	inv := g.edges[e].inverse
	if inv != EdgeNull {
		g.recordRare(rareOp{kind: rareEdgeValid, edge: inv, oldValid: g.edges[inv].valid})
		g.edges[inv].valid = false
	}
}

// Merge implements the nominal/number-restriction merge of from into
// to, in four steps:
//  1. Redirect every predecessor arc x→from to x→to, preserving role
//     and adding dep, collapsing into a parallel edge if one with the
//     same role already exists rather than duplicating it.
//  2. Redirect from's successor arcs that target a nominal to
//     originate at to instead; blockable successors are left for
//     Purge to clean up.
//  3. Union the inequality relation: everything ≠ from becomes ≠ to.
//  4. Purge from into to.
func (g *Graph) Merge(from, to NodeID, dep depset.Set) {
	g.redirectPredecessors(from, to, dep)
	g.redirectNominalSuccessors(from, to, dep)
	g.unionInequalities(from, to, dep)
	g.Purge(from, to, dep)
}

func (g *Graph) redirectPredecessors(from, to NodeID, dep depset.Set) {
	for _, eid := range append([]EdgeID(nil), g.nodes[from].edgesIn...) {
		e := &g.edges[eid]
		if !e.valid || e.to != from {
			continue
		}
		x := e.from
		if x == to {
			continue
		}
		if existing := g.findEdge(x, to, e.role); existing != EdgeNull {
			g.recordRare(rareOp{kind: rareEdgeDep, edge: existing, oldDep: g.edges[existing].dep})
			g.edges[existing].dep = depset.Union(g.edges[existing].dep, dep)
			g.InvalidateEdge(eid)
			continue
		}
		g.recordRare(rareOp{kind: rareEdgeMove, edge: eid, oldFrom: e.from, oldTo: e.to, oldDep: e.dep})
		e.to = to
		e.dep = depset.Union(e.dep, dep)
		g.nodes[to].edgesIn = append(g.nodes[to].edgesIn, eid)
		g.recordRare(rareOp{kind: rareListIn, node: to, edge: eid})
		if inv := e.inverse; inv != EdgeNull {
			ie := &g.edges[inv]
			g.recordRare(rareOp{kind: rareEdgeMove, edge: inv, oldFrom: ie.from, oldTo: ie.to, oldDep: ie.dep})
			ie.from = to
			g.nodes[to].edgesOut = append(g.nodes[to].edgesOut, inv)
			g.recordRare(rareOp{kind: rareListOut, node: to, edge: inv})
		}
	}
}

func (g *Graph) redirectNominalSuccessors(from, to NodeID, dep depset.Set) {
	for _, eid := range append([]EdgeID(nil), g.nodes[from].edgesOut...) {
		e := &g.edges[eid]
		if !e.valid || e.from != from {
			continue
		}
		x := e.to
		if g.nodes[x].blockable {
			// blockable successors are left for Purge to clean up.
			continue
		}
		if x == to {
			continue
		}
		g.recordRare(rareOp{kind: rareEdgeMove, edge: eid, oldFrom: e.from, oldTo: e.to, oldDep: e.dep})
		e.from = to
		e.dep = depset.Union(e.dep, dep)
		g.nodes[to].edgesOut = append(g.nodes[to].edgesOut, eid)
		g.recordRare(rareOp{kind: rareListOut, node: to, edge: eid})
		if inv := e.inverse; inv != EdgeNull {
			ie := &g.edges[inv]
			g.recordRare(rareOp{kind: rareEdgeMove, edge: inv, oldFrom: ie.from, oldTo: ie.to, oldDep: ie.dep})
			ie.to = to
			g.nodes[to].edgesIn = append(g.nodes[to].edgesIn, inv)
			g.recordRare(rareOp{kind: rareListIn, node: to, edge: inv})
		}
	}
}

// unionInequalities rewrites every inequality involving from to
// involve to instead, keeping the relation symmetric: both to's own
// list and the reciprocal entry on each partner must point at to, or
// a later Neq(partner, to) query would miss the constraint.
func (g *Graph) unionInequalities(from, to NodeID, dep depset.Set) {
	for _, ne := range append([]neq(nil), g.nodes[from].neqs...) {
		if ne.other == to || ne.other == from {
			continue
		}
		d := depset.Union(ne.dep, dep)
		g.addNeq(to, ne.other, d)
		g.addNeq(ne.other, to, d)
	}
}

// Purge marks from purge-blocked by to, recursively purges from's
// still-blockable successors, and invalidates from's edges to
// nominals.
func (g *Graph) Purge(from, to NodeID, dep depset.Set) {
	g.recordRare(rareOp{kind: rarePBlocked, node: from, oldPBlocked: g.nodes[from].pBlockedBy})
	g.nodes[from].pBlockedBy = to
	for _, eid := range append([]EdgeID(nil), g.nodes[from].edgesOut...) {
		e := &g.edges[eid]
		if !e.valid || e.from != from {
			continue
		}
		succ := e.to
		if g.nodes[succ].nominal != 0 {
			g.InvalidateEdge(eid)
			continue
		}
		if g.nodes[succ].blockable {
			g.Purge(succ, to, dep)
		}
	}
}

func (g *Graph) findEdge(from, to NodeID, role z.Entry) EdgeID {
	for _, eid := range g.nodes[from].edgesOut {
		e := &g.edges[eid]
		if e.valid && e.to == to && e.role == role {
			return eid
		}
	}
	return EdgeNull
}

// AddNeq records from ≠ to with dependency dep, symmetrically.
func (g *Graph) AddNeq(from, to NodeID, dep depset.Set) {
	g.addNeq(from, to, dep)
	g.addNeq(to, from, dep)
}

func (g *Graph) addNeq(from, to NodeID, dep depset.Set) {
	n := &g.nodes[from]
	for i := range n.neqs {
		if n.neqs[i].other == to {
			if dep.Subset(n.neqs[i].dep) {
				n.neqs[i].dep = dep
			}
			return
		}
	}
	n.neqs = append(n.neqs, neq{other: to, dep: dep})
}

// Neq reports whether from and to are known unequal, and the
// justifying DepSet.
func (g *Graph) Neq(from, to NodeID) (depset.Set, bool) {
	for _, ne := range g.nodes[from].neqs {
		if ne.other == to {
			return ne.dep, true
		}
	}
	return depset.Set{}, false
}
