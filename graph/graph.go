// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package graph implements the completion graph: the tableau
// engine's working model, built from nodes labeled with concept
// pointers and edges labeled with roles. Nodes and edges live in
// slab-style arenas so a branch point's graph size can be recorded
// cheaply and restored by truncation.
package graph

import (
	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/z"
)

// NodeID indexes the node arena. 0 is reserved (NodeNull).
type NodeID uint32

const NodeNull NodeID = 0

// EdgeID indexes the edge arena. 0 is reserved (EdgeNull).
type EdgeID uint32

const EdgeNull EdgeID = 0

// label is one entry in a node's label set: a bipolar concept pointer
// together with the dependency set that justifies it being there.
type label struct {
	bp  z.BP
	dep depset.Set
}

// neq records an inequality edge between two nodes, justified by a
// DepSet.
type neq struct {
	other NodeID
	dep   depset.Set
}

// Node is one completion-graph node. Blockable nodes are the
// tree-shaped successors created by existential/at-least expansion;
// non-blockable (root) nodes back named individuals and are never
// blocked.
type Node struct {
	id         NodeID
	labels     []label
	edgesOut   []EdgeID
	edgesIn    []EdgeID
	neqs       []neq
	blockable  bool
	nominal    z.Entry // individual BP entry this node represents, or 0
	pBlockedBy NodeID  // purge-blocked by this node, or NodeNull
	parent     NodeID  // tree parent, for indirect-blocking walks; NodeNull for roots
	directBlockedBy NodeID // NodeNull if not directly blocked

	data map[string]*datatype.Appearance // keyed by datatype name
}

// Edge is one directed arc between two nodes, labeled with a role.
// Every forward arc is paired with a reverse arc labeled with the
// role's inverse.
type Edge struct {
	id       EdgeID
	from, to NodeID
	role     z.Entry
	dep      depset.Set
	inverse  EdgeID
	valid    bool
	upLink   bool
}

// savePoint is the state recorded by Save, used by Restore to rewind
// the arenas and replay the rare log.
type savePoint struct {
	nodeEnd int
	edgeEnd int
	rareEnd int
	level   int
}

// Graph is the completion graph for one tableau run.
type Graph struct {
	d     *dag.DAG
	nodes []Node // index 0 unused (NodeNull)
	edges []Edge // index 0 unused (EdgeNull)

	branchingLevel int
	saves          []savePoint
	rare           []rareOp // in-place mutations Restore must undo
}

// New creates an empty completion graph over d's term DAG.
func New(d *dag.DAG) *Graph {
	return &Graph{
		d:     d,
		nodes: make([]Node, 1),
		edges: make([]Edge, 1),
	}
}

// Node returns a pointer to the node for id. The pointer is only
// valid until the next CreateNode call, which may grow the arena.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Edge returns a pointer to the edge for id, valid until the next
// CreateEdge call.
func (g *Graph) Edge(id EdgeID) *Edge {
	return &g.edges[id]
}

// NumNodes returns the number of nodes in the arena, including the
// unused NodeNull slot.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Labels returns node id's current concept labels, in insertion
// order. The caller must not mutate the returned slice.
func (n *Node) Labels() []z.BP {
	out := make([]z.BP, len(n.labels))
	for i, l := range n.labels {
		out[i] = l.bp
	}
	return out
}

// LabelDep returns the dependency set justifying bp on this node, and
// whether bp is present at all.
func (n *Node) LabelDep(bp z.BP) (depset.Set, bool) {
	for _, l := range n.labels {
		if l.bp == bp {
			return l.dep, true
		}
	}
	return depset.Set{}, false
}

// Blockable reports whether n is a tree-shaped successor eligible for
// blocking (as opposed to a root node backing a named individual).
func (n *Node) Blockable() bool { return n.blockable }

// PBlocked reports whether n has been purge-blocked (merged away) and
// returns the node it was merged into.
func (n *Node) PBlocked() (NodeID, bool) {
	return n.pBlockedBy, n.pBlockedBy != NodeNull
}

// EdgesOut returns the ids of n's outgoing edges.
func (n *Node) EdgesOut() []EdgeID { return append([]EdgeID(nil), n.edgesOut...) }

// EdgesIn returns the ids of n's incoming edges.
func (n *Node) EdgesIn() []EdgeID { return append([]EdgeID(nil), n.edgesIn...) }

// DataAppearance returns (creating if absent) the datatype appearance
// for datatype name on node n, backed by kind.
func (n *Node) DataAppearance(name string, kind datatype.Kind) *datatype.Appearance {
	if n.data == nil {
		n.data = make(map[string]*datatype.Appearance)
	}
	a, ok := n.data[name]
	if !ok {
		a = datatype.NewAppearance(kind)
		n.data[name] = a
	}
	return a
}

// OtherAppearances returns every datatype appearance on n except
// name's, for the cross-datatype clash check (two incomparable
// datatypes both positively present on one node).
func (n *Node) OtherAppearances(name string) []*datatype.Appearance {
	if len(n.data) == 0 {
		return nil
	}
	out := make([]*datatype.Appearance, 0, len(n.data))
	for k, a := range n.data {
		if k != name {
			out = append(out, a)
		}
	}
	return out
}

// From returns the edge's source node.
func (e *Edge) From() NodeID { return e.from }

// To returns the edge's target node.
func (e *Edge) To() NodeID { return e.to }

// Role returns the edge's role.
func (e *Edge) Role() z.Entry { return e.role }

// Dep returns the edge's dependency set.
func (e *Edge) Dep() depset.Set { return e.dep }

// Valid reports whether the edge is still in effect (not
// invalidated).
func (e *Edge) Valid() bool { return e.valid }
