// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package tableau implements the tableau engine: the expansion-rule
// dispatcher, non-deterministic branching and dependency-directed
// backtracking that decide satisfiability of a completion graph built
// from told axioms. The shape is an outer loop that drains a todo
// queue; clashes are a value routed back to the caller rather than a
// panic; branch points are tried depth-first and undone on clash,
// with the backjump level computed from the clashing label's
// dependency set.
package tableau

import (
	"sync/atomic"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/graph"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// Outcome is the result of a tableau run.
type Outcome int

const (
	Saturated Outcome = iota
	Unsat
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Saturated:
		return "Saturated"
	case Unsat:
		return "Unsat"
	case Cancelled:
		return "Cancelled"
	default:
		return "?"
	}
}

// Stats counts rule applications and outcomes for one engine's
// lifetime.
type Stats struct {
	Expansions int64
	Branches   int64
	Backtracks int64
	Merges     int64
	Clashes    int64
}

// task is one pending expansion: label bp was added to node x with
// dependency dep and still needs its rule applied.
type task struct {
	x   graph.NodeID
	bp  z.BP
	dep depset.Set
}

// Engine drives one satisfiability/consistency check over a
// completion graph. It is not safe for concurrent use: reasoning is
// single-threaded and cooperative, so every rule application polls
// the interrupt flag rather than suspending for I/O.
type Engine struct {
	d  *dag.DAG
	rb *roles.Box
	g  *graph.Graph

	todo []task

	// nominals maps an individual's DAG entry to the completion-graph
	// node that represents it; there is at most one node per nominal,
	// enforced by the nominal rule merging any other node that picks
	// up the individual's label.
	nominals map[z.Entry]graph.NodeID

	// kinds maps a declared datatype's name to the Kind that parses
	// its literals, populated by SetKind before Run.
	kinds map[string]datatype.Kind

	// globalAxioms are general concept inclusions (¬C⊔D for C⊑D):
	// every node, including ones not yet created, must carry them, so
	// they are seeded on every root node by the caller and on every
	// freshly created successor by createSuccessor.
	globalAxioms []z.BP

	interrupt *int32

	Stats Stats
}

// AddGlobalAxiom records bp as a general concept inclusion that must
// hold at every node of the completion graph. The KB facade calls
// this once per told subsumption/equivalence axiom, translated to SNF
// (C ⊑ D becomes ¬C⊔D).
func (e *Engine) AddGlobalAxiom(bp z.BP) {
	e.globalAxioms = append(e.globalAxioms, bp)
}

// SeedGlobalAxioms adds every registered global axiom to node x. The
// KB facade calls this for each ABox root node before Run; the engine
// calls it itself for every blockable successor it creates.
func (e *Engine) SeedGlobalAxioms(x graph.NodeID) {
	for _, bp := range e.globalAxioms {
		e.enqueueLabel(x, bp, depset.New())
	}
}

// New creates an engine over g, which the caller has already seeded
// with whatever root nodes/edges/labels the KB's ABox requires.
func New(d *dag.DAG, rb *roles.Box, g *graph.Graph) *Engine {
	return &Engine{d: d, rb: rb, g: g, nominals: make(map[z.Entry]graph.NodeID)}
}

// SetInterrupt installs an atomically-readable cancellation flag. The
// engine checks it at the start of every rule application; if non-zero
// the current run aborts with Cancelled, leaving the graph as it was
// at the moment of cancellation.
func (e *Engine) SetInterrupt(flag *int32) {
	e.interrupt = flag
}

func (e *Engine) cancelled() bool {
	return e.interrupt != nil && atomic.LoadInt32(e.interrupt) != 0
}

// RegisterNominal records that node id represents individual entry's
// nominal {a}. The KB facade calls this once per asserted individual
// before Run.
func (e *Engine) RegisterNominal(entry z.Entry, id graph.NodeID) {
	e.nominals[entry] = id
}

// Seed adds label bp to node x with dependency dep and enqueues it for
// expansion. The KB facade calls this for every initial ABox/TBox
// label before the first Run.
func (e *Engine) Seed(x graph.NodeID, bp z.BP, dep depset.Set) {
	e.enqueueLabel(x, bp, dep)
}

// Run drains the todo queue, applying expansion rules until the graph
// saturates (no more pending expansions and no clash), a clash
// unwinds past branching level 0 (Unsat), or the interrupt flag fires
// (Cancelled). Non-deterministic rules recurse into solve, trying
// each alternative under dependency-directed backtracking; Run itself
// is just the outermost call.
func (e *Engine) Run() Outcome {
	outcome, _ := e.solve()
	return outcome
}

// enqueueLabel records bp on x (checking for an immediate complementary
// clash) and pushes it onto the todo queue if it is new.
func (e *Engine) enqueueLabel(x graph.NodeID, bp z.BP, dep depset.Set) {
	if e.g.HasLabel(x, bp) {
		e.g.AddLabel(x, bp, dep) // may tighten the dependency set
		return
	}
	e.g.AddLabel(x, bp, dep)
	e.g.RecomputeDirectBlock(x)
	e.todo = append(e.todo, task{x: x, bp: bp, dep: dep})
}

// clashDep reports whether x already carries bp's negation, and if so
// the union dependency set justifying the clash.
func (e *Engine) clashDep(x graph.NodeID, bp z.BP) (depset.Set, bool) {
	if d, ok := e.g.Node(x).LabelDep(bp.Not()); ok {
		return d, true
	}
	return depset.Set{}, false
}

// restoreTo rewinds the graph to branching level level, reinstates
// the todo-queue snapshot its branch point captured (the queue is
// branch state: tasks popped inside an abandoned alternative must be
// pending again for the next one), and replays surviving datatype
// labels into the fresh per-node appearances restoration left behind.
func (e *Engine) restoreTo(level int, saved []task) {
	e.g.Restore(level)
	e.todo = append([]task(nil), saved...)
	e.reseedDataLabels()
}

// reseedDataLabels re-enqueues every surviving datatype label after a
// restore. Restore resets per-node datatype appearance state
// wholesale, so the constraints the surviving labels express must be
// replayed into fresh appearances.
func (e *Engine) reseedDataLabels() {
	for x := graph.NodeID(1); int(x) < e.g.NumNodes(); x++ {
		n := e.g.Node(x)
		for _, bp := range n.Labels() {
			nd := e.d.Get(bp)
			if nd.Kind != dag.KindDataValue && nd.Kind != dag.KindDataExpr {
				continue
			}
			dep, _ := n.LabelDep(bp)
			e.todo = append(e.todo, task{x: x, bp: bp, dep: dep})
		}
	}
}
