// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package tableau

import (
	"strconv"
	"strings"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/graph"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// SetKind registers the datatype.Kind that backs a named datatype, so
// the datatype rule can parse DataValue/DataExpr terms it encounters.
// The KB facade calls this once per declared datatype before Run.
func (e *Engine) SetKind(name string, k datatype.Kind) {
	if e.kinds == nil {
		e.kinds = make(map[string]datatype.Kind)
	}
	e.kinds[name] = k
}

// expand applies the one expansion rule relevant to bp's DAG node on
// node x, returning the clash dependency set (if any). Nondeterministic
// rules (⊔, the ≤n merge choice) recurse into solve to try each
// alternative depth-first; every other rule is a deterministic,
// in-place graph mutation.
func (e *Engine) expand(x graph.NodeID, bp z.BP, dep depset.Set) (depset.Set, bool) {
	if cd, clashed := e.clashDep(x, bp); clashed {
		return depset.Union(cd, dep), true
	}
	n := e.d.Get(bp)
	switch n.Kind {
	case dag.KindTop:
		if !bp.IsPos() {
			// BOTTOM: unconditionally contradictory.
			return dep, true
		}
		return depset.Set{}, false
	case dag.KindCName, dag.KindProjection:
		return depset.Set{}, false
	case dag.KindIName:
		if bp.IsPos() {
			return e.applyNominal(x, bp.Entry(), dep)
		}
		return depset.Set{}, false
	case dag.KindAnd:
		if bp.IsPos() {
			return e.expandAnd(x, n.Children, dep)
		}
		outcome, cdep := e.expandOr(x, n.Children, dep)
		return e.bubble(outcome, cdep)
	case dag.KindForall:
		if bp.IsPos() {
			return e.expandForall(x, n.Role, n.Filler, dep)
		}
		// ¬∀R.C ≡ ∃R.¬C
		return e.expandExists(x, n.Role, n.Filler.Not(), dep)
	case dag.KindAtLeast:
		if bp.IsPos() {
			return e.expandAtLeast(x, n.N, n.Role, n.Filler, dep)
		}
		outcome, cdep := e.expandAtMost(x, n.N-1, n.Role, n.Filler, dep)
		return e.bubble(outcome, cdep)
	case dag.KindDataValue, dag.KindDataExpr:
		return e.expandData(x, bp, n, dep)
	default:
		return depset.Set{}, false
	}
}

// bubble turns a branch rule's recursive Outcome back into the
// (dep,clashed) shape expand's deterministic callers expect.
// Saturated and Cancelled never reach here as a clash: solve's loop
// returns them straight to Run.
func (e *Engine) bubble(outcome Outcome, dep depset.Set) (depset.Set, bool) {
	if outcome == Unsat {
		return dep, true
	}
	return depset.Set{}, false
}

// solve drains the todo queue from its current state to a fixed
// point, recursing once per nondeterministic choice. It is the
// engine's single control-flow primitive: Run calls it once; branch
// rules call it once per alternative to continue the same queue under
// that alternative's hypothesis.
func (e *Engine) solve() (Outcome, depset.Set) {
	for {
		if e.cancelled() {
			return Cancelled, depset.Set{}
		}
		if len(e.todo) == 0 {
			return Saturated, depset.Set{}
		}
		t := e.todo[len(e.todo)-1]
		e.todo = e.todo[:len(e.todo)-1]
		if e.g.Blocked(t.x) {
			continue
		}
		dep, clashed := e.expand(t.x, t.bp, t.dep)
		if clashed {
			e.Stats.Clashes++
			return Unsat, dep
		}
	}
}

func (e *Engine) expandAnd(x graph.NodeID, children []z.BP, dep depset.Set) (depset.Set, bool) {
	e.Stats.Expansions++
	for _, c := range children {
		if cd, clashed := e.clashDep(x, c); clashed {
			return cd, true
		}
		e.enqueueLabel(x, c, dep)
	}
	return depset.Set{}, false
}

// expandOr implements the ⊔ rule: And's negation is a disjunction of
// the children's negations. Each alternative is tried depth-first
// under a fresh branching level; a clash whose dependency set does not
// name this level is independent of the choice and escalates
// immediately without trying the remaining alternatives.
func (e *Engine) expandOr(x graph.NodeID, children []z.BP, dep depset.Set) (Outcome, depset.Set) {
	e.Stats.Branches++
	saved := append([]task(nil), e.todo...)
	var combined depset.Set
	var usedLevels []int
	for _, c := range children {
		choice := c.Not()
		level := e.g.Save()
		usedLevels = append(usedLevels, level)
		choiceDep := depset.Union(dep, depset.Single(level))
		if cd, clashed := e.clashDep(x, choice); clashed {
			combined = depset.Union(combined, cd)
			e.restoreTo(level-1, saved)
			continue
		}
		e.enqueueLabel(x, choice, choiceDep)
		outcome, cdep := e.solve()
		if outcome != Unsat {
			return outcome, cdep
		}
		if cdep.Max() < level {
			e.restoreTo(level-1, saved)
			return Unsat, cdep
		}
		e.Stats.Backtracks++
		combined = depset.Union(combined, cdep)
		e.restoreTo(level-1, saved)
	}
	final := depset.Union(combined, dep)
	for _, lvl := range usedLevels {
		final = final.Delete(lvl)
	}
	return Unsat, final
}

// expandForall implements the ∀R.C rule via role's composition
// automaton: Step is driven across every path reachable from x,
// matching a transition's role against an edge's literal role by
// sub-role closure (roles.Box.IsSubRoleOf), so a single automaton
// handles the direct/simple case (its trivial one-transition
// automaton) and role-chain-driven propagation uniformly.
func (e *Engine) expandForall(x graph.NodeID, roleEntry z.Entry, filler z.BP, dep depset.Set) (depset.Set, bool) {
	e.Stats.Expansions++
	role := e.rb.Role(roles.ID(roleEntry))
	if role == nil {
		return depset.Set{}, false
	}
	aut := role.Automaton()
	if aut == nil {
		return depset.Set{}, false
	}
	matches := func(transRole, edgeRole roles.ID) bool {
		return e.rb.IsSubRoleOf(edgeRole, transRole)
	}
	type frontier struct {
		node   graph.NodeID
		states map[int]bool
		dep    depset.Set
	}
	visited := make(map[graph.NodeID]bool)
	queue := []frontier{{node: x, states: aut.Initial(), dep: dep}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if aut.Accepts(f.states) && f.node != x {
			if cd, clashed := e.clashDep(f.node, filler); clashed {
				return depset.Union(cd, f.dep), true
			}
			e.enqueueLabel(f.node, filler, f.dep)
		}
		if visited[f.node] {
			continue
		}
		visited[f.node] = true
		for _, eid := range e.g.Node(f.node).EdgesOut() {
			edge := e.g.Edge(eid)
			if !edge.Valid() {
				continue
			}
			next := aut.Step(f.states, roles.ID(edge.Role()), matches)
			if len(next) == 0 {
				continue
			}
			queue = append(queue, frontier{node: edge.To(), states: next, dep: depset.Union(f.dep, edge.Dep())})
		}
	}
	return depset.Set{}, false
}

// expandExists implements the ∃R.C rule: if x already has an
// R-successor labeled C, the existential is already witnessed;
// otherwise a fresh blockable successor is created, unless x is
// blocked.
func (e *Engine) expandExists(x graph.NodeID, roleEntry z.Entry, filler z.BP, dep depset.Set) (depset.Set, bool) {
	e.Stats.Expansions++
	if e.g.Blocked(x) {
		return depset.Set{}, false
	}
	for _, y := range e.roleSuccessors(x, roleEntry) {
		if e.g.HasLabel(y, filler) {
			return depset.Set{}, false
		}
	}
	y := e.createSuccessor(x, roleEntry, dep)
	if cd, clashed := e.clashDep(y, filler); clashed {
		return depset.Union(cd, dep), true
	}
	e.enqueueLabel(y, filler, dep)
	return e.enforceFunctional(x, roleEntry, dep)
}

// expandAtLeast implements the ≥n R.C rule: ensures n distinct,
// pairwise-≠ R-successors labeled C exist, creating fresh ones if
// fewer are already known.
func (e *Engine) expandAtLeast(x graph.NodeID, n int, roleEntry z.Entry, filler z.BP, dep depset.Set) (depset.Set, bool) {
	e.Stats.Expansions++
	if e.g.Blocked(x) {
		return depset.Set{}, false
	}
	have := []graph.NodeID{}
	for _, y := range e.roleSuccessors(x, roleEntry) {
		if e.g.HasLabel(y, filler) {
			have = append(have, y)
		}
	}
	for len(have) < n {
		y := e.createSuccessor(x, roleEntry, dep)
		if cd, clashed := e.clashDep(y, filler); clashed {
			return depset.Union(cd, dep), true
		}
		e.enqueueLabel(y, filler, dep)
		for _, other := range have {
			e.g.AddNeq(y, other, dep)
		}
		have = append(have, y)
	}
	return e.enforceFunctional(x, roleEntry, dep)
}

// expandAtMost implements the ≤n R.C rule (encoded as the negation of
// AtLeast(n+1,...)): if more than n R-successors satisfy C, two of
// them must be merged. Distinct successors already known ≠ cannot be
// the chosen pair; trying every remaining pair as a branch point lets
// dependency-directed backtracking find a consistent choice or prove
// none exists.
func (e *Engine) expandAtMost(x graph.NodeID, n int, roleEntry z.Entry, filler z.BP, dep depset.Set) (Outcome, depset.Set) {
	e.Stats.Expansions++
	var have []graph.NodeID
	for _, y := range e.roleSuccessors(x, roleEntry) {
		if e.g.HasLabel(y, filler) {
			have = append(have, y)
		}
	}
	if len(have) <= n {
		return Saturated, depset.Set{}
	}
	e.Stats.Branches++
	saved := append([]task(nil), e.todo...)
	var combined depset.Set
	var usedLevels []int
	for i := 0; i < len(have); i++ {
		for j := i + 1; j < len(have); j++ {
			a, b := have[i], have[j]
			if nd, neq := e.g.Neq(a, b); neq {
				combined = depset.Union(combined, depset.Union(nd, dep))
				continue
			}
			level := e.g.Save()
			usedLevels = append(usedLevels, level)
			mergeDep := depset.Union(dep, depset.Single(level))
			var outcome Outcome
			var cdep depset.Set
			if cd, clashed := e.mergeNodes(a, b, mergeDep); clashed {
				outcome, cdep = Unsat, cd
			} else {
				outcome, cdep = e.solve()
			}
			e.Stats.Merges++
			if outcome != Unsat {
				return outcome, cdep
			}
			if cdep.Max() < level {
				e.restoreTo(level-1, saved)
				return Unsat, cdep
			}
			e.Stats.Backtracks++
			combined = depset.Union(combined, cdep)
			e.restoreTo(level-1, saved)
		}
	}
	final := depset.Union(combined, dep)
	for _, lvl := range usedLevels {
		final = final.Delete(lvl)
	}
	return Unsat, final
}

// expandData routes a datatype label to the node's per-datatype
// Appearance and checks the four clash conditions of the datatype
// sub-reasoner.
func (e *Engine) expandData(x graph.NodeID, bp z.BP, n dag.Node, dep depset.Set) (depset.Set, bool) {
	e.Stats.Expansions++
	kind, ok := e.kinds[n.Data.Datatype]
	if !ok {
		return depset.Set{}, false
	}
	app := e.g.Node(x).DataAppearance(n.Data.Datatype, kind)
	var clash *datatype.Clash
	var hit bool
	switch n.Kind {
	case dag.KindDataValue:
		v, err := kind.Parse(n.Data.Value)
		if err != nil {
			return depset.Set{}, false
		}
		clash, hit = app.AddValue(v, dep, bp.IsPos())
	case dag.KindDataExpr:
		iv, err := parseFacets(n.Data.Facets, kind)
		if err != nil {
			return depset.Set{}, false
		}
		clash, hit = app.AddInterval(iv, dep, bp.IsPos())
	}
	if hit {
		return clash.Set, true
	}
	for _, other := range e.g.Node(x).OtherAppearances(n.Data.Datatype) {
		if c, crossHit := datatype.CheckCross(app, other); crossHit {
			return c.Set, true
		}
	}
	return depset.Set{}, false
}

// applyNominal implements the nominal rule: at most one completion
// graph node ever represents a given individual. The first node to
// carry {a}'s label becomes its permanent representative; any later
// node that picks up the same label is merged into it.
func (e *Engine) applyNominal(x graph.NodeID, entry z.Entry, dep depset.Set) (depset.Set, bool) {
	if existing, ok := e.nominals[entry]; ok {
		if existing != x {
			if cd, clashed := e.mergeNodes(x, existing, dep); clashed {
				return cd, true
			}
			e.Stats.Merges++
		}
		return depset.Set{}, false
	}
	e.nominals[entry] = x
	return depset.Set{}, false
}

// mergeNodes merges from into to via g.Merge, then carries from's own
// labels over to to: the merge rule requires whichever concept facts
// from held become facts of to, not stranded on a node that Purge has
// just made unreachable. Any label that contradicts one to already
// carries is reported as an immediate clash.
func (e *Engine) mergeNodes(from, to graph.NodeID, dep depset.Set) (depset.Set, bool) {
	fromNode := e.g.Node(from)
	bps := fromNode.Labels()
	deps := make([]depset.Set, len(bps))
	for i, bp := range bps {
		d, _ := fromNode.LabelDep(bp)
		deps[i] = d
	}
	e.g.Merge(from, to, dep)
	// Redirected arcs may now pair told-disjoint roles between one
	// node pair, on the survivor's own out-edges or on a redirected
	// predecessor's.
	if cd, clashed := e.checkDisjointEdges(to); clashed {
		return depset.Union(cd, dep), true
	}
	for _, eid := range e.g.Node(to).EdgesIn() {
		edge := e.g.Edge(eid)
		if !edge.Valid() {
			continue
		}
		if cd, clashed := e.checkDisjointEdges(edge.From()); clashed {
			return depset.Union(cd, dep), true
		}
	}
	for i, bp := range bps {
		labelDep := depset.Union(deps[i], dep)
		if cd, clashed := e.clashDep(to, bp); clashed {
			return depset.Union(cd, labelDep), true
		}
		e.enqueueLabel(to, bp, labelDep)
	}
	return depset.Set{}, false
}

// enforceFunctional implements the functional-role rule: if roleEntry
// is functional, every pair of distinct R-successors of x must be
// merged, since a functional role admits at most one filler.
func (e *Engine) enforceFunctional(x graph.NodeID, roleEntry z.Entry, dep depset.Set) (depset.Set, bool) {
	role := e.rb.Role(roles.ID(roleEntry))
	if role == nil || !role.Functional {
		return depset.Set{}, false
	}
	succ := e.exactSuccessors(x, roleEntry)
	for len(succ) > 1 {
		a, b := succ[0], succ[1]
		if nd, neq := e.g.Neq(a, b); neq {
			return depset.Union(nd, dep), true
		}
		if cd, clashed := e.mergeNodes(b, a, dep); clashed {
			return cd, true
		}
		e.Stats.Merges++
		succ = append([]graph.NodeID{a}, succ[2:]...)
	}
	return depset.Set{}, false
}

// SeedMergeFunctional enforces every functional role's at-most-one-
// filler constraint across the edges the KB facade seeded directly
// from ABox assertions, before Run begins ordinary rule expansion.
// Without this, two directly told fillers of a functional role (no
// existential/at-least expansion involved at all, e.g.
// functional(R), R(a,b), R(a,c)) would never be merged,
// since enforceFunctional is otherwise only invoked by
// expandExists/expandAtLeast after they create a successor.
func (e *Engine) SeedMergeFunctional() (depset.Set, bool) {
	for x := graph.NodeID(1); int(x) < e.g.NumNodes(); x++ {
		for _, eid := range e.g.Node(graph.NodeID(x)).EdgesOut() {
			edge := e.g.Edge(eid)
			if !edge.Valid() {
				continue
			}
			if cd, clashed := e.enforceFunctional(x, edge.Role(), depset.New()); clashed {
				return cd, true
			}
		}
	}
	return depset.Set{}, false
}

// checkDisjointEdges reports a clash if x has two valid parallel edges
// to one successor whose roles are disjoint. Parallel edges only arise
// from ABox assertions and merges, so this runs after seeding and
// after every merge rather than on each rule application.
func (e *Engine) checkDisjointEdges(x graph.NodeID) (depset.Set, bool) {
	out := e.g.Node(x).EdgesOut()
	for i := 0; i < len(out); i++ {
		e1 := e.g.Edge(out[i])
		if !e1.Valid() {
			continue
		}
		for j := i + 1; j < len(out); j++ {
			e2 := e.g.Edge(out[j])
			if !e2.Valid() || e1.To() != e2.To() {
				continue
			}
			if e.rb.Disjoint(roles.ID(e1.Role()), roles.ID(e2.Role())) {
				return depset.Union(e1.Dep(), e2.Dep()), true
			}
		}
	}
	return depset.Set{}, false
}

// SeedCheckDisjointRoles scans every node's asserted edges for a pair
// of disjoint roles relating the same two individuals. The KB facade
// calls it once, alongside SeedMergeFunctional, before Run.
func (e *Engine) SeedCheckDisjointRoles() (depset.Set, bool) {
	for x := graph.NodeID(1); int(x) < e.g.NumNodes(); x++ {
		if cd, clashed := e.checkDisjointEdges(x); clashed {
			return cd, true
		}
	}
	return depset.Set{}, false
}

// roleSuccessors returns x's successors reachable by roleEntry or any
// of its sub-roles (an S-successor is also an R-successor when S⊑R).
func (e *Engine) roleSuccessors(x graph.NodeID, roleEntry z.Entry) []graph.NodeID {
	var out []graph.NodeID
	for _, eid := range e.g.Node(x).EdgesOut() {
		edge := e.g.Edge(eid)
		if !edge.Valid() {
			continue
		}
		if e.rb.IsSubRoleOf(roles.ID(edge.Role()), roles.ID(roleEntry)) {
			out = append(out, edge.To())
		}
	}
	return out
}

// exactSuccessors returns x's successors reachable by exactly
// roleEntry (used by the functional-role rule, which only forces
// merges for the declared functional role itself).
func (e *Engine) exactSuccessors(x graph.NodeID, roleEntry z.Entry) []graph.NodeID {
	var out []graph.NodeID
	seen := make(map[graph.NodeID]bool)
	for _, eid := range e.g.Node(x).EdgesOut() {
		edge := e.g.Edge(eid)
		if !edge.Valid() || edge.Role() != roleEntry {
			continue
		}
		if !seen[edge.To()] {
			seen[edge.To()] = true
			out = append(out, edge.To())
		}
	}
	return out
}

// createSuccessor allocates a fresh blockable node and an edge from x
// labeled roleEntry (and roleEntry's inverse on the reverse arc), then
// propagates x's current ∀-restrictions across the new edge: a ∀R.C
// label enqueued on x before y existed would otherwise never see y,
// since expandForall only walks edges present at the moment it runs.
func (e *Engine) createSuccessor(x graph.NodeID, roleEntry z.Entry, dep depset.Set) graph.NodeID {
	y := e.g.CreateNode(true, x)
	inv := roleEntry
	if role := e.rb.Role(roles.ID(roleEntry)); role != nil && role.Inverse != roles.RoleNull {
		inv = z.Entry(role.Inverse)
	}
	e.g.CreateEdge(x, y, roleEntry, inv, dep, false)
	e.g.RecomputeDirectBlock(y)
	e.propagateForallsAcrossNewEdge(x, y, roleEntry, dep)
	e.SeedGlobalAxioms(y)
	return y
}

// propagateForallsAcrossNewEdge applies every ∀S.C label already on x
// to the fresh edge x--roleEntry-->y directly, one step through S's
// automaton: this only realizes the simple case (S matches roleEntry
// directly, or roleEntry is the first symbol of a chain already
// satisfiable in one step); longer role-chain propagation across
// older edges is still the job of expandForall's BFS, which reruns in
// full whenever a ∀ label is freshly enqueued on an existing node. Any
// clash this produces on y is not detected here: the filler is simply
// enqueued, and the ordinary universal clash check at the top of
// expand catches it the next time the queue reaches that label.
func (e *Engine) propagateForallsAcrossNewEdge(x, y graph.NodeID, roleEntry z.Entry, dep depset.Set) {
	matches := func(transRole, edgeRole roles.ID) bool {
		return e.rb.IsSubRoleOf(edgeRole, transRole)
	}
	for _, bp := range e.g.Node(x).Labels() {
		if !bp.IsPos() {
			continue
		}
		n := e.d.Get(bp)
		if n.Kind != dag.KindForall {
			continue
		}
		role := e.rb.Role(roles.ID(n.Role))
		if role == nil {
			continue
		}
		aut := role.Automaton()
		if aut == nil {
			continue
		}
		ldep, _ := e.g.Node(x).LabelDep(bp)
		states := aut.Step(aut.Initial(), roles.ID(roleEntry), matches)
		if !aut.Accepts(states) {
			continue
		}
		e.enqueueLabel(y, n.Filler, depset.Union(dep, ldep))
	}
}

// parseFacets parses the canonical interval syntax "[min,max)" emitted
// by dag.MkDataExpr, where either bound may be empty (unbounded) and
// each bracket character selects inclusive ('[' ']') or exclusive
// ('(' ')').
func parseFacets(facets string, kind datatype.Kind) (datatype.Interval, error) {
	facets = strings.TrimSpace(facets)
	if len(facets) < 2 {
		return datatype.Interval{}, strconv.ErrSyntax
	}
	loIncl := facets[0] == '['
	hiIncl := facets[len(facets)-1] == ']'
	body := facets[1 : len(facets)-1]
	parts := strings.SplitN(body, ",", 2)
	var iv datatype.Interval
	if lo := strings.TrimSpace(parts[0]); lo != "" {
		v, err := kind.Parse(lo)
		if err != nil {
			return datatype.Interval{}, err
		}
		iv.Min = &datatype.Bound{Value: v, Inclusive: loIncl}
	}
	if len(parts) > 1 {
		if hi := strings.TrimSpace(parts[1]); hi != "" {
			v, err := kind.Parse(hi)
			if err != nil {
				return datatype.Interval{}, err
			}
			iv.Max = &datatype.Bound{Value: v, Inclusive: hiIncl}
		}
	}
	return iv, nil
}
