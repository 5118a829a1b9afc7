// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package roles

// Automaton is a small NFA over role labels, used to realize complex
// role inclusions R1∘R2∘...∘Rn ⊑ S during tableau expansion: a path
// r1,...,rk in the completion graph "propagates" a label of S along
// it iff the automaton accepts the word r1...rk. States are plain
// ints; state 0 is always the initial state.
type Automaton struct {
	final        map[int]bool
	trans        map[int][]transition
	nextState    int
}

type transition struct {
	role ID // RoleNull means an epsilon transition
	to   int
}

// NewAutomaton creates an automaton with a single initial state that
// is not yet accepting.
func NewAutomaton() *Automaton {
	a := &Automaton{
		final:     make(map[int]bool),
		trans:     make(map[int][]transition),
		nextState: 1,
	}
	return a
}

// newState allocates and returns a fresh state.
func (a *Automaton) newState() int {
	s := a.nextState
	a.nextState++
	return s
}

// addTrans adds a from--role-->to transition.
func (a *Automaton) addTrans(from int, role ID, to int) {
	a.trans[from] = append(a.trans[from], transition{role: role, to: to})
}

// addEpsilon adds a from--ε-->to transition.
func (a *Automaton) addEpsilon(from, to int) {
	a.addTrans(from, RoleNull, to)
}

// setFinal marks s as an accepting state.
func (a *Automaton) setFinal(s int) {
	a.final[s] = true
}

// closure returns the epsilon-closure of a set of states.
func (a *Automaton) closure(states map[int]bool) map[int]bool {
	out := make(map[int]bool, len(states))
	stack := make([]int, 0, len(states))
	for s := range states {
		out[s] = true
		stack = append(stack, s)
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, tr := range a.trans[s] {
			if tr.role == RoleNull && !out[tr.to] {
				out[tr.to] = true
				stack = append(stack, tr.to)
			}
		}
	}
	return out
}

// Step advances a set of active states by one role-labeled symbol,
// including roles subsumed by it (matches is a function answering "is x
// an ancestor-compatible match for the transition's role", supplied
// by the caller since the Box, not the Automaton, knows the role
// hierarchy).
func (a *Automaton) Step(states map[int]bool, label ID, matches func(trans, label ID) bool) map[int]bool {
	cur := a.closure(states)
	next := make(map[int]bool)
	for s := range cur {
		for _, tr := range a.trans[s] {
			if tr.role != RoleNull && matches(tr.role, label) {
				next[tr.to] = true
			}
		}
	}
	return a.closure(next)
}

// Initial returns the epsilon-closure of the initial state.
func (a *Automaton) Initial() map[int]bool {
	return a.closure(map[int]bool{0: true})
}

// Accepts reports whether any state in states is final.
func (a *Automaton) Accepts(states map[int]bool) bool {
	for s := range states {
		if a.final[s] {
			return true
		}
	}
	return false
}

// Automaton returns r's composition automaton, built at Finalize.
// Nil until the box has been finalized.
func (r *Role) Automaton() *Automaton {
	return r.automaton
}

// buildAutomaton compiles role r's composition chains into a single
// NFA, following three distinct shapes:
//
//   - prepend chain: R1 = r itself (r∘R2∘...∘Rn ⊑ r) loops back to the
//     start state after matching R2..Rn, so further r-labeled edges
//     can restart the chain;
//   - append chain: Rn = r (R1∘...∘Rn-1∘r ⊑ r) accepts as soon as the
//     trailing r is seen, from any point along R1..Rn-1;
//   - general chain: a straight-line path from state 0 to a dedicated
//     final state, one state per chain element;
//   - self-transitive (r∘r ⊑ r, i.e. Transitive) is the degenerate
//     prepend/append chain of length 2; once Transitive contributes
//     the chain [r, r], its first element is r, so the prepend case
//     handles it.
//
// A sub-role s of a chain element that is itself Simple (no
// transitive descendant) can be embedded directly as an edge labeled
// s wherever the chain element's role would be accepted, which Step's
// matches callback implements by checking s against the role
// hierarchy rather than requiring exact equality; buildAutomaton
// itself only ever emits edges labeled with the literal chain roles.
func buildAutomaton(r *Role, chains []Composition) *Automaton {
	a := NewAutomaton()
	if r.Transitive {
		chains = append(chains, Composition{Chain: []ID{r.id, r.id}, Super: r.id})
	}
	if len(chains) == 0 {
		// trivial automaton: a single r-labeled edge from start to an
		// accepting state, so atomic role assertions still "propagate".
		f := a.newState()
		a.addTrans(0, r.id, f)
		a.setFinal(f)
		return a
	}
	for _, comp := range chains {
		n := len(comp.Chain)
		if n == 0 {
			continue
		}
		switch {
		case comp.Chain[0] == r.id:
			// prepend chain: consume chain[0] via a self-loop back to 0,
			// then the rest in a straight line to a final state.
			prev := 0
			a.addTrans(0, comp.Chain[0], 0)
			for i := 1; i < n; i++ {
				next := a.newState()
				a.addTrans(prev, comp.Chain[i], next)
				prev = next
			}
			a.setFinal(prev)
		case comp.Chain[n-1] == r.id:
			// append chain: a straight line through chain[0..n-2], with an
			// r-labeled edge back into the same accepting state from every
			// state along the way (so "R1...Rn-1" can be matched starting
			// anywhere before the trailing r).
			states := make([]int, n)
			states[0] = 0
			for i := 1; i < n-1; i++ {
				states[i] = a.newState()
			}
			f := a.newState()
			for i := 0; i < n-1; i++ {
				a.addTrans(states[i], comp.Chain[i], states[i+1])
			}
			for i := 0; i < n-1; i++ {
				a.addTrans(states[i], comp.Chain[n-1], f)
			}
			a.setFinal(f)
		default:
			prev := 0
			for i := 0; i < n; i++ {
				next := a.newState()
				a.addTrans(prev, comp.Chain[i], next)
				prev = next
			}
			a.setFinal(prev)
		}
	}
	return a
}
