// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package roles

import "fmt"

// CycleConflictError is returned by Finalize when a told role
// equivalence cycle (R1 ⊑ R2 ⊑ ... ⊑ R1) merges roles whose features
// cannot coexist on one role.
type CycleConflictError struct {
	Roles  []string
	Reason string
}

func (e *CycleConflictError) Error() string {
	return fmt.Sprintf("role cycle %v cannot merge: %s", e.Roles, e.Reason)
}

// DisjointOverlapError is returned when two roles declared disjoint
// nonetheless share a descendant, making the disjointness axiom
// unsatisfiable by construction.
type DisjointOverlapError struct {
	A, B   string
	Common string
}

func (e *DisjointOverlapError) Error() string {
	return fmt.Sprintf("disjoint roles %s and %s share descendant %s", e.A, e.B, e.Common)
}

// DataRoleTransitiveError is returned when a data role (one relating
// individuals to data values) is declared transitive, which SROIQ(D)
// forbids since data values do not participate in role composition.
type DataRoleTransitiveError struct {
	Role string
}

func (e *DataRoleTransitiveError) Error() string {
	return fmt.Sprintf("data role %s cannot be transitive", e.Role)
}

// Finalize closes the role hierarchy and computes every derived
// property the tableau engine and taxonomy builder need: synonym
// cycles are merged, ancestor/descendant bitmaps are built, roles are
// classified Simple or not, functional roles are marked TopFunctional,
// disjointness is propagated to descendants, and every role's
// composition automaton is compiled. It must run exactly once, after
// all roles and axioms are declared and before any tableau expansion.
func (b *Box) Finalize() error {
	if b.finalized {
		return nil
	}
	if err := b.mergeCycles(); err != nil {
		return err
	}
	b.propagateInverseSubRoles()
	b.computeClosures()
	b.computeSimplicity()
	b.computeTopFunctional()
	if err := b.propagateDisjointness(); err != nil {
		return err
	}
	if err := b.checkDataRoles(); err != nil {
		return err
	}
	b.buildAutomata()
	b.finalized = true
	return nil
}

// mergeCycles finds every strongly connected component of the told
// sub-role graph (R ⊑ S edges) with more than one member, merges each
// into a single representative via entity.Named.MakeSynonymOf, and
// unions the merged roles' features onto the representative. Cross-
// cycle edges and compositions are rewritten to the representative so
// the rest of Finalize only ever sees primary roles.
func (b *Box) mergeCycles() error {
	n := len(b.roles)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []ID
	counter := 0
	var sccs [][]ID

	var strongconnect func(v ID)
	strongconnect = func(v ID) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range b.roles[v].toldSupers {
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}
		if lowlink[v] == index[v] {
			var comp []ID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				sccs = append(sccs, comp)
			}
		}
	}
	for id := ID(1); int(id) < n; id++ {
		if index[id] == -1 {
			strongconnect(id)
		}
	}

	for _, comp := range sccs {
		rep := b.roles[comp[0]]
		names := []string{rep.Name}
		for _, id := range comp[1:] {
			r := b.roles[id]
			names = append(names, r.Name)
			if r.Transitive {
				rep.Transitive = true
			}
			if r.Reflexive {
				rep.Reflexive = true
			}
			if r.Functional {
				rep.Functional = true
			}
			if r.DataRole {
				rep.DataRole = true
			}
			rep.compositions = append(rep.compositions, r.compositions...)
			rep.disjointTold = append(rep.disjointTold, r.disjointTold...)
			if rep.DomainBP == 0 {
				rep.DomainBP = r.DomainBP
			}
			r.Named.MakeSynonymOf(rep.Named)
		}
		if rep.DataRole && rep.Transitive {
			return &CycleConflictError{Roles: names, Reason: "merged role is both a data role and transitive"}
		}
	}

	// rewrite every toldSupers/toldSubs/disjointTold/Inverse reference
	// through the synonym resolution so downstream passes only see
	// representatives.
	resolve := func(id ID) ID {
		if id == RoleNull {
			return RoleNull
		}
		return ID(b.roles[id].Named.Resolve().ID)
	}
	for _, r := range b.roles[1:] {
		for i, s := range r.toldSupers {
			r.toldSupers[i] = resolve(s)
		}
		for i, s := range r.toldSubs {
			r.toldSubs[i] = resolve(s)
		}
		for i, s := range r.disjointTold {
			r.disjointTold[i] = resolve(s)
		}
		r.Inverse = resolve(r.Inverse)
		for i := range r.compositions {
			for j, s := range r.compositions[i].Chain {
				r.compositions[i].Chain[j] = resolve(s)
			}
			r.compositions[i].Super = resolve(r.compositions[i].Super)
		}
	}
	return nil
}

// propagateInverseSubRoles adds the mirror image of every told
// sub-role edge: R ⊑ S implies R⁻¹ ⊑ S⁻¹, since R.inv.inv = R for
// every role. tRole.h models a role and its inverse as two entries
// sharing one hierarchy closure; this module achieves the same effect
// by mirroring edges between the two distinct Role values rather than
// packing them into one parity-indexed slot. Roles with no declared
// inverse contribute nothing here.
func (b *Box) propagateInverseSubRoles() {
	type pair struct{ sub, super ID }
	var mirrored []pair
	for _, r := range b.roles[1:] {
		if !r.Primary() || r.Inverse == RoleNull {
			continue
		}
		for _, sup := range r.toldSupers {
			supRole := b.roles[sup]
			if supRole.Inverse == RoleNull {
				continue
			}
			mirrored = append(mirrored, pair{sub: r.Inverse, super: supRole.Inverse})
		}
	}
	for _, m := range mirrored {
		already := false
		for _, s := range b.roles[m.sub].toldSupers {
			if s == m.super {
				already = true
				break
			}
		}
		if !already {
			b.AddSubRole(m.sub, m.super)
		}
	}
}

// computeClosures fills each primary role's ancestors and descendants
// bitmap by fixpoint over toldSupers/toldSubs.
func (b *Box) computeClosures() {
	n := len(b.roles)
	for _, r := range b.roles[1:] {
		if !r.Primary() {
			continue
		}
		r.ancestors = newBitset(n)
		r.descendants = newBitset(n)
	}
	changed := true
	for changed {
		changed = false
		for id := ID(1); int(id) < n; id++ {
			r := b.roles[id]
			if !r.Primary() {
				continue
			}
			for _, sup := range r.toldSupers {
				sup = ID(b.roles[sup].Named.Resolve().ID)
				if !r.ancestors.Test(int(sup)) {
					r.ancestors.Set(int(sup))
					changed = true
				}
				supRole := b.roles[sup]
				for _, a := range supRole.ancestors.Bits() {
					if !r.ancestors.Test(a) {
						r.ancestors.Set(a)
						changed = true
					}
				}
			}
		}
	}
	// descendants are the inverse relation of ancestors.
	for id := ID(1); int(id) < n; id++ {
		r := b.roles[id]
		if !r.Primary() {
			continue
		}
		for _, a := range r.ancestors.Bits() {
			anc := b.roles[ID(a)]
			anc.descendants.Set(int(id))
		}
	}
}

// computeSimplicity marks each primary role Simple when neither it
// nor any descendant is transitive.
func (b *Box) computeSimplicity() {
	for _, r := range b.roles[1:] {
		if !r.Primary() {
			continue
		}
		r.Simple = !r.Transitive
		if r.Simple {
			for _, d := range r.descendants.Bits() {
				if b.roles[ID(d)].Transitive {
					r.Simple = false
					break
				}
			}
		}
	}
}

// computeTopFunctional marks a functional role TopFunctional when no
// proper ancestor is also functional; only top-functional roles need
// a fresh merge rule application in the tableau.
func (b *Box) computeTopFunctional() {
	for _, r := range b.roles[1:] {
		if !r.Primary() || !r.Functional {
			continue
		}
		r.TopFunctional = true
		for _, a := range r.ancestors.Bits() {
			if b.roles[ID(a)].Functional {
				r.TopFunctional = false
				break
			}
		}
	}
}

// propagateDisjointness extends every told Disjoint(R,S) down to each
// role's descendants (a sub-role's edges are a subset of its
// ancestor's, so disjointness is inherited downward) and rejects any
// pair that turns out to share a descendant outright.
func (b *Box) propagateDisjointness() error {
	n := len(b.roles)
	for _, r := range b.roles[1:] {
		if r.Primary() {
			r.disjointAll = newBitset(2 * n)
		}
	}
	closureOf := func(id ID) []ID {
		out := []ID{id}
		for _, d := range b.roles[id].descendants.Bits() {
			out = append(out, ID(d))
		}
		return out
	}
	for _, r := range b.roles[1:] {
		if !r.Primary() {
			continue
		}
		for _, s := range r.disjointTold {
			s = ID(b.roles[s].Named.Resolve().ID)
			rClosure := closureOf(r.id)
			sClosure := closureOf(s)
			for _, rd := range rClosure {
				for _, sd := range sClosure {
					if rd == sd {
						return &DisjointOverlapError{A: r.Name, B: b.roles[s].Name, Common: b.roles[rd].Name}
					}
				}
			}
			for _, rd := range rClosure {
				rdRole := b.roles[rd]
				for _, sd := range sClosure {
					rdRole.disjointAll.Set(int(sd) * 2)
					b.roles[sd].disjointAll.Set(int(rd) * 2)
				}
			}
		}
	}
	return nil
}

// checkDataRoles rejects any data role (post-merge) that ended up
// transitive.
func (b *Box) checkDataRoles() error {
	for _, r := range b.roles[1:] {
		if !r.Primary() {
			continue
		}
		if r.DataRole && r.Transitive {
			return &DataRoleTransitiveError{Role: r.Name}
		}
	}
	return nil
}

// buildAutomata compiles each primary role's composition automaton,
// embedding a role's Simple sub-roles directly as alternative labels
// for that role's transitions (IsSubRoleOf, used as automaton.Step's
// matches callback at tableau time, already walks the ancestor
// bitmap, so buildAutomaton itself only ever emits edges labeled with
// the literal chain roles).
func (b *Box) buildAutomata() {
	for _, r := range b.roles[1:] {
		if !r.Primary() {
			continue
		}
		r.automaton = buildAutomaton(r, r.compositions)
	}
}

// IsSubRoleOf reports whether sub is sub (or equal to) super in the
// finalized role hierarchy, resolving synonyms on both sides.
func (b *Box) IsSubRoleOf(sub, super ID) bool {
	sub = ID(b.roles[sub].Named.Resolve().ID)
	super = ID(b.roles[super].Named.Resolve().ID)
	if sub == super {
		return true
	}
	return b.roles[sub].ancestors.Test(int(super))
}

// Disjoint reports whether r and s are known disjoint after Finalize.
func (b *Box) Disjoint(r, s ID) bool {
	r = ID(b.roles[r].Named.Resolve().ID)
	s = ID(b.roles[s].Named.Resolve().ID)
	return b.roles[r].disjointAll.Test(int(s) * 2)
}
