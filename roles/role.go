// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package roles implements the role box: role hierarchy, inverses,
// transitivity, compositions, disjointness and the automata that
// realize complex role inclusions. Roles live in an arena of structs
// with cross-references as small integer ids rather than pointers
// into a GC'd web of cycles.
package roles

import (
	"fmt"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/z"
)

// ID identifies a role within a Box. Role ids are dense and start at
// 1; id 0 is reserved (RoleNull).
type ID uint32

const RoleNull ID = 0

// Composition is a told role-inclusion chain R1∘R2∘...∘Rn ⊑ Super.
type Composition struct {
	Chain []ID
	Super ID
}

// Role is one entry in the role box. It embeds entity.Named: a role
// is a classifiable named entry exactly as a concept or individual is.
type Role struct {
	*entity.Named

	id ID

	Inverse ID // RoleNull until SetInverse names one

	Transitive bool
	Reflexive  bool
	Functional bool
	DataRole   bool

	// Simple is true iff the role has no transitive sub-role; computed
	// at Finalize.
	Simple bool

	// TopFunctional is true iff Functional and no functional proper
	// ancestor; computed at Finalize.
	TopFunctional bool

	// FunctionalBP is the DAG pointer Forall(role, Top) used to carry
	// the functional flag into tableau expansion.
	FunctionalBP z.BP

	DomainBP z.BP

	toldSupers []ID // R declared sub-role of these
	toldSubs   []ID // reverse adjacency, filled as supers are declared

	ancestors   bitset // closure of toldSupers, indexed by ID
	descendants bitset // closure of toldSubs, indexed by ID

	disjointTold []ID
	disjointAll  bitset // closure over descendants, indexed by (2*ID + polarity)

	compositions []Composition
	automaton    *Automaton
}

func (r *Role) String() string {
	return fmt.Sprintf("role(%s)", r.Name)
}

// Box owns every role declared in a KB and finalizes their closures,
// bitmaps and automata in one pass.
type Box struct {
	dag      *dag.DAG
	roles    []*Role // index 0 unused (RoleNull)
	byName   map[string]ID
	finalized bool
}

// NewBox creates an empty role box backed by dag for functional-flag
// and domain/range pointers.
func NewBox(d *dag.DAG) *Box {
	return &Box{
		dag:    d,
		roles:  make([]*Role, 1),
		byName: make(map[string]ID),
	}
}

// AddRole declares (or looks up) a role by name.
func (b *Box) AddRole(name string) ID {
	if id, ok := b.byName[name]; ok {
		return id
	}
	id := ID(len(b.roles))
	r := &Role{
		Named: entity.New(name, int32(id)),
		id:    id,
	}
	b.roles = append(b.roles, r)
	b.byName[name] = id
	return id
}

// Role returns the role for id, or nil if id is RoleNull or unknown.
func (b *Box) Role(id ID) *Role {
	if id == RoleNull || int(id) >= len(b.roles) {
		return nil
	}
	return b.roles[id]
}

// Lookup returns the role id for name, and whether it was found.
func (b *Box) Lookup(name string) (ID, bool) {
	id, ok := b.byName[name]
	return id, ok
}

// Len returns the number of roles declared, including RoleNull.
func (b *Box) Len() int {
	return len(b.roles)
}

// SetInverse declares r and s as mutual inverses. Calling it twice
// with operands swapped is a no-op thanks to the symmetric write
// below.
func (b *Box) SetInverse(r, s ID) {
	b.roles[r].Inverse = s
	b.roles[s].Inverse = r
}

// SetTransitive marks r transitive. r's inverse is not marked, here or
// by Finalize.
func (b *Box) SetTransitive(r ID) {
	b.roles[r].Transitive = true
}

// SetReflexive marks r reflexive.
func (b *Box) SetReflexive(r ID) {
	b.roles[r].Reflexive = true
}

// SetFunctional marks r functional and interns its functional-flag DAG
// node.
func (b *Box) SetFunctional(r ID) {
	role := b.roles[r]
	role.Functional = true
	role.FunctionalBP = b.dag.MarkFunctional(z.Entry(r))
}

// SetDataRole marks r as a role relating individuals to data values.
func (b *Box) SetDataRole(r ID) {
	b.roles[r].DataRole = true
}

// AddSubRole declares sub ⊑ super.
func (b *Box) AddSubRole(sub, super ID) {
	b.roles[sub].toldSupers = append(b.roles[sub].toldSupers, super)
	b.roles[super].toldSubs = append(b.roles[super].toldSubs, sub)
}

// AddDisjoint declares r and s pairwise disjoint.
func (b *Box) AddDisjoint(r, s ID) {
	b.roles[r].disjointTold = append(b.roles[r].disjointTold, s)
	b.roles[s].disjointTold = append(b.roles[s].disjointTold, r)
}

// AddComposition declares the complex role inclusion chain ⊑ super.
func (b *Box) AddComposition(chain []ID, super ID) {
	b.roles[super].compositions = append(b.roles[super].compositions, Composition{Chain: append([]ID{}, chain...), Super: super})
}

// SetDomain records C as the domain of r. The range of r is the
// domain of r's inverse, so there is no separate SetRange: callers
// call SetDomain on the inverse role.
func (b *Box) SetDomain(r ID, c z.BP) {
	b.roles[r].DomainBP = c
}

// Domain returns r's domain expression.
func (b *Box) Domain(r ID) z.BP {
	return b.roles[r].DomainBP
}

// Range returns r's range expression: the domain of r's inverse.
func (b *Box) Range(r ID) z.BP {
	inv := b.roles[r].Inverse
	if inv == RoleNull {
		return z.BPNull
	}
	return b.roles[inv].DomainBP
}

// Names returns every declared role's name, in declaration (id) order,
// for collaborators (persist) that need to walk the box deterministically.
func (b *Box) Names() []string {
	out := make([]string, 0, len(b.roles)-1)
	for _, r := range b.roles[1:] {
		out = append(out, r.Name)
	}
	return out
}

// ToldSupers returns the told (pre-Finalize) super-roles of r, in
// declaration order.
func (r *Role) ToldSupers() []ID {
	return append([]ID(nil), r.toldSupers...)
}

// DisjointTold returns the told (pre-Finalize) pairwise-disjoint roles
// of r, in declaration order.
func (r *Role) DisjointTold() []ID {
	return append([]ID(nil), r.disjointTold...)
}

// CompositionsTold returns the told complex role inclusions whose
// super-role is r.
func (r *Role) CompositionsTold() []Composition {
	return append([]Composition(nil), r.compositions...)
}
