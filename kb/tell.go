// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package kb

import (
	"fmt"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// enterLoading moves Empty -> Loading on the first told axiom.
func (k *KB) enterLoading() {
	if k.status == StatusEmpty {
		k.status = StatusLoading
	}
}

// --- TBox tells ---

// Implies tells C ⊑ D: d becomes a told subsumer of c (feeding the
// taxonomy's told-subsumer scheduling) and the
// equivalent general concept inclusion ¬C⊔D is added as a global
// axiom every completion-graph node must satisfy.
func (k *KB) Implies(c *entity.Named, d z.BP) error {
	if c == nil || !c.BP.Valid() {
		return k.wrap(kberr.UndefinedName, "Implies: nil or undeclared concept")
	}
	k.enterLoading()
	c.ToldSubsumers = append(c.ToldSubsumers, d)
	k.globalAxioms = append(k.globalAxioms, k.d.Or(c.BP.Not(), d))
	return nil
}

// Equivalent tells C ≡ D: both directions of Implies, plus marks c
// completely defined since a direct equivalence gives c's
// definitional form outright. When d is an anonymous expression the
// reverse inclusion is carried as a global axiom only, since there is
// no named entry to attach a told subsumer to.
func (k *KB) Equivalent(c *entity.Named, d z.BP) error {
	if err := k.Implies(c, d); err != nil {
		return err
	}
	if n := k.d.Get(d); n.Kind == dag.KindCName && d.IsPos() {
		if named, ok := k.concepts[n.Name]; ok && named != c {
			if err := k.Implies(named, c.BP); err != nil {
				return err
			}
		}
	} else {
		k.globalAxioms = append(k.globalAxioms, k.d.Or(d.Not(), c.BP))
	}
	c.Primitive = false
	c.CompletelyDefined = true
	return nil
}

// Disjoint tells that every pair among cs is pairwise disjoint: for
// each pair, ¬(Ci ⊓ Cj) is added as a global axiom.
func (k *KB) Disjoint(cs ...*entity.Named) error {
	if len(cs) < 2 {
		return k.wrap(kberr.SyntaxError, "Disjoint: needs at least two concepts")
	}
	for _, c := range cs {
		if c == nil || !c.BP.Valid() {
			return k.wrap(kberr.UndefinedName, "Disjoint: nil or undeclared concept")
		}
	}
	k.enterLoading()
	for i := 0; i < len(cs); i++ {
		for j := i + 1; j < len(cs); j++ {
			k.globalAxioms = append(k.globalAxioms, k.d.MkAnd(cs[i].BP, cs[j].BP).Not())
		}
	}
	return nil
}

// --- Role box tells ---

func (k *KB) checkRole(r roles.ID, op string) error {
	if k.rbFinalized {
		return k.wrap(kberr.RoleBoxInconsistency, fmt.Sprintf("%s: role box already finalized by an earlier query; only the documented reset/reload cycle (Clear) may add role axioms after that", op))
	}
	if k.rb.Role(r) == nil {
		return k.wrap(kberr.UndefinedName, op+": undeclared role")
	}
	return nil
}

// SubRole tells sub ⊑ super.
func (k *KB) SubRole(sub, super roles.ID) error {
	if err := k.checkRole(sub, "SubRole"); err != nil {
		return err
	}
	if err := k.checkRole(super, "SubRole"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.AddSubRole(sub, super)
	return nil
}

// EquivRoles tells R ≡ S: mutual sub-roling, merged into one role at
// Finalize via the role box's told-cycle detection.
func (k *KB) EquivRoles(r, s roles.ID) error {
	if err := k.SubRole(r, s); err != nil {
		return err
	}
	return k.SubRole(s, r)
}

// InvRoles tells R and S are mutual inverses.
func (k *KB) InvRoles(r, s roles.ID) error {
	if err := k.checkRole(r, "InvRoles"); err != nil {
		return err
	}
	if err := k.checkRole(s, "InvRoles"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.SetInverse(r, s)
	return nil
}

// Transitive tells R is transitive.
func (k *KB) Transitive(r roles.ID) error {
	if err := k.checkRole(r, "Transitive"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.SetTransitive(r)
	return nil
}

// Reflexive tells R is reflexive.
func (k *KB) Reflexive(r roles.ID) error {
	if err := k.checkRole(r, "Reflexive"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.SetReflexive(r)
	return nil
}

// Functional tells R is functional.
func (k *KB) Functional(r roles.ID) error {
	if err := k.checkRole(r, "Functional"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.SetFunctional(r)
	return nil
}

// DisjointRoles tells R and S are disjoint: no pair of individuals
// may be related by both. Propagation to sub-roles, symmetry, and the
// common-descendant check happen at role-box finalization.
func (k *KB) DisjointRoles(r, s roles.ID) error {
	if err := k.checkRole(r, "DisjointRoles"); err != nil {
		return err
	}
	if err := k.checkRole(s, "DisjointRoles"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.AddDisjoint(r, s)
	return nil
}

// Domain tells C is the domain of R.
func (k *KB) Domain(r roles.ID, c z.BP) error {
	if err := k.checkRole(r, "Domain"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.SetDomain(r, c)
	return nil
}

// Range tells C is the range of R, stored as the domain of R's
// inverse. If R has no declared inverse yet, an anonymous one is
// created so the domain has somewhere to live; every role has a
// non-null inverse once the role box closes.
func (k *KB) Range(r roles.ID, c z.BP) error {
	if err := k.checkRole(r, "Range"); err != nil {
		return err
	}
	k.enterLoading()
	role := k.rb.Role(r)
	inv := role.Inverse
	if inv == roles.RoleNull {
		inv = k.rb.AddRole(fmt.Sprintf("inv(%s)", role.Name))
		k.rb.SetInverse(r, inv)
	}
	k.rb.SetDomain(inv, c)
	return nil
}

// RoleChain tells the complex role inclusion R1∘R2∘...∘Rn ⊑ super.
func (k *KB) RoleChain(chain []roles.ID, super roles.ID) error {
	if len(chain) == 0 {
		return k.wrap(kberr.SyntaxError, "RoleChain: empty chain")
	}
	for _, r := range chain {
		if err := k.checkRole(r, "RoleChain"); err != nil {
			return err
		}
	}
	if err := k.checkRole(super, "RoleChain"); err != nil {
		return err
	}
	k.enterLoading()
	k.rb.AddComposition(chain, super)
	return nil
}

// --- ABox tells ---

// InstanceOf tells a:C.
func (k *KB) InstanceOf(a *entity.Named, c z.BP) error {
	if a == nil || !a.BP.Valid() {
		return k.wrap(kberr.UndefinedName, "InstanceOf: nil or undeclared individual")
	}
	k.enterLoading()
	k.instances = append(k.instances, instanceFact{a: a, c: c, dep: depset.New()})
	return nil
}

// RelatedTo tells R(a,b).
func (k *KB) RelatedTo(a, b *entity.Named, r roles.ID) error {
	if a == nil || !a.BP.Valid() || b == nil || !b.BP.Valid() {
		return k.wrap(kberr.UndefinedName, "RelatedTo: nil or undeclared individual")
	}
	if k.rb.Role(r) == nil {
		return k.wrap(kberr.UndefinedName, "RelatedTo: undeclared role")
	}
	k.enterLoading()
	k.relateds = append(k.relateds, relatedFact{a: a, b: b, role: r, dep: depset.New()})
	return nil
}

// DataValue tells R(a,v): individual a has data role R valued at the
// literal v, parsed against R's declared datatype.
func (k *KB) DataValue(a *entity.Named, r roles.ID, literal string) error {
	if a == nil || !a.BP.Valid() {
		return k.wrap(kberr.UndefinedName, "DataValue: nil or undeclared individual")
	}
	kindName, ok := k.dataRoles[r]
	if !ok {
		return k.wrap(kberr.DatatypeMisuse, "DataValue: role is not a declared data role")
	}
	kind, ok := k.datatypes[kindName]
	if !ok {
		return k.wrap(kberr.DatatypeMisuse, "DataValue: datatype "+kindName+" not registered")
	}
	if _, err := kind.Parse(literal); err != nil {
		return kberr.Wrap(kberr.DatatypeMisuse, "DataValue: literal does not parse as "+kindName, err)
	}
	k.enterLoading()
	k.dataFacts = append(k.dataFacts, dataFact{a: a, role: r, lit: literal, dep: depset.New()})
	return nil
}
