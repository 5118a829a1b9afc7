// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package kb

import (
	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// This file is the surface a save/load collaborator (package persist)
// drives the KB through. Persistence is external to the core except
// for the invariants it must preserve; none of this reaches into kb's
// private fields from outside, and kb itself never imports persist.

// RoleBox exposes the role box for a collaborator that needs to walk
// or rebuild role structure (declared roles, their features, told
// hierarchy) beyond what GetRole/SubRole/... already covers one call
// at a time.
func (k *KB) RoleBox() *roles.Box { return k.rb }

// DAG exposes the term DAG so a collaborator can render or reconstruct
// arbitrary concept/role expressions (told subsumers, global axioms)
// by bipolar pointer.
func (k *KB) DAG() *dag.DAG { return k.d }

// ConceptNames and IndividualNames return every declared name, in
// declaration order, independent of the unordered internal maps.
func (k *KB) ConceptNames() []string    { return append([]string(nil), k.conceptOrder...) }
func (k *KB) IndividualNames() []string { return append([]string(nil), k.individualOrder...) }

// DatatypeNames returns every registered datatype kind's name, in
// registration order.
func (k *KB) DatatypeNames() []string { return append([]string(nil), k.datatypeOrder...) }

// Datatype returns the Kind registered under name, or nil.
func (k *KB) Datatype(name string) datatype.Kind { return k.datatypes[name] }

// DataRoleKind reports the datatype kind name a data role was declared
// against, and whether r is a data role at all.
func (k *KB) DataRoleKind(r roles.ID) (string, bool) {
	name, ok := k.dataRoles[r]
	return name, ok
}

// GlobalAxioms returns every general concept inclusion accumulated so
// far (from Implies/Equivalent/Disjoint and any raw AddGlobalAxiom
// call), in the order they were added.
func (k *KB) GlobalAxioms() []z.BP { return append([]z.BP(nil), k.globalAxioms...) }

// AddGlobalAxiom appends bp as a raw global axiom every completion-
// graph node must satisfy, bypassing the bookkeeping Implies/
// Equivalent/Disjoint also do (told-subsumer lists, definedness
// flags). It exists for a collaborator (persist) reconstructing a
// dump's axiom set without re-deriving it through those higher-level
// calls, which would otherwise double the would-be restored told-
// subsumer lists it restores directly onto entity.Named.
func (k *KB) AddGlobalAxiom(bp z.BP) {
	k.enterLoading()
	k.globalAxioms = append(k.globalAxioms, bp)
}

// InstanceFact is one instanceOf(a,C) ABox assertion, exported for
// persist's benefit.
type InstanceFact struct {
	Individual *entity.Named
	Concept    z.BP
}

// RelatedFact is one relatedTo(a,R,b) ABox assertion.
type RelatedFact struct {
	A, B *entity.Named
	Role roles.ID
}

// DataValueFact is one dataValue(a,R,v) ABox assertion.
type DataValueFact struct {
	Individual *entity.Named
	Role       roles.ID
	Literal    string
}

// InstanceFacts, RelatedFacts and DataValueFacts return every asserted
// ABox fact of their kind, in assertion order.
func (k *KB) InstanceFacts() []InstanceFact {
	out := make([]InstanceFact, len(k.instances))
	for i, f := range k.instances {
		out[i] = InstanceFact{Individual: f.a, Concept: f.c}
	}
	return out
}

func (k *KB) RelatedFacts() []RelatedFact {
	out := make([]RelatedFact, len(k.relateds))
	for i, f := range k.relateds {
		out[i] = RelatedFact{A: f.a, B: f.b, Role: f.role}
	}
	return out
}

func (k *KB) DataValueFacts() []DataValueFact {
	out := make([]DataValueFact, len(k.dataFacts))
	for i, f := range k.dataFacts {
		out[i] = DataValueFact{Individual: f.a, Role: f.role, Literal: f.lit}
	}
	return out
}

// RestoreStatus re-derives the KB's lifecycle stage after a bulk load
// by replaying the same elevate() path a normal query would take, so
// a reloaded KB never claims a status (Classified, Realised) it has
// not actually recomputed — there is no incremental classification to
// short-circuit this with. want is the status the dump recorded;
// Empty/Loading need no replay.
func (k *KB) RestoreStatus(want Status) error {
	switch {
	case want.atLeast(StatusRealised):
		return k.RealiseKB()
	case want.atLeast(StatusClassified):
		return k.ClassifyKB()
	case want.atLeast(StatusCChecked):
		_, err := k.IsConsistent()
		return err
	default:
		return nil
	}
}

// IsEmpty reports whether the KB has no declared names and no told
// axioms at all, the precondition persist.Load requires: loading into
// a non-empty KB is rejected.
func (k *KB) IsEmpty() bool {
	return k.status == StatusEmpty &&
		len(k.concepts) == 0 && len(k.individuals) == 0 && k.rb.Len() <= 1
}
