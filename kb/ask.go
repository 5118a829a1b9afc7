// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package kb

import (
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/tableau"
	"github.com/go-air/sroiq/taxonomy"
	"github.com/go-air/sroiq/z"
)

// elevate moves the status forward to at least min, running whatever
// work that transition implies: invoking a higher-status query
// implicitly elevates a lower-status KB rather than failing.
func (k *KB) elevate(min Status) error {
	if k.status.atLeast(min) {
		return nil
	}
	if k.status == StatusEmpty {
		k.status = StatusLoading
	}
	if min.atLeast(StatusCChecked) {
		ok, err := k.isConsistent()
		if err != nil {
			return err
		}
		if !ok {
			return k.wrap(kberr.Inconsistent, "elevate: knowledge base is inconsistent")
		}
	}
	if min.atLeast(StatusClassified) && !k.status.atLeast(StatusClassified) {
		if err := k.classify(); err != nil {
			return err
		}
	}
	if min.atLeast(StatusRealised) && !k.status.atLeast(StatusRealised) {
		if err := k.realise(); err != nil {
			return err
		}
	}
	return nil
}

// IsConsistent runs the tableau over every told TBox/RBox/ABox axiom
// and reports whether it saturates. It is the only query that does not
// itself require an elevated status: it is what elevates the KB to
// CChecked.
func (k *KB) IsConsistent() (bool, error) {
	ok, err := k.isConsistent()
	if err != nil {
		return false, err
	}
	k.status = StatusCChecked
	outcome := "consistent"
	if !ok {
		outcome = "inconsistent"
	}
	k.metrics.ObserveConsistency(k.id.String(), outcome)
	return ok, nil
}

func (k *KB) isConsistent() (bool, error) {
	res, err := k.runCheck()
	if err != nil {
		return false, err
	}
	if res.outcome == tableau.Cancelled {
		return false, k.wrap(kberr.Cancelled, "isConsistent: interrupted")
	}
	return res.outcome == tableau.Saturated, nil
}

// unsatisfiable reports whether bp, labeled on a fresh anonymous
// individual, ⊓ (every told axiom) has no model: the single primitive
// every subsumption/equivalence/satisfiability query reduces to.
func (k *KB) unsatisfiable(bp z.BP) (bool, error) {
	res, err := k.runCheck(extraLabel{bp: bp})
	if err != nil {
		return false, err
	}
	if res.outcome == tableau.Cancelled {
		return false, k.wrap(kberr.Cancelled, "query interrupted")
	}
	return res.outcome == tableau.Unsat, nil
}

// instanceUnsatisfiable reports whether adding bp to a's own node,
// together with every told axiom and every fact already asserted
// about a, has no model. Unlike unsatisfiable this runs against a's
// real node so its existing relatedTo/dataValue/instanceOf facts are
// in play, the precondition for a sound "a:C" instance test (a:C iff
// KB ∪ {a:¬C} is inconsistent).
func (k *KB) instanceUnsatisfiable(a *entity.Named, bp z.BP) (bool, error) {
	res, err := k.runCheck(extraLabel{anchor: a, bp: bp})
	if err != nil {
		return false, err
	}
	if res.outcome == tableau.Cancelled {
		return false, k.wrap(kberr.Cancelled, "query interrupted")
	}
	return res.outcome == tableau.Unsat, nil
}

// IsSatisfiable reports whether c has a model consistent with the
// KB's told axioms.
func (k *KB) IsSatisfiable(c z.BP) (bool, error) {
	if err := k.elevate(StatusCChecked); err != nil {
		return false, err
	}
	unsat, err := k.unsatisfiable(c)
	if err != nil {
		return false, err
	}
	return !unsat, nil
}

// IsSubsumedBy reports whether c ⊑ d: equivalently, c ⊓ ¬d is
// unsatisfiable.
func (k *KB) IsSubsumedBy(c, d z.BP) (bool, error) {
	if err := k.elevate(StatusCChecked); err != nil {
		return false, err
	}
	unsat, err := k.unsatisfiable(k.d.MkAnd(c, d.Not()))
	if err != nil {
		return false, err
	}
	return unsat, nil
}

// IsEquivalent reports whether c ≡ d: both subsumption directions
// hold. Nominal bipolar pointers (an individual's IName leaf) work
// here exactly as concept pointers do, so this also answers "are a
// and b the same individual" when c, d are both IName bps.
func (k *KB) IsEquivalent(c, d z.BP) (bool, error) {
	cd, err := k.IsSubsumedBy(c, d)
	if err != nil || !cd {
		return false, err
	}
	return k.IsSubsumedBy(d, c)
}

// IsDisjoint reports whether c and d share no model: c ⊓ d is
// unsatisfiable.
func (k *KB) IsDisjoint(c, d z.BP) (bool, error) {
	if err := k.elevate(StatusCChecked); err != nil {
		return false, err
	}
	return k.unsatisfiable(k.d.MkAnd(c, d))
}

func (k *KB) testSubsumption(c, d z.BP) bool {
	ok, _ := k.unsatisfiable(k.d.MkAnd(c, d.Not()))
	return ok
}

// classify builds the taxonomy over every named concept, in addition
// to the implicit consistency elevation callers have already paid
// for. A KB with no told concepts still classifies to a two-vertex
// (Top, Bottom) taxonomy.
func (k *KB) classify() error {
	k.tax = taxonomy.New(k.top, k.bottom, k.testSubsumption, k.namedOfConcept)
	for _, c := range k.concepts {
		k.tax.Classify(c)
	}
	k.status = StatusClassified
	return nil
}

// ClassifyKB elevates the KB to Classified, running a consistency
// check first if one has not already happened.
func (k *KB) ClassifyKB() error {
	return k.elevate(StatusClassified)
}

// realise computes, for every asserted individual, the border of
// classified concepts it is a direct instance of.
func (k *KB) realise() error {
	for _, a := range k.individuals {
		k.typesOf(a)
	}
	k.status = StatusRealised
	return nil
}

// RealiseKB elevates the KB to Realised, classifying first if needed.
func (k *KB) RealiseKB() error {
	return k.elevate(StatusRealised)
}

func (k *KB) typesOf(a *entity.Named) []*entity.Named {
	border := k.tax.DirectTypes(a.BP)
	out := make([]*entity.Named, 0, len(border))
	for _, v := range border {
		out = append(out, v.Equivalents()...)
	}
	return out
}

// GetTypes returns a's most specific classified types. It elevates the
// KB to Realised if it is not already.
func (k *KB) GetTypes(a *entity.Named) ([]*entity.Named, error) {
	if a == nil || !a.BP.Valid() {
		return nil, k.wrap(kberr.UndefinedName, "GetTypes: nil or undeclared individual")
	}
	if err := k.elevate(StatusRealised); err != nil {
		return nil, err
	}
	return k.typesOf(a), nil
}

// GetInstances returns every asserted individual whose types include
// c, i.e. every a with c in GetTypes(a)'s transitive closure upward
// (membership is checked by direct subsumption test, not by walking
// the taxonomy, so it is correct even for an anonymous c that was
// never itself classified).
func (k *KB) GetInstances(c z.BP) ([]*entity.Named, error) {
	if err := k.elevate(StatusCChecked); err != nil {
		return nil, err
	}
	var out []*entity.Named
	for _, a := range k.individuals {
		unsat, err := k.instanceUnsatisfiable(a, c.Not())
		if err != nil {
			return nil, err
		}
		if unsat {
			out = append(out, a)
		}
	}
	return out, nil
}

func (k *KB) vertexOrErr(c *entity.Named, op string) (*taxonomy.Vertex, error) {
	if c == nil || !c.BP.Valid() {
		return nil, k.wrap(kberr.UndefinedName, op+": nil or undeclared concept")
	}
	if err := k.elevate(StatusClassified); err != nil {
		return nil, err
	}
	v := k.tax.VertexOf(c)
	if v == nil {
		return nil, k.wrap(kberr.NotClassified, op+": concept was not found in the classified taxonomy")
	}
	return v, nil
}

// GetParents returns c's immediate (transitively-reduced) classified
// superconcepts.
func (k *KB) GetParents(c *entity.Named) ([]*entity.Named, error) {
	v, err := k.vertexOrErr(c, "GetParents")
	if err != nil {
		return nil, err
	}
	var out []*entity.Named
	for _, p := range v.Parents() {
		out = append(out, p.Equivalents()...)
	}
	return out, nil
}

// GetChildren returns c's immediate (transitively-reduced) classified
// subconcepts.
func (k *KB) GetChildren(c *entity.Named) ([]*entity.Named, error) {
	v, err := k.vertexOrErr(c, "GetChildren")
	if err != nil {
		return nil, err
	}
	var out []*entity.Named
	for _, ch := range v.Children() {
		out = append(out, ch.Equivalents()...)
	}
	return out, nil
}

// GetEquivalents returns every concept found equivalent to c during
// classification, including c itself.
func (k *KB) GetEquivalents(c *entity.Named) ([]*entity.Named, error) {
	v, err := k.vertexOrErr(c, "GetEquivalents")
	if err != nil {
		return nil, err
	}
	return v.Equivalents(), nil
}
