// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package kb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

func names(ns []*entity.Named) map[string]bool {
	out := make(map[string]bool, len(ns))
	for _, n := range ns {
		out[n.Name] = true
	}
	return out
}

func TestStatusMachine(t *testing.T) {
	k := New()
	require.Equal(t, StatusEmpty, k.Status())

	a := k.GetConcept("A")
	b := k.GetConcept("B")
	require.NoError(t, k.Implies(a, b.BP))
	require.Equal(t, StatusLoading, k.Status())

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusCChecked, k.Status())

	require.NoError(t, k.ClassifyKB())
	require.Equal(t, StatusClassified, k.Status())

	require.NoError(t, k.RealiseKB())
	require.Equal(t, StatusRealised, k.Status())
}

func TestToldSubsumptionChain(t *testing.T) {
	// A ⊑ B, B ⊑ C: A ⊑ C must follow, and A's direct parent is B.
	k := New()
	a := k.GetConcept("A")
	b := k.GetConcept("B")
	c := k.GetConcept("C")
	require.NoError(t, k.Implies(a, b.BP))
	require.NoError(t, k.Implies(b, c.BP))

	got, err := k.IsSubsumedBy(a.BP, c.BP)
	require.NoError(t, err)
	require.True(t, got)

	parents, err := k.GetParents(a)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"B": true}, names(parents))
}

func TestNominalMergeForcedByAtMost(t *testing.T) {
	// a has an R-successor b and at most one R-successor in total;
	// telling R(a,c) as well forces c = b.
	k := New()
	r := k.GetRole("R")
	a := k.GetIndividual("a")
	b := k.GetIndividual("b")
	c := k.GetIndividual("c")
	d := k.DAG()
	require.NoError(t, k.InstanceOf(a, d.Exists(z.Entry(r), b.BP)))
	require.NoError(t, k.InstanceOf(a, d.AtMost(1, z.Entry(r), d.Top())))
	require.NoError(t, k.RelatedTo(a, c, r))

	same, err := k.IsEquivalent(b.BP, c.BP)
	require.NoError(t, err)
	require.True(t, same)
}

func TestRoleChainPropagation(t *testing.T) {
	// R∘S ⊑ T with R(a,b), S(b,c): T(a,c) must be entailed.
	k := New()
	r := k.GetRole("R")
	s := k.GetRole("S")
	tr := k.GetRole("T")
	require.NoError(t, k.RoleChain([]roles.ID{r, s}, tr))
	a := k.GetIndividual("a")
	b := k.GetIndividual("b")
	c := k.GetIndividual("c")
	require.NoError(t, k.RelatedTo(a, b, r))
	require.NoError(t, k.RelatedTo(b, c, s))

	insts, err := k.GetInstances(k.DAG().Exists(z.Entry(tr), c.BP))
	require.NoError(t, err)
	require.True(t, names(insts)["a"], "a should be an instance of ∃T.{c}")
}

func TestDatatypeIntervalInconsistency(t *testing.T) {
	// C ⊑ ∃age.[18,) with age(a,10) and C(a) is inconsistent.
	k := New()
	k.GetDatatype("integer", datatype.IntegerKind{})
	age := k.GetDataRole("age", "integer")
	c := k.GetConcept("C")
	d := k.DAG()
	adult := d.Exists(z.Entry(age), d.MkDataExpr("integer", "[18,)"))
	require.NoError(t, k.Implies(c, adult))
	a := k.GetIndividual("a")
	require.NoError(t, k.DataValue(a, age, "10"))
	require.NoError(t, k.InstanceOf(a, c.BP))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCyclicToldSubsumersBecomeSynonyms(t *testing.T) {
	// A ⊑ B, B ⊑ A: one taxonomy vertex holding both.
	k := New()
	a := k.GetConcept("A")
	b := k.GetConcept("B")
	require.NoError(t, k.Implies(a, b.BP))
	require.NoError(t, k.Implies(b, a.BP))
	require.NoError(t, k.ClassifyKB())

	eqs, err := k.GetEquivalents(a)
	require.NoError(t, err)
	got := names(eqs)
	require.True(t, got["A"] && got["B"], "A and B should share one vertex, got %v", got)
}

func TestFunctionalRoleMergesFillers(t *testing.T) {
	// functional(R), R(a,b), R(a,c): b and c denote one individual.
	k := New()
	r := k.GetRole("R")
	require.NoError(t, k.Functional(r))
	a := k.GetIndividual("a")
	b := k.GetIndividual("b")
	c := k.GetIndividual("c")
	require.NoError(t, k.RelatedTo(a, b, r))
	require.NoError(t, k.RelatedTo(a, c, r))

	same, err := k.IsEquivalent(b.BP, c.BP)
	require.NoError(t, err)
	require.True(t, same)
}

func TestDisjointConceptsInconsistentInstance(t *testing.T) {
	k := New()
	a := k.GetConcept("A")
	b := k.GetConcept("B")
	require.NoError(t, k.Disjoint(a, b))
	x := k.GetIndividual("x")
	require.NoError(t, k.InstanceOf(x, a.BP))
	require.NoError(t, k.InstanceOf(x, b.BP))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRealisationTypes(t *testing.T) {
	k := New()
	person := k.GetConcept("Person")
	animal := k.GetConcept("Animal")
	require.NoError(t, k.Implies(person, animal.BP))
	a := k.GetIndividual("alice")
	require.NoError(t, k.InstanceOf(a, person.BP))

	types, err := k.GetTypes(a)
	require.NoError(t, err)
	require.True(t, names(types)["Person"], "alice's most specific type should be Person, got %v", names(types))

	insts, err := k.GetInstances(animal.BP)
	require.NoError(t, err)
	require.True(t, names(insts)["alice"])
}

func TestDomainAndRangeEnforced(t *testing.T) {
	k := New()
	r := k.GetRole("R")
	person := k.GetConcept("Person")
	company := k.GetConcept("Company")
	require.NoError(t, k.Domain(r, person.BP))
	require.NoError(t, k.Range(r, company.BP))
	a := k.GetIndividual("a")
	b := k.GetIndividual("b")
	require.NoError(t, k.RelatedTo(a, b, r))

	insts, err := k.GetInstances(person.BP)
	require.NoError(t, err)
	require.True(t, names(insts)["a"], "R's subject falls under its domain")
	require.False(t, names(insts)["b"])

	insts, err = k.GetInstances(company.BP)
	require.NoError(t, err)
	require.True(t, names(insts)["b"], "R's object falls under its range")
}

func TestDisjointRolesClashOnSharedEdge(t *testing.T) {
	k := New()
	r := k.GetRole("R")
	s := k.GetRole("S")
	require.NoError(t, k.DisjointRoles(r, s))
	a := k.GetIndividual("a")
	b := k.GetIndividual("b")
	require.NoError(t, k.RelatedTo(a, b, r))
	require.NoError(t, k.RelatedTo(a, b, s))

	ok, err := k.IsConsistent()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClearResetsToEmpty(t *testing.T) {
	k := New()
	a := k.GetConcept("A")
	require.NoError(t, k.Implies(a, k.GetConcept("B").BP))
	_, err := k.IsConsistent()
	require.NoError(t, err)

	k.Clear()
	require.Equal(t, StatusEmpty, k.Status())
	require.True(t, k.IsEmpty())
}

func TestInterruptCancelsQuery(t *testing.T) {
	k := New()
	a := k.GetConcept("A")
	require.NoError(t, k.Implies(a, k.GetConcept("B").BP))
	x := k.GetIndividual("x")
	require.NoError(t, k.InstanceOf(x, a.BP))
	k.Cancel()
	_, err := k.IsConsistent()
	require.Error(t, err)
}
