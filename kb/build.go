// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package kb

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/graph"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/tableau"
	"github.com/go-air/sroiq/z"
)

// finalizeRoleBox synthesizes an anonymous inverse for every role left
// without one, then calls roles.Box.Finalize once. The inverse
// invariant (R.inverse.inverse ≡ R, non-null after close) holds for
// every role this KB ever declared, not only the ones a told invRoles
// axiom named explicitly.
func (k *KB) finalizeRoleBox() error {
	if k.rbFinalized {
		return nil
	}
	for id := roles.ID(1); int(id) < k.rb.Len(); id++ {
		r := k.rb.Role(id)
		if r == nil || r.Inverse != roles.RoleNull {
			continue
		}
		inv := k.rb.AddRole(fmt.Sprintf("%s$inv", r.Name))
		k.rb.SetInverse(id, inv)
	}
	if err := k.rb.Finalize(); err != nil {
		k.log.Warn("role box finalize failed", zap.Error(err))
		return kberr.Wrap(kberr.RoleBoxInconsistency, "role box finalize", err)
	}
	k.rbFinalized = true
	return nil
}

// extraLabel adds one ad hoc concept label to the graph a check
// builds, either on an existing individual's node (anchor set) or a
// fresh standalone node (anchor nil) used for subsumption/
// satisfiability probes that are not about any particular individual.
type extraLabel struct {
	anchor *entity.Named
	bp     z.BP
}

// checkResult carries one tableau run's outcome plus enough of the
// built graph for the caller to inspect node identity afterward
// (realization's equivalence-via-merge checks need this).
type checkResult struct {
	outcome tableau.Outcome
	stats   tableau.Stats
	g       *graph.Graph
	nodeOf  map[*entity.Named]graph.NodeID
}

// runCheck builds a fresh completion graph from every told TBox and
// ABox axiom plus extras, and runs the tableau engine over it to a
// fixed point. Every query (isConsistent, isSubsumedBy, isSatisfiable,
// instance/type checks) goes through this one builder: there is no
// incremental classification across KB edits, so each query rebuilds
// its model from scratch.
func (k *KB) runCheck(extras ...extraLabel) (checkResult, error) {
	if err := k.finalizeRoleBox(); err != nil {
		return checkResult{}, err
	}
	g := graph.New(k.d)
	eng := tableau.New(k.d, k.rb, g)
	eng.SetInterrupt(k.interrupt)
	for name, kind := range k.datatypes {
		eng.SetKind(name, kind)
	}
	for _, axiom := range k.globalAxioms {
		eng.AddGlobalAxiom(axiom)
	}
	// domain(R,C) holds at every node: either it has no R-successor at
	// all (∀R.⊥) or it satisfies C. Ranges need no axiom of their own,
	// they are the inverse role's domain.
	for id := roles.ID(1); int(id) < k.rb.Len(); id++ {
		if r := k.rb.Role(id); r == nil {
			continue
		}
		if dom := k.rb.Domain(id); dom.Valid() {
			eng.AddGlobalAxiom(k.d.Or(k.d.MkForall(z.Entry(id), z.BOTTOM), dom))
		}
	}

	nodeOf := make(map[*entity.Named]graph.NodeID)
	ensure := func(a *entity.Named) graph.NodeID {
		a = a.Resolve()
		if id, ok := nodeOf[a]; ok {
			return id
		}
		id := g.CreateNode(false, graph.NodeNull)
		g.SetNominal(id, a.BP.Entry())
		eng.RegisterNominal(a.BP.Entry(), id)
		eng.SeedGlobalAxioms(id)
		nodeOf[a] = id
		return id
	}

	for _, f := range k.instances {
		x := ensure(f.a)
		eng.Seed(x, f.c, f.dep)
	}
	for _, f := range k.relateds {
		x, y := ensure(f.a), ensure(f.b)
		role := k.rb.Role(f.role)
		inv := z.Entry(f.role)
		if role != nil && role.Inverse != roles.RoleNull {
			inv = z.Entry(role.Inverse)
		}
		g.CreateEdge(x, y, z.Entry(f.role), inv, f.dep, false)
	}
	for _, f := range k.dataFacts {
		x := ensure(f.a)
		role := k.rb.Role(f.role)
		inv := z.Entry(f.role)
		if role != nil && role.Inverse != roles.RoleNull {
			inv = z.Entry(role.Inverse)
		}
		y := g.CreateNode(true, x)
		g.CreateEdge(x, y, z.Entry(f.role), inv, f.dep, false)
		eng.SeedGlobalAxioms(y)
		kindName := k.dataRoles[f.role]
		lit := k.d.MkDataValue(kindName, f.lit)
		eng.Seed(y, lit, f.dep)
	}
	for _, ex := range extras {
		var x graph.NodeID
		if ex.anchor != nil {
			x = ensure(ex.anchor)
		} else {
			x = g.CreateNode(false, graph.NodeNull)
			eng.SeedGlobalAxioms(x)
		}
		eng.Seed(x, ex.bp, depset.New())
	}

	if _, clashed := eng.SeedCheckDisjointRoles(); clashed {
		k.metrics.ObserveRun(k.id.String(), eng.Stats)
		k.lastStats = eng.Stats
		return checkResult{outcome: tableau.Unsat, stats: eng.Stats, g: g, nodeOf: nodeOf}, nil
	}
	if _, clashed := eng.SeedMergeFunctional(); clashed {
		k.metrics.ObserveRun(k.id.String(), eng.Stats)
		k.lastStats = eng.Stats
		return checkResult{outcome: tableau.Unsat, stats: eng.Stats, g: g, nodeOf: nodeOf}, nil
	}

	outcome := eng.Run()
	k.metrics.ObserveRun(k.id.String(), eng.Stats)
	k.lastStats = eng.Stats
	return checkResult{outcome: outcome, stats: eng.Stats, g: g, nodeOf: nodeOf}, nil
}
