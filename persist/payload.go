// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package persist

import (
	"fmt"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// namedPayload is the round-trippable per-entry payload for the
// concept and individual collections: told subsumers,
// primitive/definitional status, and synonym resolution.
func encodeNamedPayload(d *dag.DAG, rb *roles.Box, n *entity.Named) string {
	synonym := ""
	if !n.Primary() {
		synonym = n.Resolve().Name
	}
	told := make([]string, len(n.ToldSubsumers))
	for i, bp := range n.ToldSubsumers {
		told[i] = renderExpr(d, rb, bp)
	}
	return joinFields(bit(n.Primitive), bit(n.CompletelyDefined), escape(synonym), joinList(told))
}

type namedPayload struct {
	primitive, completelyDefined bool
	synonym                      string
	toldSubsumers                []z.BP
}

func decodeNamedPayload(d *dag.DAG, rb *roles.Box, s string) (namedPayload, error) {
	fields, err := splitFields(s, 4)
	if err != nil {
		return namedPayload{}, err
	}
	var out namedPayload
	out.primitive = fields[0] == "1"
	out.completelyDefined = fields[1] == "1"
	out.synonym = unescape(fields[2])
	for _, tok := range splitList(fields[3]) {
		bp, err := parseExpr(d, rb, tok)
		if err != nil {
			return namedPayload{}, err
		}
		out.toldSubsumers = append(out.toldSubsumers, bp)
	}
	return out, nil
}

// encodeRolePayload captures every told role-box feature beyond the
// role's bare name: features, inverse, domain, told
// sub-role/disjointness edges and told complex-role-inclusion chains.
// Ancestor/descendant bitmaps, TopFunctional and the compiled automaton
// are all derived at Finalize and are deliberately not saved.
func encodeRolePayload(d *dag.DAG, rb *roles.Box, r *roles.Role, dataRoleKind string) string {
	inverseName := ""
	domain := "-"
	if r.DomainBP != z.BPNull {
		domain = renderExpr(d, rb, r.DomainBP)
	}
	toldSupers := make([]string, 0, len(r.ToldSupers()))
	for _, id := range r.ToldSupers() {
		toldSupers = append(toldSupers, escape(roleName(rb, z.Entry(id))))
	}
	disjoint := make([]string, 0, len(r.DisjointTold()))
	for _, id := range r.DisjointTold() {
		disjoint = append(disjoint, escape(roleName(rb, z.Entry(id))))
	}
	comps := make([]string, 0, len(r.CompositionsTold()))
	for _, c := range r.CompositionsTold() {
		chain := ""
		for i, id := range c.Chain {
			if i > 0 {
				chain += ":"
			}
			chain += escape(roleName(rb, z.Entry(id)))
		}
		comps = append(comps, chain)
	}
	if r.Inverse != roles.RoleNull {
		inverseName = roleName(rb, z.Entry(r.Inverse))
	}
	return joinFields(
		bit(r.Transitive), bit(r.Reflexive), bit(r.Functional), bit(r.DataRole),
		escape(dataRoleKind), escape(inverseName), domain,
		joinList(toldSupers), joinList(disjoint), joinList(comps),
	)
}

type rolePayload struct {
	transitive, reflexive, functional, dataRole bool
	dataRoleKind                                 string
	inverse                                      string
	domain                                       string // rendered expr, or "-" for unset
	toldSupers, disjoint                         []string
	compositions                                 [][]string
}

func decodeRolePayload(s string) (rolePayload, error) {
	fields, err := splitFields(s, 10)
	if err != nil {
		return rolePayload{}, err
	}
	out := rolePayload{
		transitive:   fields[0] == "1",
		reflexive:    fields[1] == "1",
		functional:   fields[2] == "1",
		dataRole:     fields[3] == "1",
		dataRoleKind: unescape(fields[4]),
		inverse:      unescape(fields[5]),
		domain:       fields[6],
	}
	for _, n := range splitList(fields[7]) {
		out.toldSupers = append(out.toldSupers, unescape(n))
	}
	for _, n := range splitList(fields[8]) {
		out.disjoint = append(out.disjoint, unescape(n))
	}
	for _, chain := range splitList(fields[9]) {
		var names []string
		start := 0
		for i := 0; i <= len(chain); i++ {
			if i == len(chain) || chain[i] == ':' {
				names = append(names, unescape(chain[start:i]))
				start = i + 1
			}
		}
		out.compositions = append(out.compositions, names)
	}
	return out, nil
}

// The dtKind tags discriminate the built-in Kind implementations
// (integer, decimal, string enumeration).
const (
	dtKindInteger = "integer"
	dtKindDecimal = "decimal"
	dtKindEnum    = "enum"
)

func encodeDatatypePayload(k datatype.Kind) string {
	switch t := k.(type) {
	case datatype.IntegerKind:
		return joinFields(dtKindInteger, "")
	case datatype.DecimalKind:
		return joinFields(dtKindDecimal, "")
	case *datatype.StringEnumKind:
		vals := make([]string, 0, len(t.Domain()))
		for _, v := range t.Domain() {
			vals = append(vals, escape(v.String()))
		}
		return joinFields(dtKindEnum, joinList(vals))
	default:
		// Unknown Kind implementation supplied by a caller outside
		// this package: persisted as an empty enum so Load at least
		// round-trips the name, not the semantics.
		return joinFields(dtKindEnum, "")
	}
}

func decodeDatatypePayload(name, s string) (datatype.Kind, error) {
	fields, err := splitFields(s, 2)
	if err != nil {
		return nil, err
	}
	switch fields[0] {
	case dtKindInteger:
		return datatype.IntegerKind{}, nil
	case dtKindDecimal:
		return datatype.DecimalKind{}, nil
	case dtKindEnum:
		var vals []string
		for _, v := range splitList(fields[1]) {
			vals = append(vals, unescape(v))
		}
		return datatype.NewStringEnumKind(name, vals...), nil
	default:
		return nil, fmt.Errorf("persist: unknown datatype kind tag %q", fields[0])
	}
}
