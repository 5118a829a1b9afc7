// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package persist

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-air/sroiq/kb"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// section literals mark the blocks of a non-empty KB's dump. C, I and
// KB are the dump format's fixed markers, in that order; ROLES,
// DATATYPES, INSTANCES, RELATEDS, DATAVALUES and GLOBALS are this
// package's extension, needed because told subsumers and global
// axioms can reference roles and datatypes that the bare concept and
// individual collections have nowhere to carry.
const (
	secRoles     = "ROLES"
	secDatatypes = "DATATYPES"
	secConcepts  = "C"
	secIndivs    = "I"
	secInstances = "INSTANCES"
	secRelateds  = "RELATEDS"
	secDataVals  = "DATAVALUES"
	secGlobals   = "GLOBALS"
	secEnd       = "KB"
)

func saveErr(cause error) error {
	return kberr.Wrap(kberr.SaveLoadError, "persist.Save", cause)
}

func loadErr(cause error) error {
	return kberr.Wrap(kberr.SaveLoadError, "persist.Load", cause)
}

// Save writes k's full state to w: the three-line header, an Options
// placeholder, then (for a non-empty KB) every role, datatype,
// concept, individual and fact needed to reconstruct it via Load.
func Save(w io.Writer, k *kb.KB) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw); err != nil {
		return saveErr(err)
	}
	status := k.Status()
	if err := writeFramed(bw, int(status)); err != nil {
		return saveErr(err)
	}
	if status == kb.StatusEmpty {
		if err := bw.Flush(); err != nil {
			return saveErr(err)
		}
		return nil
	}

	d := k.DAG()
	rb := k.RoleBox()

	if err := writeSection(bw, secRoles, rb.Names(), func(name string) string {
		id, _ := rb.Lookup(name)
		kindName, _ := k.DataRoleKind(id)
		return encodeRolePayload(d, rb, rb.Role(id), kindName)
	}); err != nil {
		return saveErr(err)
	}

	if err := writeSection(bw, secDatatypes, k.DatatypeNames(), func(name string) string {
		return encodeDatatypePayload(k.Datatype(name))
	}); err != nil {
		return saveErr(err)
	}

	if err := writeSection(bw, secConcepts, k.ConceptNames(), func(name string) string {
		return encodeNamedPayload(d, rb, k.GetConcept(name))
	}); err != nil {
		return saveErr(err)
	}

	if err := writeSection(bw, secIndivs, k.IndividualNames(), func(name string) string {
		return encodeNamedPayload(d, rb, k.GetIndividual(name))
	}); err != nil {
		return saveErr(err)
	}

	instances := k.InstanceFacts()
	if _, err := fmt.Fprintln(bw, secInstances); err != nil {
		return saveErr(err)
	}
	if err := writeFramed(bw, len(instances)); err != nil {
		return saveErr(err)
	}
	for _, f := range instances {
		if _, err := fmt.Fprintln(bw, joinFields(escape(f.Individual.Name), renderExpr(d, rb, f.Concept))); err != nil {
			return saveErr(err)
		}
	}

	relateds := k.RelatedFacts()
	if _, err := fmt.Fprintln(bw, secRelateds); err != nil {
		return saveErr(err)
	}
	if err := writeFramed(bw, len(relateds)); err != nil {
		return saveErr(err)
	}
	for _, f := range relateds {
		line := joinFields(escape(f.A.Name), escape(roleName(rb, z.Entry(f.Role))), escape(f.B.Name))
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return saveErr(err)
		}
	}

	dataVals := k.DataValueFacts()
	if _, err := fmt.Fprintln(bw, secDataVals); err != nil {
		return saveErr(err)
	}
	if err := writeFramed(bw, len(dataVals)); err != nil {
		return saveErr(err)
	}
	for _, f := range dataVals {
		line := joinFields(escape(f.Individual.Name), escape(roleName(rb, z.Entry(f.Role))), escape(f.Literal))
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return saveErr(err)
		}
	}

	globals := k.GlobalAxioms()
	if _, err := fmt.Fprintln(bw, secGlobals); err != nil {
		return saveErr(err)
	}
	if err := writeFramed(bw, len(globals)); err != nil {
		return saveErr(err)
	}
	for _, g := range globals {
		if _, err := fmt.Fprintln(bw, renderExpr(d, rb, g)); err != nil {
			return saveErr(err)
		}
	}

	if _, err := fmt.Fprintln(bw, secEnd); err != nil {
		return saveErr(err)
	}
	return bw.Flush()
}

// writeSection writes one literal marker line followed by the
// collection framing for names, each paired with payload(name).
func writeSection(bw *bufio.Writer, marker string, names []string, payload func(string) string) error {
	if _, err := fmt.Fprintln(bw, marker); err != nil {
		return err
	}
	payloads := make([]string, len(names))
	for i, n := range names {
		payloads[i] = payload(n)
	}
	return writeCollection(bw, names, payloads)
}

// Load reads a dump produced by Save into k, which must be freshly
// constructed: loading into a non-empty KB, or one already in Loading
// status, is rejected. Both are instances of the same precondition,
// kb.KB.IsEmpty.
func Load(r io.Reader, k *kb.KB) error {
	if !k.IsEmpty() {
		return loadErr(fmt.Errorf("target KB is not empty"))
	}
	br := bufio.NewReader(r)

	magic, err := readLine(br)
	if err != nil {
		return loadErr(err)
	}
	if magic != Magic {
		return loadErr(fmt.Errorf("bad magic %q", magic))
	}
	version, err := readLine(br)
	if err != nil {
		return loadErr(err)
	}
	if version != Version {
		return loadErr(fmt.Errorf("version mismatch: dump is %q, reader wants %q", version, Version))
	}
	widthLine, err := readLine(br)
	if err != nil {
		return loadErr(err)
	}
	if widthLine != fmt.Sprintf("%d", intWidth()) {
		return loadErr(fmt.Errorf("native int width mismatch: dump is %q, reader is %d bytes", widthLine, intWidth()))
	}
	optionsLine, err := readLine(br)
	if err != nil {
		return loadErr(err)
	}
	if optionsLine != "Options" {
		return loadErr(fmt.Errorf("expected Options line, got %q", optionsLine))
	}

	statusN, err := readFramed(br)
	if err != nil {
		return loadErr(err)
	}
	status := kb.Status(statusN)
	if status == kb.StatusEmpty {
		return nil
	}

	d := k.DAG()
	rb := k.RoleBox()

	if err := expectSection(br, secRoles); err != nil {
		return loadErr(err)
	}
	roleNames, rolePayloads, err := readCollection(br)
	if err != nil {
		return loadErr(err)
	}
	decodedRoles := make([]rolePayload, len(roleNames))
	for i, name := range roleNames {
		k.GetRole(name) // declare every role before any cross-reference is resolved
		decodedRoles[i], err = decodeRolePayload(rolePayloads[i])
		if err != nil {
			return loadErr(err)
		}
	}
	for i, name := range roleNames {
		rid := k.GetRole(name)
		rp := decodedRoles[i]
		if rp.dataRoleKind != "" {
			k.GetDataRole(name, rp.dataRoleKind)
		}
		if rp.transitive {
			if err := k.Transitive(rid); err != nil {
				return loadErr(err)
			}
		}
		if rp.reflexive {
			if err := k.Reflexive(rid); err != nil {
				return loadErr(err)
			}
		}
		if rp.functional {
			if err := k.Functional(rid); err != nil {
				return loadErr(err)
			}
		}
		if rp.inverse != "" {
			sid := k.GetRole(rp.inverse)
			if err := k.InvRoles(rid, sid); err != nil {
				return loadErr(err)
			}
		}
		if rp.domain != "-" {
			bp, err := parseExpr(d, rb, rp.domain)
			if err != nil {
				return loadErr(err)
			}
			rb.SetDomain(rid, bp)
		}
		for _, sup := range rp.toldSupers {
			sid := k.GetRole(sup)
			if err := k.SubRole(rid, sid); err != nil {
				return loadErr(err)
			}
		}
		for _, dis := range rp.disjoint {
			sid := k.GetRole(dis)
			rb.AddDisjoint(rid, sid)
		}
		for _, chain := range rp.compositions {
			chainIDs := make([]roles.ID, len(chain))
			for j, n := range chain {
				chainIDs[j] = k.GetRole(n)
			}
			rb.AddComposition(chainIDs, rid)
		}
	}

	if err := expectSection(br, secDatatypes); err != nil {
		return loadErr(err)
	}
	dtNames, dtPayloads, err := readCollection(br)
	if err != nil {
		return loadErr(err)
	}
	for i, name := range dtNames {
		kind, err := decodeDatatypePayload(name, dtPayloads[i])
		if err != nil {
			return loadErr(err)
		}
		k.GetDatatype(name, kind)
	}

	if err := expectSection(br, secConcepts); err != nil {
		return loadErr(err)
	}
	conceptNames, conceptPayloads, err := readCollection(br)
	if err != nil {
		return loadErr(err)
	}
	conceptSynonyms := map[string]string{}
	for i, name := range conceptNames {
		n := k.GetConcept(name)
		np, err := decodeNamedPayload(d, rb, conceptPayloads[i])
		if err != nil {
			return loadErr(err)
		}
		n.ToldSubsumers = np.toldSubsumers
		n.Primitive = np.primitive
		n.CompletelyDefined = np.completelyDefined
		if np.synonym != "" {
			conceptSynonyms[name] = np.synonym
		}
	}
	for name, target := range conceptSynonyms {
		k.GetConcept(name).MakeSynonymOf(k.GetConcept(target))
	}

	if err := expectSection(br, secIndivs); err != nil {
		return loadErr(err)
	}
	indivNames, indivPayloads, err := readCollection(br)
	if err != nil {
		return loadErr(err)
	}
	indivSynonyms := map[string]string{}
	for i, name := range indivNames {
		n := k.GetIndividual(name)
		np, err := decodeNamedPayload(d, rb, indivPayloads[i])
		if err != nil {
			return loadErr(err)
		}
		n.ToldSubsumers = np.toldSubsumers
		n.Primitive = np.primitive
		n.CompletelyDefined = np.completelyDefined
		if np.synonym != "" {
			indivSynonyms[name] = np.synonym
		}
	}
	for name, target := range indivSynonyms {
		k.GetIndividual(name).MakeSynonymOf(k.GetIndividual(target))
	}

	if err := expectSection(br, secInstances); err != nil {
		return loadErr(err)
	}
	n, err := readFramed(br)
	if err != nil {
		return loadErr(err)
	}
	for i := 0; i < n; i++ {
		line, err := readLine(br)
		if err != nil {
			return loadErr(err)
		}
		fields, err := splitFields(line, 2)
		if err != nil {
			return loadErr(err)
		}
		a := k.GetIndividual(unescape(fields[0]))
		c, err := parseExpr(d, rb, fields[1])
		if err != nil {
			return loadErr(err)
		}
		if err := k.InstanceOf(a, c); err != nil {
			return loadErr(err)
		}
	}

	if err := expectSection(br, secRelateds); err != nil {
		return loadErr(err)
	}
	n, err = readFramed(br)
	if err != nil {
		return loadErr(err)
	}
	for i := 0; i < n; i++ {
		line, err := readLine(br)
		if err != nil {
			return loadErr(err)
		}
		fields, err := splitFields(line, 3)
		if err != nil {
			return loadErr(err)
		}
		a := k.GetIndividual(unescape(fields[0]))
		rid := k.GetRole(unescape(fields[1]))
		b := k.GetIndividual(unescape(fields[2]))
		if err := k.RelatedTo(a, b, rid); err != nil {
			return loadErr(err)
		}
	}

	if err := expectSection(br, secDataVals); err != nil {
		return loadErr(err)
	}
	n, err = readFramed(br)
	if err != nil {
		return loadErr(err)
	}
	for i := 0; i < n; i++ {
		line, err := readLine(br)
		if err != nil {
			return loadErr(err)
		}
		fields, err := splitFields(line, 3)
		if err != nil {
			return loadErr(err)
		}
		a := k.GetIndividual(unescape(fields[0]))
		rid := k.GetRole(unescape(fields[1]))
		if err := k.DataValue(a, rid, unescape(fields[2])); err != nil {
			return loadErr(err)
		}
	}

	if err := expectSection(br, secGlobals); err != nil {
		return loadErr(err)
	}
	n, err = readFramed(br)
	if err != nil {
		return loadErr(err)
	}
	for i := 0; i < n; i++ {
		line, err := readLine(br)
		if err != nil {
			return loadErr(err)
		}
		bp, err := parseExpr(d, rb, line)
		if err != nil {
			return loadErr(err)
		}
		k.AddGlobalAxiom(bp)
	}

	if err := expectSection(br, secEnd); err != nil {
		return loadErr(err)
	}

	if err := k.RestoreStatus(status); err != nil {
		return loadErr(err)
	}
	return nil
}

func expectSection(br *bufio.Reader, want string) error {
	got, err := readLine(br)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected section %q, got %q", want, got)
	}
	return nil
}
