// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package script implements the line-oriented axiom and query script
// the sroiq CLI reads: one statement per line, '#' comments, concept
// expressions written as s-expressions. It drives a kb.KB entirely
// through its exported Tell/Ask surface and is deliberately not an
// XML/KRSS/OWL front end — those belong to external collaborators.
package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/kb"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// Interp evaluates script statements against one KB, writing each
// ask's answer to out as a single line.
type Interp struct {
	k   *kb.KB
	out io.Writer
}

// New returns an interpreter over k writing answers to out.
func New(k *kb.KB, out io.Writer) *Interp {
	return &Interp{k: k, out: out}
}

// ExecFile runs every statement in the named file.
func (in *Interp) ExecFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return kberr.Wrap(kberr.SyntaxError, "script: open "+path, err)
	}
	defer f.Close()
	return in.Exec(f, path)
}

// Exec runs every statement read from r. name labels error messages.
func (in *Interp) Exec(r io.Reader, name string) error {
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := in.ExecLine(line); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineno, err)
		}
	}
	if err := sc.Err(); err != nil {
		return kberr.Wrap(kberr.SyntaxError, "script: read "+name, err)
	}
	return nil
}

// ExecLine runs one statement.
func (in *Interp) ExecLine(line string) error {
	toks := tokenize(line)
	if len(toks) == 0 {
		return nil
	}
	p := &parser{k: in.k, toks: toks}
	head := p.next()
	switch head {

	// --- declarations ---
	case "concept":
		name, err := p.atom()
		if err != nil {
			return err
		}
		in.k.GetConcept(name)
		return p.end()
	case "individual":
		name, err := p.atom()
		if err != nil {
			return err
		}
		in.k.GetIndividual(name)
		return p.end()
	case "role":
		name, err := p.atom()
		if err != nil {
			return err
		}
		in.k.GetRole(name)
		return p.end()
	case "datarole":
		name, err := p.atom()
		if err != nil {
			return err
		}
		kindName, err := p.atom()
		if err != nil {
			return err
		}
		if err := in.registerKind(kindName); err != nil {
			return err
		}
		in.k.GetDataRole(name, kindName)
		return p.end()
	case "datatype":
		// datatype <name> enum v1 v2 ...
		name, err := p.atom()
		if err != nil {
			return err
		}
		shape, err := p.atom()
		if err != nil {
			return err
		}
		if shape != "enum" {
			return kberr.New(kberr.SyntaxError, "script: datatype supports only enum declarations, got "+shape)
		}
		var vals []string
		for !p.done() {
			v, err := p.atom()
			if err != nil {
				return err
			}
			vals = append(vals, v)
		}
		if len(vals) == 0 {
			return kberr.New(kberr.SyntaxError, "script: enum datatype needs at least one value")
		}
		in.k.GetDatatype(name, datatype.NewStringEnumKind(name, vals...))
		return nil

	// --- TBox tells ---
	case "implies":
		c, err := p.namedConcept()
		if err != nil {
			return err
		}
		d, err := p.expr()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		return in.k.Implies(c, d)
	case "equivalent":
		c, err := p.namedConcept()
		if err != nil {
			return err
		}
		d, err := p.expr()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		return in.k.Equivalent(c, d)
	case "disjoint":
		var cs []*entity.Named
		for !p.done() {
			c, err := p.namedConcept()
			if err != nil {
				return err
			}
			cs = append(cs, c)
		}
		return in.k.Disjoint(cs...)

	// --- role box tells ---
	case "subrole":
		return in.roleRolePair(p, in.k.SubRole)
	case "equivroles":
		return in.roleRolePair(p, in.k.EquivRoles)
	case "invroles":
		return in.roleRolePair(p, in.k.InvRoles)
	case "disjointroles":
		return in.roleRolePair(p, in.k.DisjointRoles)
	case "transitive":
		return in.roleUnary(p, in.k.Transitive)
	case "reflexive":
		return in.roleUnary(p, in.k.Reflexive)
	case "functional":
		return in.roleUnary(p, in.k.Functional)
	case "domain":
		return in.roleExpr(p, in.k.Domain)
	case "range":
		return in.roleExpr(p, in.k.Range)
	case "rolechain":
		// rolechain r1 r2 ... -> s
		var chain []roles.ID
		for {
			tok, err := p.atom()
			if err != nil {
				return err
			}
			if tok == "->" {
				break
			}
			chain = append(chain, in.k.GetRole(tok))
		}
		superName, err := p.atom()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		return in.k.RoleChain(chain, in.k.GetRole(superName))

	// --- ABox tells ---
	case "instance":
		aName, err := p.atom()
		if err != nil {
			return err
		}
		c, err := p.expr()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		return in.k.InstanceOf(in.k.GetIndividual(aName), c)
	case "related":
		aName, err := p.atom()
		if err != nil {
			return err
		}
		rName, err := p.atom()
		if err != nil {
			return err
		}
		bName, err := p.atom()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		return in.k.RelatedTo(in.k.GetIndividual(aName), in.k.GetIndividual(bName), in.k.GetRole(rName))
	case "datavalue":
		aName, err := p.atom()
		if err != nil {
			return err
		}
		rName, err := p.atom()
		if err != nil {
			return err
		}
		lit, err := p.atom()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		rid, ok := in.k.RoleBox().Lookup(rName)
		if !ok {
			return kberr.New(kberr.UndefinedName, "script: datavalue on undeclared data role "+rName)
		}
		return in.k.DataValue(in.k.GetIndividual(aName), rid, lit)

	// --- asks ---
	case "consistent?":
		if err := p.end(); err != nil {
			return err
		}
		ok, err := in.k.IsConsistent()
		if err != nil {
			return err
		}
		return in.answerBool(ok)
	case "sat?":
		c, err := p.expr()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		ok, err := in.k.IsSatisfiable(c)
		if err != nil {
			return err
		}
		return in.answerBool(ok)
	case "subsumed?":
		return in.askPair(p, in.k.IsSubsumedBy)
	case "equivalent?":
		return in.askPair(p, in.k.IsEquivalent)
	case "disjoint?":
		return in.askPair(p, in.k.IsDisjoint)
	case "classify":
		if err := p.end(); err != nil {
			return err
		}
		return in.k.ClassifyKB()
	case "realise":
		if err := p.end(); err != nil {
			return err
		}
		return in.k.RealiseKB()
	case "parents?":
		return in.askVertex(p, in.k.GetParents)
	case "children?":
		return in.askVertex(p, in.k.GetChildren)
	case "equivalents?":
		return in.askVertex(p, in.k.GetEquivalents)
	case "instances?":
		c, err := p.expr()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		got, err := in.k.GetInstances(c)
		if err != nil {
			return err
		}
		return in.answerNames(got)
	case "types?":
		aName, err := p.atom()
		if err != nil {
			return err
		}
		if err := p.end(); err != nil {
			return err
		}
		got, err := in.k.GetTypes(in.k.GetIndividual(aName))
		if err != nil {
			return err
		}
		return in.answerNames(got)

	default:
		return kberr.New(kberr.SyntaxError, "script: unknown statement "+head)
	}
}

func (in *Interp) registerKind(kindName string) error {
	if in.k.Datatype(kindName) != nil {
		return nil
	}
	switch kindName {
	case "integer":
		in.k.GetDatatype("integer", datatype.IntegerKind{})
	case "decimal":
		in.k.GetDatatype("decimal", datatype.DecimalKind{})
	default:
		return kberr.New(kberr.DatatypeMisuse, "script: datatype "+kindName+" not declared; declare enums with a datatype statement first")
	}
	return nil
}

func (in *Interp) roleRolePair(p *parser, tell func(roles.ID, roles.ID) error) error {
	rName, err := p.atom()
	if err != nil {
		return err
	}
	sName, err := p.atom()
	if err != nil {
		return err
	}
	if err := p.end(); err != nil {
		return err
	}
	return tell(in.k.GetRole(rName), in.k.GetRole(sName))
}

func (in *Interp) roleUnary(p *parser, tell func(roles.ID) error) error {
	rName, err := p.atom()
	if err != nil {
		return err
	}
	if err := p.end(); err != nil {
		return err
	}
	return tell(in.k.GetRole(rName))
}

func (in *Interp) roleExpr(p *parser, tell func(roles.ID, z.BP) error) error {
	rName, err := p.atom()
	if err != nil {
		return err
	}
	c, err := p.expr()
	if err != nil {
		return err
	}
	if err := p.end(); err != nil {
		return err
	}
	return tell(in.k.GetRole(rName), c)
}

func (in *Interp) askPair(p *parser, ask func(c, d z.BP) (bool, error)) error {
	c, err := p.expr()
	if err != nil {
		return err
	}
	d, err := p.expr()
	if err != nil {
		return err
	}
	if err := p.end(); err != nil {
		return err
	}
	ok, err := ask(c, d)
	if err != nil {
		return err
	}
	return in.answerBool(ok)
}

func (in *Interp) askVertex(p *parser, ask func(*entity.Named) ([]*entity.Named, error)) error {
	c, err := p.namedConcept()
	if err != nil {
		return err
	}
	if err := p.end(); err != nil {
		return err
	}
	got, err := ask(c)
	if err != nil {
		return err
	}
	return in.answerNames(got)
}

func (in *Interp) answerBool(ok bool) error {
	_, err := fmt.Fprintf(in.out, "%v\n", ok)
	return err
}

func (in *Interp) answerNames(ns []*entity.Named) error {
	names := make([]string, len(ns))
	for i, n := range ns {
		names[i] = n.Name
	}
	sort.Strings(names)
	_, err := fmt.Fprintln(in.out, strings.Join(names, " "))
	return err
}

// tokenize splits a statement into atoms and single-character '(' / ')'
// tokens.
func tokenize(line string) []string {
	var toks []string
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		default:
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '(' && line[i] != ')' {
				i++
			}
			toks = append(toks, line[start:i])
		}
	}
	return toks
}

// parser is a cursor over one statement's tokens.
type parser struct {
	k    *kb.KB
	toks []string
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) next() string {
	if p.done() {
		return ""
	}
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) atom() (string, error) {
	t := p.next()
	if t == "" || t == "(" || t == ")" {
		return "", kberr.New(kberr.SyntaxError, "script: expected a name, got "+strconv.Quote(t))
	}
	return t, nil
}

func (p *parser) end() error {
	if !p.done() {
		return kberr.New(kberr.SyntaxError, "script: trailing tokens after statement: "+strings.Join(p.toks[p.pos:], " "))
	}
	return nil
}

// namedConcept parses a bare concept name (declaring it if new), or
// top/bottom.
func (p *parser) namedConcept() (*entity.Named, error) {
	name, err := p.atom()
	if err != nil {
		return nil, err
	}
	switch name {
	case "top":
		return p.k.TopConcept(), nil
	case "bottom":
		return p.k.BottomConcept(), nil
	}
	return p.k.GetConcept(name), nil
}

// expr parses one concept expression:
//
//	expr := top | bottom | name
//	      | ( not expr )
//	      | ( and expr+ ) | ( or expr+ )
//	      | ( some role expr ) | ( all role expr )
//	      | ( at-least n role expr ) | ( at-most n role expr )
//	      | ( one-of individual )
//	      | ( literal datatype value )
//	      | ( interval datatype lo hi )     -- '*' for an open bound
func (p *parser) expr() (z.BP, error) {
	d := p.k.DAG()
	if p.peek() != "(" {
		name, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		switch name {
		case "top":
			return z.TOP, nil
		case "bottom":
			return z.BOTTOM, nil
		}
		return p.k.GetConcept(name).BP, nil
	}
	p.next() // '('
	op, err := p.atom()
	if err != nil {
		return z.BPNull, err
	}
	var out z.BP
	switch op {
	case "not":
		c, err := p.expr()
		if err != nil {
			return z.BPNull, err
		}
		out = c.Not()
	case "and", "or":
		var children []z.BP
		for p.peek() != ")" && !p.done() {
			c, err := p.expr()
			if err != nil {
				return z.BPNull, err
			}
			children = append(children, c)
		}
		if len(children) == 0 {
			return z.BPNull, kberr.New(kberr.SyntaxError, "script: empty "+op)
		}
		if op == "and" {
			out = d.MkAnd(children...)
		} else {
			out = d.Or(children...)
		}
	case "some", "all":
		rName, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		filler, err := p.expr()
		if err != nil {
			return z.BPNull, err
		}
		r := z.Entry(p.k.GetRole(rName))
		if op == "some" {
			out = d.Exists(r, filler)
		} else {
			out = d.MkForall(r, filler)
		}
	case "at-least", "at-most":
		nStr, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 0 {
			return z.BPNull, kberr.New(kberr.SyntaxError, "script: bad cardinality "+nStr)
		}
		rName, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		filler, err := p.expr()
		if err != nil {
			return z.BPNull, err
		}
		r := z.Entry(p.k.GetRole(rName))
		if op == "at-least" {
			out = d.MkGE(n, r, filler)
		} else {
			out = d.AtMost(n, r, filler)
		}
	case "one-of":
		aName, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		out = p.k.GetIndividual(aName).BP
	case "literal":
		dt, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		val, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		out = d.MkDataValue(dt, val)
	case "interval":
		dt, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		lo, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		hi, err := p.atom()
		if err != nil {
			return z.BPNull, err
		}
		out = d.MkDataExpr(dt, facets(lo, hi))
	default:
		return z.BPNull, kberr.New(kberr.SyntaxError, "script: unknown operator "+op)
	}
	if p.next() != ")" {
		return z.BPNull, kberr.New(kberr.SyntaxError, "script: missing ) after "+op)
	}
	return out, nil
}

// facets renders lo/hi bounds ('*' = open) in the canonical interval
// syntax the tableau's datatype rule parses: inclusive brackets on
// present bounds, exclusive on open ones.
func facets(lo, hi string) string {
	var b strings.Builder
	if lo == "*" {
		b.WriteString("(,")
	} else {
		b.WriteByte('[')
		b.WriteString(lo)
		b.WriteByte(',')
	}
	if hi == "*" {
		b.WriteByte(')')
	} else {
		b.WriteString(hi)
		b.WriteByte(']')
	}
	return b.String()
}
