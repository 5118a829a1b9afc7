// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/z"
)

// renderExpr renders bp as a single-line, round-trippable token: a
// sign character ('+' or '-') followed by the node kind's letter and,
// for non-atomic kinds, a parenthesized argument list. Role operands
// are written by name (via rb) rather than by raw z.Entry, since a
// freshly loaded KB's role ids need not match the dumping KB's.
//
// Grammar (no embedded whitespace):
//
//	expr   := sign kind
//	sign   := '+' | '-'
//	kind   := 'T'                       // Top (negated: Bottom)
//	        | 'C' '(' name ')'           // named concept
//	        | 'I' '(' name ')'           // named individual
//	        | 'A' '(' expr (',' expr)* ')' // And
//	        | 'F' '(' role ',' expr ')'   // Forall
//	        | 'G' '(' n ',' role ',' expr ')' // AtLeast
//	        | 'P' '(' role ')'            // Projection
//	        | 'V' '(' datatype ',' value ')'  // DataValue
//	        | 'E' '(' datatype ',' facets ')' // DataExpr
//
// name/datatype/value/facets are percent-escaped so that '(', ')',
// ',' and '%' itself never appear literally inside a token.
func renderExpr(d *dag.DAG, rb *roles.Box, bp z.BP) string {
	var b strings.Builder
	if bp.IsPos() {
		b.WriteByte('+')
	} else {
		b.WriteByte('-')
	}
	renderNode(&b, d, rb, bp)
	return b.String()
}

func renderNode(b *strings.Builder, d *dag.DAG, rb *roles.Box, bp z.BP) {
	n := d.Get(bp)
	switch n.Kind {
	case dag.KindTop:
		b.WriteByte('T')
	case dag.KindCName:
		b.WriteByte('C')
		b.WriteByte('(')
		b.WriteString(escape(n.Name))
		b.WriteByte(')')
	case dag.KindIName:
		b.WriteByte('I')
		b.WriteByte('(')
		b.WriteString(escape(n.Name))
		b.WriteByte(')')
	case dag.KindAnd:
		b.WriteByte('A')
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(renderExpr(d, rb, c))
		}
		b.WriteByte(')')
	case dag.KindForall:
		b.WriteByte('F')
		b.WriteByte('(')
		b.WriteString(escape(roleName(rb, n.Role)))
		b.WriteByte(',')
		b.WriteString(renderExpr(d, rb, n.Filler))
		b.WriteByte(')')
	case dag.KindAtLeast:
		b.WriteByte('G')
		b.WriteByte('(')
		b.WriteString(strconv.Itoa(n.N))
		b.WriteByte(',')
		b.WriteString(escape(roleName(rb, n.Role)))
		b.WriteByte(',')
		b.WriteString(renderExpr(d, rb, n.Filler))
		b.WriteByte(')')
	case dag.KindProjection:
		b.WriteByte('P')
		b.WriteByte('(')
		b.WriteString(escape(roleName(rb, n.Role)))
		b.WriteByte(')')
	case dag.KindDataValue:
		b.WriteByte('V')
		b.WriteByte('(')
		b.WriteString(escape(n.Data.Datatype))
		b.WriteByte(',')
		b.WriteString(escape(n.Data.Value))
		b.WriteByte(')')
	case dag.KindDataExpr:
		b.WriteByte('E')
		b.WriteByte('(')
		b.WriteString(escape(n.Data.Datatype))
		b.WriteByte(',')
		b.WriteString(escape(n.Data.Facets))
		b.WriteByte(')')
	default:
		b.WriteByte('T')
	}
}

func roleName(rb *roles.Box, e z.Entry) string {
	r := rb.Role(roles.ID(e))
	if r == nil {
		return ""
	}
	return r.Name
}

// exprParser parses tokens produced by renderExpr back into DAG
// entries, declaring any role name it encounters that the role
// collection block did not already declare (defensive: well-formed
// dumps always declare roles first).
type exprParser struct {
	s   string
	pos int
	d   *dag.DAG
	rb  *roles.Box
}

func parseExpr(d *dag.DAG, rb *roles.Box, s string) (z.BP, error) {
	p := &exprParser{s: s, d: d, rb: rb}
	bp, err := p.expr()
	if err != nil {
		return z.BPNull, err
	}
	if p.pos != len(p.s) {
		return z.BPNull, fmt.Errorf("persist: trailing input after expression %q", s)
	}
	return bp, nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *exprParser) next() byte {
	c := p.peek()
	p.pos++
	return c
}

func (p *exprParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("persist: expected %q at %d in %q", c, p.pos, p.s)
	}
	p.pos++
	return nil
}

// field reads up to the next ',' or ')' at the current nesting level,
// un-escaping it.
func (p *exprParser) field() string {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ',' && p.s[p.pos] != ')' {
		p.pos++
	}
	return unescape(p.s[start:p.pos])
}

func (p *exprParser) expr() (z.BP, error) {
	sign := p.next()
	if sign != '+' && sign != '-' {
		return z.BPNull, fmt.Errorf("persist: expected sign, got %q in %q", sign, p.s)
	}
	bp, err := p.node()
	if err != nil {
		return z.BPNull, err
	}
	if sign == '-' {
		bp = bp.Not()
	}
	return bp, nil
}

func (p *exprParser) node() (z.BP, error) {
	kind := p.next()
	switch kind {
	case 'T':
		return z.TOP, nil
	case 'C':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		name := p.field()
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.CName(name), nil
	case 'I':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		name := p.field()
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.IName(name), nil
	case 'A':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		var children []z.BP
		for {
			c, err := p.expr()
			if err != nil {
				return z.BPNull, err
			}
			children = append(children, c)
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.MkAnd(children...), nil
	case 'F':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		rname := p.field()
		if err := p.expect(','); err != nil {
			return z.BPNull, err
		}
		filler, err := p.expr()
		if err != nil {
			return z.BPNull, err
		}
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.MkForall(z.Entry(p.rb.AddRole(rname)), filler), nil
	case 'G':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		nStr := p.field()
		n, err := strconv.Atoi(nStr)
		if err != nil {
			return z.BPNull, fmt.Errorf("persist: bad AtLeast n %q: %w", nStr, err)
		}
		if err := p.expect(','); err != nil {
			return z.BPNull, err
		}
		rname := p.field()
		if err := p.expect(','); err != nil {
			return z.BPNull, err
		}
		filler, err := p.expr()
		if err != nil {
			return z.BPNull, err
		}
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.MkGE(n, z.Entry(p.rb.AddRole(rname)), filler), nil
	case 'P':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		rname := p.field()
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.MkProjection(z.Entry(p.rb.AddRole(rname))), nil
	case 'V':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		dt := p.field()
		if err := p.expect(','); err != nil {
			return z.BPNull, err
		}
		val := p.field()
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.MkDataValue(dt, val), nil
	case 'E':
		if err := p.expect('('); err != nil {
			return z.BPNull, err
		}
		dt := p.field()
		if err := p.expect(','); err != nil {
			return z.BPNull, err
		}
		facets := p.field()
		if err := p.expect(')'); err != nil {
			return z.BPNull, err
		}
		return p.d.MkDataExpr(dt, facets), nil
	default:
		return z.BPNull, fmt.Errorf("persist: unknown node kind %q in %q", kind, p.s)
	}
}
