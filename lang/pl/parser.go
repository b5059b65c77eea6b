// This file is part of scryer-prolog - https://github.com/patrickdet/scryer-prolog
//
// Copyright 2026 The scryer-prolog authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pl reads Prolog program text into terms. It covers the standard
// operator table down to arithmetic, quoted atoms, double-quoted strings,
// lists with tail notation, and both comment forms.
package pl

import (
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/patrickdet/scryer-prolog/wam"
)

type opType uint8

const (
	xfx opType = iota
	xfy
	yfx
	fy
	fx
)

type opDef struct {
	prec int
	typ  opType
}

var infixOps = map[string]opDef{
	":-": {1200, xfx}, "-->": {1200, xfx},
	";": {1100, xfy},
	"->": {1050, xfy},
	",": {1000, xfy},
	"=": {700, xfx}, "\\=": {700, xfx},
	"==": {700, xfx}, "\\==": {700, xfx},
	"@<": {700, xfx}, "@>": {700, xfx}, "@=<": {700, xfx}, "@>=": {700, xfx},
	"is": {700, xfx},
	"=:=": {700, xfx}, "=\\=": {700, xfx},
	"<": {700, xfx}, ">": {700, xfx}, "=<": {700, xfx}, ">=": {700, xfx},
	"+": {500, yfx}, "-": {500, yfx},
	"/\\": {500, yfx}, "\\/": {500, yfx}, "xor": {500, yfx},
	"*": {400, yfx}, "/": {400, yfx}, "//": {400, yfx},
	"mod": {400, yfx}, "rem": {400, yfx}, "div": {400, yfx},
	"<<": {400, yfx}, ">>": {400, yfx},
	"**": {200, xfx}, "^": {200, xfy},
}

var prefixOps = map[string]opDef{
	":-": {1200, fx}, "?-": {1200, fx},
	"\\+": {900, fy},
	"-": {200, fy}, "+": {200, fy}, "\\": {200, fy},
}

type parser struct {
	lx *lexer
}

func (p *parser) errf(line int, format string, args ...interface{}) error {
	return errors.Errorf("line %d: "+format, append([]interface{}{line}, args...)...)
}

// term parses one term whose operators do not exceed maxPrec.
func (p *parser) term(maxPrec int) (wam.Term, error) {
	left, leftPrec, err := p.primary(maxPrec)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.lx.peek()
		var name string
		switch tok.kind {
		case tokAtom:
			name = tok.text
		case tokComma:
			name = ","
		default:
			return left, nil
		}
		def, ok := infixOps[name]
		if !ok || def.prec > maxPrec {
			return left, nil
		}
		leftMax, rightMax := def.prec-1, def.prec-1
		if def.typ == yfx {
			leftMax = def.prec
		}
		if def.typ == xfy {
			rightMax = def.prec
		}
		if leftPrec > leftMax {
			return left, nil
		}
		p.lx.next()
		right, err := p.term(rightMax)
		if err != nil {
			return nil, err
		}
		left = wam.Comp(name, left, right)
		leftPrec = def.prec
	}
}

// primary parses a term without a leading infix operator: literals,
// variables, parenthesized terms, lists, compounds, and prefix-operator
// applications.
func (p *parser) primary(maxPrec int) (wam.Term, int, error) {
	tok := p.lx.next()
	switch tok.kind {
	case tokEOF:
		if p.lx.err != nil {
			return nil, 0, p.lx.err
		}
		return nil, 0, p.errf(tok.line, "unexpected end of input")
	case tokInt:
		t, err := parseInt(tok.text)
		if err != nil {
			return nil, 0, p.errf(tok.line, "bad integer %q", tok.text)
		}
		return t, 0, nil
	case tokFloat:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, 0, p.errf(tok.line, "bad float %q", tok.text)
		}
		return wam.Float(f), 0, nil
	case tokString:
		return wam.Str(tok.text), 0, nil
	case tokVar:
		return wam.Var(tok.text), 0, nil
	case tokOpen:
		t, err := p.term(1200)
		if err != nil {
			return nil, 0, err
		}
		if end := p.lx.next(); end.kind != tokClose {
			return nil, 0, p.errf(end.line, "expected )")
		}
		return t, 0, nil
	case tokOpenB:
		t, err := p.list()
		return t, 0, err
	case tokFunctor:
		args, err := p.argList()
		if err != nil {
			return nil, 0, err
		}
		return wam.Comp(tok.text, args...), 0, nil
	case tokAtom:
		if def, ok := prefixOps[tok.text]; ok && def.prec <= maxPrec && p.operandFollows() {
			if tok.text == "-" || tok.text == "+" {
				if t, ok, err := p.signedNumber(tok.text); ok || err != nil {
					return t, 0, err
				}
			}
			argMax := def.prec
			if def.typ == fx {
				argMax--
			}
			arg, err := p.term(argMax)
			if err != nil {
				return nil, 0, err
			}
			return wam.Comp(tok.text, arg), def.prec, nil
		}
		return wam.Atom(tok.text), 0, nil
	}
	return nil, 0, p.errf(tok.line, "unexpected token")
}

// operandFollows reports whether the next token can begin a term, deciding
// between a prefix operator and the operator name used as a plain atom.
func (p *parser) operandFollows() bool {
	switch tok := p.lx.peek(); tok.kind {
	case tokInt, tokFloat, tokString, tokVar, tokOpen, tokOpenB, tokFunctor:
		return true
	case tokAtom:
		_, isInfix := infixOps[tok.text]
		return !isInfix || tok.text == "-" || tok.text == "+"
	default:
		return false
	}
}

// signedNumber folds a sign directly applied to a numeric literal.
func (p *parser) signedNumber(sign string) (wam.Term, bool, error) {
	tok := p.lx.peek()
	switch tok.kind {
	case tokInt:
		p.lx.next()
		t, err := parseInt(tok.text)
		if err != nil {
			return nil, true, p.errf(tok.line, "bad integer %q", tok.text)
		}
		if sign == "-" {
			t = negate(t)
		}
		return t, true, nil
	case tokFloat:
		p.lx.next()
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, true, p.errf(tok.line, "bad float %q", tok.text)
		}
		if sign == "-" {
			f = -f
		}
		return wam.Float(f), true, nil
	}
	return nil, false, nil
}

func negate(t wam.Term) wam.Term {
	switch t := t.(type) {
	case wam.Int:
		return wam.Int(-t)
	case wam.Big:
		return wam.Big{V: new(big.Int).Neg(t.V)}
	}
	return t
}

func parseInt(s string) (wam.Term, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0b") {
		base = 0
	}
	if n, err := strconv.ParseInt(s, base, 64); err == nil {
		return wam.Int(n), nil
	}
	b, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.Errorf("bad integer %q", s)
	}
	return wam.Big{V: b}, nil
}

// argList parses the comma-separated arguments of a compound up to and
// including the closing paren. Arguments parse at priority 999 so a bare
// comma always separates.
func (p *parser) argList() ([]wam.Term, error) {
	var args []wam.Term
	for {
		a, err := p.term(999)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		switch tok := p.lx.next(); tok.kind {
		case tokComma:
		case tokClose:
			return args, nil
		default:
			return nil, p.errf(tok.line, "expected , or ) in argument list")
		}
	}
}

// list parses a bracketed list after the opening bracket has been consumed.
func (p *parser) list() (wam.Term, error) {
	if p.lx.peek().kind == tokCloseB {
		p.lx.next()
		return wam.Atom("[]"), nil
	}
	var items []wam.Term
	var tail wam.Term
	for {
		it, err := p.term(999)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		tok := p.lx.next()
		switch tok.kind {
		case tokComma:
			continue
		case tokBar:
			tail, err = p.term(999)
			if err != nil {
				return nil, err
			}
			if end := p.lx.next(); end.kind != tokCloseB {
				return nil, p.errf(end.line, "expected ] after list tail")
			}
			return wam.List{Items: items, Tail: tail}, nil
		case tokCloseB:
			return wam.List{Items: items}, nil
		default:
			return nil, p.errf(tok.line, "expected , | or ] in list")
		}
	}
}

// Clause is one program item: a fact or rule, or a directive when Head is
// nil (`:- Goal.` and `?- Goal.` both surface as directives).
type Clause struct {
	Head wam.Term
	Body []wam.Term
}

// conjGoals flattens a ','/2 tree into a goal list.
func conjGoals(t wam.Term) []wam.Term {
	if c, ok := t.(wam.Compound); ok && c.Functor == "," && len(c.Args) == 2 {
		return append(conjGoals(c.Args[0]), conjGoals(c.Args[1])...)
	}
	return []wam.Term{t}
}

func toClause(t wam.Term) Clause {
	if c, ok := t.(wam.Compound); ok {
		switch {
		case c.Functor == ":-" && len(c.Args) == 2:
			return Clause{Head: c.Args[0], Body: conjGoals(c.Args[1])}
		case (c.Functor == ":-" || c.Functor == "?-") && len(c.Args) == 1:
			return Clause{Body: conjGoals(c.Args[0])}
		}
	}
	return Clause{Head: t}
}

// ParseProgram reads clauses and directives until end of input.
func ParseProgram(r io.Reader) ([]Clause, error) {
	p := &parser{lx: newLexer(r)}
	var out []Clause
	for {
		if p.lx.peek().kind == tokEOF {
			if p.lx.err != nil {
				return nil, p.lx.err
			}
			return out, nil
		}
		t, err := p.term(1200)
		if err != nil {
			return nil, err
		}
		if end := p.lx.next(); end.kind != tokEnd {
			return nil, p.errf(end.line, "expected . after clause")
		}
		out = append(out, toClause(t))
	}
}

// ParseQuery reads one goal conjunction, with or without a trailing period.
func ParseQuery(src string) ([]wam.Term, error) {
	p := &parser{lx: newLexer(strings.NewReader(src))}
	t, err := p.term(1200)
	if err != nil {
		return nil, err
	}
	if end := p.lx.next(); end.kind != tokEnd && end.kind != tokEOF {
		return nil, p.errf(end.line, "unexpected input after query")
	}
	return conjGoals(t), nil
}

// ParseTerm reads a single term from src.
func ParseTerm(src string) (wam.Term, error) {
	p := &parser{lx: newLexer(strings.NewReader(src))}
	t, err := p.term(1200)
	if err != nil {
		return nil, err
	}
	if end := p.lx.next(); end.kind != tokEnd && end.kind != tokEOF {
		return nil, p.errf(end.line, "unexpected input after term")
	}
	return t, nil
}
