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

package codegen

import (
	"github.com/pkg/errors"

	"github.com/patrickdet/scryer-prolog/wam"
)

// preludeClauses defines the control predicates and a handful of list
// predicates in terms of call/1 and cut. If-then-else gets dedicated
// clauses ahead of plain disjunction; their cut removes the disjunction's
// own clause choice, so the else branch is never tried once the condition
// has committed.
func preludeClauses() [][]wam.Term {
	p, q, r := wam.Var("P"), wam.Var("Q"), wam.Var("R")
	x, t, l, h := wam.Var("X"), wam.Var("T"), wam.Var("L"), wam.Var("H")
	n, m0 := wam.Var("N"), wam.Var("M")
	return [][]wam.Term{
		{wam.Comp(",", p, q), wam.Comp("call", p), wam.Comp("call", q)},

		{wam.Comp(";", wam.Comp("->", p, q), wam.Var("_")),
			wam.Comp("call", p), wam.Atom("!"), wam.Comp("call", q)},
		{wam.Comp(";", wam.Comp("->", wam.Var("_"), wam.Var("_")), r),
			wam.Atom("!"), wam.Comp("call", r)},
		{wam.Comp(";", p, wam.Var("_")), wam.Comp("call", p)},
		{wam.Comp(";", wam.Var("_"), q), wam.Comp("call", q)},

		{wam.Comp("->", p, q), wam.Comp("call", p), wam.Atom("!"), wam.Comp("call", q)},

		{wam.Comp("once", p), wam.Comp("call", p), wam.Atom("!")},

		{wam.Comp("\\+", p), wam.Comp("call", p), wam.Atom("!"), wam.Atom("fail")},
		{wam.Comp("\\+", wam.Var("_"))},

		{wam.Comp("not", p), wam.Comp("\\+", p)},

		{wam.Comp("member", x, wam.List{Items: []wam.Term{x}, Tail: wam.Var("_")})},
		{wam.Comp("member", x, wam.List{Items: []wam.Term{wam.Var("_")}, Tail: t}),
			wam.Comp("member", x, t)},

		{wam.Comp("append", wam.ListOf(), l, l)},
		{wam.Comp("append",
			wam.List{Items: []wam.Term{h}, Tail: t},
			l,
			wam.List{Items: []wam.Term{h}, Tail: r}),
			wam.Comp("append", t, l, r)},

		{wam.Comp("length", wam.ListOf(), wam.Int(0))},
		{wam.Comp("length", wam.List{Items: []wam.Term{wam.Var("_")}, Tail: t}, n),
			wam.Comp("length", t, m0),
			wam.Comp("is", n, wam.Comp("+", m0, wam.Int(1)))},

		{wam.Comp("between", l, h, l), wam.Comp("=<", l, h)},
		{wam.Comp("between", l, h, x),
			wam.Comp("<", l, h),
			wam.Comp("is", n, wam.Comp("+", l, wam.Int(1))),
			wam.Comp("between", n, h, x)},
	}
}

// Prelude compiles and registers the bootstrap predicates on m. It is meant
// to run once, right after the machine is created.
func (c *Compiler) Prelude(m *wam.Machine) error {
	for _, cl := range preludeClauses() {
		fn, compiled, err := c.Clause(cl[0], cl[1:]...)
		if err != nil {
			return errors.Wrapf(err, "prelude clause %v", cl[0])
		}
		m.AddClause(fn, compiled)
	}
	return nil
}
