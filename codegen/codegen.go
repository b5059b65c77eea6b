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

// Package codegen compiles clause and query terms into machine code.
//
// Head arguments compile to pattern-build-and-unify sequences against the
// argument registers; body goals build their arguments on the operand stack
// and transfer control with a call instruction. Conjunctions are flattened
// at compile time, so a cut in a clause body commits within its own clause.
package codegen

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/patrickdet/scryer-prolog/atom"
	"github.com/patrickdet/scryer-prolog/wam"
)

// Compiler turns terms into wam code. It only holds the atom table; one
// compiler may serve many machines sharing that table.
type Compiler struct {
	atoms *atom.Table
}

// New returns a compiler interning through the given table.
func New(atoms *atom.Table) *Compiler {
	return &Compiler{atoms: atoms}
}

// Atoms returns the compiler's atom table.
func (c *Compiler) Atoms() *atom.Table { return c.atoms }

// unit is one clause or query under compilation.
type unit struct {
	c      *Compiler
	instrs []wam.Instr

	cells   []wam.Cell
	cellIdx map[wam.Cell]int32
	bigs    []*big.Int
	floats  []float64
	fltIdx  map[float64]int32
	strs    []string
	strIdx  map[string]int32
	fns     []wam.Functor
	fnIdx   map[wam.Functor]int32

	slots    map[string]int32
	seen     map[string]bool
	anonSlot int32 // shared scratch slot for "_", -1 until first use
	nextSlot int32
	order    []string // named slots in first-occurrence order
}

func (c *Compiler) newUnit() *unit {
	return &unit{
		c:        c,
		cellIdx:  make(map[wam.Cell]int32),
		fltIdx:   make(map[float64]int32),
		strIdx:   make(map[string]int32),
		fnIdx:    make(map[wam.Functor]int32),
		slots:    make(map[string]int32),
		seen:     make(map[string]bool),
		anonSlot: -1,
	}
}

func (u *unit) emit(op wam.Op, a, b int32) {
	u.instrs = append(u.instrs, wam.Instr{Op: op, A: a, B: b})
}

func (u *unit) cell(c wam.Cell) int32 {
	if i, ok := u.cellIdx[c]; ok {
		return i
	}
	i := int32(len(u.cells))
	u.cells = append(u.cells, c)
	u.cellIdx[c] = i
	return i
}

func (u *unit) float(f float64) int32 {
	if i, ok := u.fltIdx[f]; ok {
		return i
	}
	i := int32(len(u.floats))
	u.floats = append(u.floats, f)
	u.fltIdx[f] = i
	return i
}

func (u *unit) str(s string) int32 {
	if i, ok := u.strIdx[s]; ok {
		return i
	}
	i := int32(len(u.strs))
	u.strs = append(u.strs, s)
	u.strIdx[s] = i
	return i
}

func (u *unit) fn(name string, arity int) int32 {
	f := wam.Functor{Name: u.c.atoms.Intern(name), Arity: arity}
	if i, ok := u.fnIdx[f]; ok {
		return i
	}
	i := int32(len(u.fns))
	u.fns = append(u.fns, f)
	u.fnIdx[f] = i
	return i
}

func (u *unit) slot(name string) int32 {
	if s, ok := u.slots[name]; ok {
		return s
	}
	s := u.nextSlot
	u.nextSlot++
	u.slots[name] = s
	u.order = append(u.order, name)
	return s
}

func (u *unit) atomCell(name string) wam.Cell {
	return wam.Cell{Tag: wam.TagAtom, Val: int64(u.c.atoms.Intern(name))}
}

func (u *unit) code() *wam.Code {
	return &wam.Code{
		Instrs: u.instrs,
		Cells:  u.cells,
		Bigs:   u.bigs,
		Floats: u.floats,
		Strs:   u.strs,
		Fns:    u.fns,
	}
}

// Clause compiles `head :- body1, ..., bodyN` (no body terms for a fact) and
// returns the predicate key it belongs to.
func (c *Compiler) Clause(head wam.Term, body ...wam.Term) (wam.Functor, *wam.Clause, error) {
	name, args, err := splitHead(head)
	if err != nil {
		return wam.Functor{}, nil, err
	}
	u := c.newUnit()
	u.emit(wam.OpAllocate, 0, 0) // slot count patched below

	for i, a := range args {
		if v, ok := a.(wam.Var); ok && v != "_" && !u.seen[string(v)] {
			u.seen[string(v)] = true
			u.emit(wam.OpLoadArg, u.slot(string(v)), int32(i))
			continue
		}
		if err := u.pushTerm(a); err != nil {
			return wam.Functor{}, nil, err
		}
		u.emit(wam.OpGetArg, int32(i), 0)
	}
	for _, g := range flatten(body) {
		if err := u.goal(g); err != nil {
			return wam.Functor{}, nil, err
		}
	}
	u.emit(wam.OpProceed, 0, 0)
	u.instrs[0].A = u.nextSlot

	fn := wam.Functor{Name: c.atoms.Intern(name), Arity: len(args)}
	cl := &wam.Clause{Code: u.code(), Index: c.argInfo(args)}
	return fn, cl, nil
}

// Query compiles a conjunction of goals into a top-level goal whose named
// variables are reported with each solution.
func (c *Compiler) Query(goals ...wam.Term) (*wam.Goal, error) {
	u := c.newUnit()
	u.emit(wam.OpAllocate, 0, 0)
	for _, g := range flatten(goals) {
		if err := u.goal(g); err != nil {
			return nil, err
		}
	}
	u.emit(wam.OpStop, 0, 0)
	u.instrs[0].A = u.nextSlot

	vars := make([]wam.GoalVar, 0, len(u.order))
	for _, name := range u.order {
		vars = append(vars, wam.GoalVar{Name: name, Slot: int(u.slots[name])})
	}
	return &wam.Goal{Code: u.code(), Vars: vars}, nil
}

func splitHead(head wam.Term) (string, []wam.Term, error) {
	switch h := head.(type) {
	case wam.Atom:
		return string(h), nil, nil
	case wam.Compound:
		if len(h.Args) > 255 {
			return "", nil, errors.Errorf("codegen: head arity %d exceeds the register file", len(h.Args))
		}
		return h.Functor, h.Args, nil
	default:
		return "", nil, errors.Errorf("codegen: clause head must be an atom or compound, got %v", head)
	}
}

// flatten splits every ','/2 conjunction into its conjuncts, recursively.
func flatten(goals []wam.Term) []wam.Term {
	out := make([]wam.Term, 0, len(goals))
	for _, g := range goals {
		if c, ok := g.(wam.Compound); ok && c.Functor == "," && len(c.Args) == 2 {
			out = append(out, flatten(c.Args)...)
			continue
		}
		out = append(out, g)
	}
	return out
}

// goal emits one body goal. A cut compiles to its own instruction; a
// variable goal becomes a call/1 meta-call so the machine checks its
// instantiation at run time.
func (u *unit) goal(g wam.Term) error {
	switch g := g.(type) {
	case wam.Atom:
		if g == "!" {
			u.emit(wam.OpCut, 0, 0)
			return nil
		}
		u.emit(wam.OpCall, u.fn(string(g), 0), 0)
		return nil
	case wam.Var:
		if err := u.pushTerm(g); err != nil {
			return err
		}
		u.emit(wam.OpCall, u.fn("call", 1), 0)
		return nil
	case wam.Compound:
		if g.Functor == "." && len(g.Args) == 2 {
			return errors.Errorf("codegen: list %v is not callable", g)
		}
		if len(g.Args) > 255 {
			return errors.Errorf("codegen: goal arity %d exceeds the register file", len(g.Args))
		}
		for _, a := range g.Args {
			if err := u.pushTerm(a); err != nil {
				return err
			}
		}
		u.emit(wam.OpCall, u.fn(g.Functor, len(g.Args)), 0)
		return nil
	default:
		return errors.Errorf("codegen: goal %v is not callable", g)
	}
}

// pushTerm emits the instructions that build t on the operand stack.
func (u *unit) pushTerm(t wam.Term) error {
	switch t := t.(type) {
	case wam.Atom:
		u.emit(wam.OpPushCell, u.cell(u.atomCell(string(t))), 0)
	case wam.Int:
		u.emit(wam.OpPushCell, u.cell(wam.Cell{Tag: wam.TagInt, Val: int64(t)}), 0)
	case wam.Big:
		if t.V == nil {
			return errors.New("codegen: nil bignum")
		}
		u.bigs = append(u.bigs, t.V)
		u.emit(wam.OpPushBig, int32(len(u.bigs)-1), 0)
	case wam.Float:
		u.emit(wam.OpPushFloat, u.float(float64(t)), 0)
	case wam.Var:
		if t == "_" {
			if u.anonSlot < 0 {
				u.anonSlot = u.nextSlot
				u.nextSlot++
			}
			u.emit(wam.OpPushFresh, u.anonSlot, 0)
			return nil
		}
		name := string(t)
		if !u.seen[name] {
			u.seen[name] = true
			u.emit(wam.OpPushFresh, u.slot(name), 0)
			return nil
		}
		u.emit(wam.OpPushSlot, u.slot(name), 0)
	case wam.Str:
		if len(t) == 0 {
			u.emit(wam.OpPushCell, u.cell(u.atomCell("[]")), 0)
			return nil
		}
		u.emit(wam.OpPushCell, u.cell(u.atomCell("[]")), 0)
		u.emit(wam.OpPushStr, u.str(string(t)), 0)
	case wam.PStr:
		tail := t.Tail
		if tail == nil {
			tail = wam.Atom("[]")
		}
		if err := u.pushTerm(tail); err != nil {
			return err
		}
		if len(t.Prefix) > 0 {
			u.emit(wam.OpPushStr, u.str(t.Prefix), 0)
		}
	case wam.List:
		tail := t.Tail
		if tail == nil {
			tail = wam.Atom("[]")
		}
		for _, it := range t.Items {
			if err := u.pushTerm(it); err != nil {
				return err
			}
		}
		if err := u.pushTerm(tail); err != nil {
			return err
		}
		for range t.Items {
			u.emit(wam.OpPushList, 0, 0)
		}
	case wam.Compound:
		if t.Functor == "." && len(t.Args) == 2 {
			if err := u.pushTerm(t.Args[0]); err != nil {
				return err
			}
			if err := u.pushTerm(t.Args[1]); err != nil {
				return err
			}
			u.emit(wam.OpPushList, 0, 0)
			return nil
		}
		if len(t.Args) == 0 {
			u.emit(wam.OpPushCell, u.cell(u.atomCell(t.Functor)), 0)
			return nil
		}
		for _, a := range t.Args {
			if err := u.pushTerm(a); err != nil {
				return err
			}
		}
		u.emit(wam.OpPushComp, u.fn(t.Functor, len(t.Args)), 0)
	default:
		return errors.Errorf("codegen: cannot compile term %v", t)
	}
	return nil
}

// argInfo classifies the first head argument for first-argument indexing.
func (c *Compiler) argInfo(args []wam.Term) wam.ArgInfo {
	if len(args) == 0 {
		return wam.ArgInfo{Kind: wam.ArgAny}
	}
	switch a := args[0].(type) {
	case wam.Var:
		return wam.ArgInfo{Kind: wam.ArgAny}
	case wam.Atom:
		return wam.ArgInfo{Kind: wam.ArgAtom, Cell: wam.Cell{Tag: wam.TagAtom, Val: int64(c.atoms.Intern(string(a)))}}
	case wam.Int:
		return wam.ArgInfo{Kind: wam.ArgInt, Cell: wam.Cell{Tag: wam.TagInt, Val: int64(a)}}
	case wam.Big, wam.Float:
		return wam.ArgInfo{Kind: wam.ArgOther}
	case wam.Str:
		if len(a) == 0 {
			return wam.ArgInfo{Kind: wam.ArgAtom, Cell: wam.Cell{Tag: wam.TagAtom, Val: int64(c.atoms.Intern("[]"))}}
		}
		return wam.ArgInfo{Kind: wam.ArgList}
	case wam.PStr:
		if len(a.Prefix) > 0 {
			return wam.ArgInfo{Kind: wam.ArgList}
		}
		return wam.ArgInfo{Kind: wam.ArgAny}
	case wam.List:
		if len(a.Items) == 0 && a.Tail == nil {
			return wam.ArgInfo{Kind: wam.ArgAtom, Cell: wam.Cell{Tag: wam.TagAtom, Val: int64(c.atoms.Intern("[]"))}}
		}
		if len(a.Items) == 0 {
			return wam.ArgInfo{Kind: wam.ArgAny}
		}
		return wam.ArgInfo{Kind: wam.ArgList}
	case wam.Compound:
		if a.Functor == "." && len(a.Args) == 2 {
			return wam.ArgInfo{Kind: wam.ArgList}
		}
		if len(a.Args) == 0 {
			return wam.ArgInfo{Kind: wam.ArgAtom, Cell: wam.Cell{Tag: wam.TagAtom, Val: int64(c.atoms.Intern(a.Functor))}}
		}
		return wam.ArgInfo{Kind: wam.ArgStruct, Fn: wam.Functor{Name: c.atoms.Intern(a.Functor), Arity: len(a.Args)}}
	default:
		return wam.ArgInfo{Kind: wam.ArgOther}
	}
}
