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

package wam

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Term is the structured representation of a logic term at the machine
// boundary. Compiled clauses and queries are built from Terms by the codegen
// package, and solution bindings are handed back as Terms. Inside the machine
// terms only exist as heap cells.
type Term interface {
	fmt.Stringer
	isTerm()
}

// Atom is a symbolic constant.
type Atom string

// Int is a small integer constant.
type Int int64

// Float is a floating-point constant.
type Float float64

// Big is an arbitrary-precision integer constant.
type Big struct{ V *big.Int }

// Var is a named logic variable. Distinct names denote distinct variables
// within one clause or query.
type Var string

// Str is a proper string: the characters followed by the empty list. It
// denotes the same term as the list of its one-char atoms.
type Str string

// Compound is a compound term with at least one argument.
type Compound struct {
	Functor string
	Args    []Term
}

// List is a (possibly improper) list. A nil Tail denotes a proper list.
type List struct {
	Items []Term
	Tail  Term
}

// PStr is a partial string: Prefix characters followed by Tail, which is
// typically an unbound variable or a further list.
type PStr struct {
	Prefix string
	Tail   Term
}

func (Atom) isTerm()     {}
func (Int) isTerm()      {}
func (Float) isTerm()    {}
func (Big) isTerm()      {}
func (Var) isTerm()      {}
func (Str) isTerm()      {}
func (Compound) isTerm() {}
func (List) isTerm()     {}
func (PStr) isTerm()     {}

// Comp builds a compound term. With no arguments it degrades to an Atom.
func Comp(functor string, args ...Term) Term {
	if len(args) == 0 {
		return Atom(functor)
	}
	return Compound{Functor: functor, Args: args}
}

// ListOf builds a proper list of the given items.
func ListOf(items ...Term) Term {
	if len(items) == 0 {
		return Atom("[]")
	}
	return List{Items: items}
}

func (a Atom) String() string  { return string(a) }
func (n Int) String() string   { return strconv.FormatInt(int64(n), 10) }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (b Big) String() string   { return b.V.String() }
func (v Var) String() string   { return string(v) }
func (s Str) String() string   { return strconv.Quote(string(s)) }

func (c Compound) String() string {
	var b strings.Builder
	b.WriteString(c.Functor)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (l List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, t := range l.Items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
	if l.Tail != nil {
		b.WriteByte('|')
		b.WriteString(l.Tail.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (p PStr) String() string {
	return fmt.Sprintf("%q|%v", p.Prefix, p.Tail)
}

// decodeLimit caps the number of heap nodes visited while extracting a term,
// a backstop against cyclic structures built by occurs-check-free
// unification.
const decodeLimit = 1 << 22

// encode writes t onto the heap and returns the representing cell. Variables
// sharing a name share a binding through the vars map (callers pass one map
// per ball/goal being encoded).
func (m *Machine) encode(t Term, vars map[Var]Cell) Cell {
	type frame struct {
		t        Term
		expanded bool
	}
	var (
		work []frame
		out  []Cell // operand stack
	)
	work = append(work, frame{t: t})
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		if !f.expanded {
			switch t := f.t.(type) {
			case Compound:
				work = append(work, frame{t: t, expanded: true})
				for i := len(t.Args) - 1; i >= 0; i-- {
					work = append(work, frame{t: t.Args[i]})
				}
			case List:
				work = append(work, frame{t: t, expanded: true})
				tail := t.Tail
				if tail == nil {
					tail = Atom("[]")
				}
				work = append(work, frame{t: tail})
				for i := len(t.Items) - 1; i >= 0; i-- {
					work = append(work, frame{t: t.Items[i]})
				}
			case PStr:
				work = append(work, frame{t: t, expanded: true})
				tail := t.Tail
				if tail == nil {
					tail = Atom("[]")
				}
				work = append(work, frame{t: tail})
			default:
				out = append(out, m.encodeLeaf(t, vars))
			}
			continue
		}
		switch t := f.t.(type) {
		case Compound:
			n := len(t.Args)
			args := out[len(out)-n:]
			c := m.putCompound(m.atoms.Intern(t.Functor), args)
			out = out[:len(out)-n]
			out = append(out, c)
		case List:
			n := len(t.Items)
			cells := out[len(out)-n-1:]
			c := cells[n] // tail
			for i := n - 1; i >= 0; i-- {
				c = m.putListPair(cells[i], c)
			}
			out = out[:len(out)-n-1]
			out = append(out, c)
		case PStr:
			tail := out[len(out)-1]
			out = out[:len(out)-1]
			out = append(out, m.putString(t.Prefix, tail))
		}
	}
	if len(out) != 1 {
		panic("wam: term encode stack imbalance")
	}
	return out[0]
}

func (m *Machine) encodeLeaf(t Term, vars map[Var]Cell) Cell {
	switch t := t.(type) {
	case Atom:
		return atomCell(m.atoms.Intern(string(t)))
	case Int:
		return intCell(int64(t))
	case Float:
		return m.arena.putFloat(float64(t))
	case Big:
		return m.arena.putBig(new(big.Int).Set(t.V))
	case Str:
		return m.putString(string(t), atomCell(m.atoms.Intern("[]")))
	case Var:
		if c, ok := vars[t]; ok {
			return c
		}
		c := refCell(m.putVariable())
		vars[t] = c
		return c
	default:
		panic(fmt.Sprintf("wam: cannot encode %T as a leaf", t))
	}
}

// decode reads the term rooted at c off the heap into an exported Term. It
// walks iteratively and tolerates cyclic structure by truncating at
// decodeLimit nodes.
func (m *Machine) decode(c Cell) Term {
	type frame struct {
		cell     Cell
		expanded bool
		items    int // list: number of item cells pushed
		prefix   string
	}
	var (
		work    []frame
		out     []Term
		visited int
	)
	work = append(work, frame{cell: c})
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		if f.expanded {
			switch f.cell.Tag {
			case TagStr:
				fn := m.heap[f.cell.Val]
				n := int(fn.Arity)
				args := make([]Term, n)
				copy(args, out[len(out)-n:])
				out = out[:len(out)-n]
				out = append(out, Compound{Functor: m.atoms.Name(fn.Atom()), Args: args})
			case TagList:
				n := f.items
				tail := out[len(out)-1]
				items := make([]Term, n)
				copy(items, out[len(out)-n-1:len(out)-1])
				out = out[:len(out)-n-1]
				if tail == Atom("[]") {
					tail = nil
				}
				out = append(out, List{Items: items, Tail: tail})
			case TagPStr:
				tail := out[len(out)-1]
				out = out[:len(out)-1]
				if tail == Atom("[]") {
					out = append(out, Str(f.prefix))
				} else {
					out = append(out, PStr{Prefix: f.prefix, Tail: tail})
				}
			}
			continue
		}
		visited++
		if visited > decodeLimit {
			out = append(out, Atom("..."))
			continue
		}
		cell := m.deref(f.cell)
		switch cell.Tag {
		case TagRef:
			out = append(out, Var("_G"+strconv.FormatInt(cell.Val, 10)))
		case TagAtom:
			out = append(out, Atom(m.atoms.Name(cell.Atom())))
		case TagInt:
			out = append(out, Int(cell.Val))
		case TagBig:
			out = append(out, Big{V: new(big.Int).Set(m.arena.big(cell.Val))})
		case TagFloat:
			out = append(out, Float(m.arena.float(cell.Val)))
		case TagStr:
			fn := m.heap[cell.Val]
			work = append(work, frame{cell: cell, expanded: true})
			for i := int(fn.Arity); i >= 1; i-- {
				work = append(work, frame{cell: m.heap[cell.Val+int64(i)]})
			}
		case TagList:
			// Collect the spine first so deep lists do not deepen the stack.
			var heads []Cell
			tail := cell
			for tail.Tag == TagList && len(heads) < decodeLimit {
				heads = append(heads, m.heap[tail.Val])
				tail = m.deref(m.heap[tail.Val+1])
			}
			work = append(work, frame{cell: cell, expanded: true, items: len(heads)})
			work = append(work, frame{cell: tail})
			for i := len(heads) - 1; i >= 0; i-- {
				work = append(work, frame{cell: heads[i]})
			}
		case TagPStr:
			var b strings.Builder
			tail := cell
			for tail.Tag == TagPStr {
				b.WriteString(m.arena.seg(m.heap[tail.Val].Val))
				tail = m.deref(m.heap[tail.Val+1])
			}
			work = append(work, frame{cell: cell, expanded: true, prefix: b.String()})
			work = append(work, frame{cell: tail})
		default:
			panic(fmt.Sprintf("wam: decode reached a %v cell", cell.Tag))
		}
	}
	if len(out) != 1 {
		panic("wam: term decode stack imbalance")
	}
	return out[0]
}
