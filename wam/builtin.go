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
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/patrickdet/scryer-prolog/atom"
)

// Builtin is a predicate implemented in Go. It receives the dereferenceable
// argument cells and reports success or failure; an *Exception error throws
// a ball catchable by catch/3, any other error aborts the query. A builtin
// is deterministic: it yields at most one solution and leaves no choice
// point behind.
type Builtin func(m *Machine, args []Cell) (bool, error)

// RegisterBuiltin installs a Go predicate under name/arity, replacing any
// previous builtin with that key. It fails if a compiled predicate already
// occupies the key.
func (m *Machine) RegisterBuiltin(name string, arity int, fn Builtin) error {
	if arity < 0 || arity > maxArity {
		return errors.Errorf("wam: builtin %s: arity %d out of range", name, arity)
	}
	key := m.Functor(name, arity)
	if _, ok := m.preds[key]; ok {
		return errors.Errorf("wam: %s/%d already defined as a compiled predicate", name, arity)
	}
	m.builtins[key] = fn
	return nil
}

// UnifyCell unifies an argument cell with an encoded term, binding variables
// on the machine heap. Bindings stay until backtracking rewinds them.
func (m *Machine) UnifyCell(c Cell, t Term) bool {
	return m.unify(c, m.encode(t, make(map[Var]Cell)))
}

// TermOf decodes an argument cell into the exported term representation.
func (m *Machine) TermOf(c Cell) Term { return m.decode(c) }

func (m *Machine) registerCoreBuiltins() {
	reg := func(name string, arity int, fn Builtin) {
		m.builtins[m.Functor(name, arity)] = fn
	}

	reg("true", 0, func(m *Machine, _ []Cell) (bool, error) { return true, nil })
	reg("fail", 0, func(m *Machine, _ []Cell) (bool, error) { return false, nil })
	reg("false", 0, func(m *Machine, _ []Cell) (bool, error) { return false, nil })

	reg("=", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.unify(a[0], a[1]), nil
	})
	reg("\\=", 2, func(m *Machine, a []Cell) (bool, error) {
		return !m.unifiable(a[0], a[1]), nil
	})

	reg("==", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.compareCells(a[0], a[1]) == 0, nil
	})
	reg("\\==", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.compareCells(a[0], a[1]) != 0, nil
	})
	reg("@<", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.compareCells(a[0], a[1]) < 0, nil
	})
	reg("@>", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.compareCells(a[0], a[1]) > 0, nil
	})
	reg("@=<", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.compareCells(a[0], a[1]) <= 0, nil
	})
	reg("@>=", 2, func(m *Machine, a []Cell) (bool, error) {
		return m.compareCells(a[0], a[1]) >= 0, nil
	})
	reg("compare", 3, func(m *Machine, a []Cell) (bool, error) {
		var ord string
		switch c := m.compareCells(a[1], a[2]); {
		case c < 0:
			ord = "<"
		case c > 0:
			ord = ">"
		default:
			ord = "="
		}
		return m.UnifyCell(a[0], Atom(ord)), nil
	})

	reg("var", 1, func(m *Machine, a []Cell) (bool, error) {
		return m.deref(a[0]).Tag == TagRef, nil
	})
	reg("nonvar", 1, func(m *Machine, a []Cell) (bool, error) {
		return m.deref(a[0]).Tag != TagRef, nil
	})
	reg("atom", 1, func(m *Machine, a []Cell) (bool, error) {
		c := m.deref(a[0])
		return c.Tag == TagAtom, nil
	})
	reg("integer", 1, func(m *Machine, a []Cell) (bool, error) {
		c := m.deref(a[0])
		return c.Tag == TagInt || c.Tag == TagBig, nil
	})
	reg("float", 1, func(m *Machine, a []Cell) (bool, error) {
		return m.deref(a[0]).Tag == TagFloat, nil
	})
	reg("number", 1, func(m *Machine, a []Cell) (bool, error) {
		switch m.deref(a[0]).Tag {
		case TagInt, TagBig, TagFloat:
			return true, nil
		}
		return false, nil
	})
	reg("atomic", 1, func(m *Machine, a []Cell) (bool, error) {
		switch m.deref(a[0]).Tag {
		case TagAtom, TagInt, TagBig, TagFloat:
			return true, nil
		}
		return false, nil
	})
	reg("compound", 1, func(m *Machine, a []Cell) (bool, error) {
		switch m.deref(a[0]).Tag {
		case TagStr, TagList, TagPStr:
			return true, nil
		}
		return false, nil
	})
	reg("is_list", 1, func(m *Machine, a []Cell) (bool, error) {
		return m.isProperList(a[0]), nil
	})

	reg("throw", 1, func(m *Machine, a []Cell) (bool, error) {
		c := m.deref(a[0])
		if c.Tag == TagRef {
			return false, instantiationError("throw/1")
		}
		return false, &Exception{Ball: m.decode(c)}
	})

	reg("is", 2, builtinIs)
	reg("=:=", 2, arithCompare(func(c int) bool { return c == 0 }))
	reg("=\\=", 2, arithCompare(func(c int) bool { return c != 0 }))
	reg("<", 2, arithCompare(func(c int) bool { return c < 0 }))
	reg(">", 2, arithCompare(func(c int) bool { return c > 0 }))
	reg("=<", 2, arithCompare(func(c int) bool { return c <= 0 }))
	reg(">=", 2, arithCompare(func(c int) bool { return c >= 0 }))

	reg("functor", 3, builtinFunctor)
	reg("arg", 3, builtinArg)
	reg("halt", 0, func(m *Machine, _ []Cell) (bool, error) {
		return false, &Exception{Ball: Comp("halt", Int(0))}
	})
	reg("halt", 1, func(m *Machine, a []Cell) (bool, error) {
		c := m.deref(a[0])
		if c.Tag != TagInt {
			return false, typeError("integer", m.decode(c), "halt/1")
		}
		return false, &Exception{Ball: Comp("halt", Int(c.Val))}
	})
}

func builtinIs(m *Machine, a []Cell) (bool, error) {
	v, err := m.eval(a[1])
	if err != nil {
		return false, err
	}
	return m.unify(a[0], v), nil
}

func arithCompare(pred func(int) bool) Builtin {
	return func(m *Machine, a []Cell) (bool, error) {
		c, err := m.numCompare(a[0], a[1])
		if err != nil {
			return false, err
		}
		return pred(c), nil
	}
}

// builtinFunctor implements both directions of functor/3: decomposition of a
// bound term and construction from a name and arity with fresh arguments.
func builtinFunctor(m *Machine, a []Cell) (bool, error) {
	t := m.deref(a[0])
	if t.Tag != TagRef {
		name, arity := m.functorOf(t)
		return m.unify(a[1], name) && m.unify(a[2], intCell(int64(arity))), nil
	}
	name := m.deref(a[1])
	arity := m.deref(a[2])
	if name.Tag == TagRef || arity.Tag == TagRef {
		return false, instantiationError("functor/3")
	}
	if arity.Tag != TagInt {
		return false, typeError("integer", m.decode(arity), "functor/3")
	}
	n := int(arity.Val)
	switch {
	case n == 0:
		return m.unify(t, name), nil
	case n < 0 || n > maxArity:
		return false, typeError("integer", m.decode(arity), "functor/3")
	case name.Tag != TagAtom:
		return false, typeError("atom", m.decode(name), "functor/3")
	}
	args := make([]Cell, n)
	for i := range args {
		args[i] = refCell(m.putVariable())
	}
	return m.unify(t, m.putCompound(name.Atom(), args)), nil
}

func builtinArg(m *Machine, a []Cell) (bool, error) {
	n := m.deref(a[0])
	t := m.deref(a[1])
	if n.Tag == TagRef || t.Tag == TagRef {
		return false, instantiationError("arg/3")
	}
	if n.Tag != TagInt {
		return false, typeError("integer", m.decode(n), "arg/3")
	}
	fn, args := m.termShape(t)
	if fn.Name == atom.None {
		return false, typeError("compound", m.decode(t), "arg/3")
	}
	i := n.Val
	if i < 1 || i > int64(len(args)) {
		return false, nil
	}
	return m.unify(a[2], args[i-1]), nil
}

// functorOf returns the principal functor of a bound cell as an atom cell
// plus arity. Atomic terms are their own functor with arity 0.
func (m *Machine) functorOf(c Cell) (Cell, int) {
	switch c.Tag {
	case TagStr:
		hdr := m.heap[c.Val]
		return atomCell(hdr.Atom()), int(hdr.Arity)
	case TagList, TagPStr:
		return atomCell(m.atoms.Intern(".")), 2
	default:
		return c, 0
	}
}

// termShape exposes a compound cell as functor plus argument cells; list and
// partial-string cells present as './2'. Non-compounds return a zero functor.
func (m *Machine) termShape(c Cell) (Functor, []Cell) {
	switch c.Tag {
	case TagStr:
		hdr := m.heap[c.Val]
		n := int(hdr.Arity)
		args := make([]Cell, n)
		for i := 0; i < n; i++ {
			args[i] = m.heap[c.Val+1+int64(i)]
		}
		return Functor{Name: hdr.Atom(), Arity: n}, args
	case TagList:
		return Functor{Name: m.atoms.Intern("."), Arity: 2},
			[]Cell{m.heap[c.Val], m.heap[c.Val+1]}
	case TagPStr:
		seg := m.heap[c.Val]
		s := m.arena.seg(seg.Val)
		r, sz := utf8.DecodeRuneInString(s)
		head := m.charAtom(r)
		if adv, ok := m.arena.segAdvance(seg, sz); ok {
			addr := m.alloc(adv, m.heap[c.Val+1])
			return Functor{Name: m.atoms.Intern("."), Arity: 2},
				[]Cell{head, Cell{Tag: TagPStr, Val: int64(addr)}}
		}
		return Functor{Name: m.atoms.Intern("."), Arity: 2},
			[]Cell{head, m.heap[c.Val+1]}
	}
	return Functor{}, nil
}

// isProperList reports whether c is a list ending in []. The walk is bounded
// like decode's: a cyclic spine, which occurs-check-free unification can
// legally build, reports false instead of spinning.
func (m *Machine) isProperList(c Cell) bool {
	for steps := 0; steps <= decodeLimit; steps++ {
		c = m.deref(c)
		switch c.Tag {
		case TagAtom:
			return c.Atom() == m.atoms.Intern("[]")
		case TagList:
			c = m.heap[c.Val+1]
		case TagPStr:
			c = m.heap[c.Val+1]
		default:
			return false
		}
	}
	return false
}

// compareCells implements the standard order of terms without unification:
// unbound < numbers < atoms < compounds, numbers by value, atoms by name,
// compounds by arity then functor name then arguments left to right. A
// numeric value tie breaks by type, the float ordering before the integer,
// so terms that cannot unify never compare equal. The walk runs on an
// explicit pair list, bounded like decode's, so deep or cyclic structures
// neither overflow the native stack nor hang.
func (m *Machine) compareCells(a, b Cell) int {
	type pair struct{ a, b Cell }
	work := []pair{{a, b}}
	for steps := 0; len(work) > 0 && steps <= decodeLimit; steps++ {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		a, b := m.deref(p.a), m.deref(p.b)
		ra, rb := m.ordRank(a), m.ordRank(b)
		if ra != rb {
			return ra - rb
		}
		switch ra {
		case 0: // both unbound: age order via heap address
			if c := int(a.Val - b.Val); c != 0 {
				return c
			}
		case 1:
			if c, _ := m.numCompare(a, b); c != 0 {
				return c
			}
			if c := numOrd(a.Tag) - numOrd(b.Tag); c != 0 {
				return c
			}
		case 2:
			na, nb := m.atoms.Name(a.Atom()), m.atoms.Name(b.Atom())
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
		default:
			fa, aa := m.termShape(a)
			fb, ab := m.termShape(b)
			if fa.Arity != fb.Arity {
				return fa.Arity - fb.Arity
			}
			na, nb := m.atoms.Name(fa.Name), m.atoms.Name(fb.Name)
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			for i := len(aa) - 1; i >= 0; i-- {
				work = append(work, pair{aa[i], ab[i]})
			}
		}
	}
	return 0
}

// numOrd breaks numeric value ties: the float term precedes an equal-valued
// integer. Int and Big never tie, a bignum in int64 range is always demoted.
func numOrd(t Tag) int {
	if t == TagFloat {
		return 0
	}
	return 1
}

func (m *Machine) ordRank(c Cell) int {
	switch c.Tag {
	case TagRef:
		return 0
	case TagInt, TagBig, TagFloat:
		return 1
	case TagAtom:
		return 2
	default:
		return 3
	}
}
