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

import "unicode/utf8"

// unify structurally unifies two terms. It works through an explicit pair
// list rather than recursion so that term depth never threatens the native
// stack. On mismatch it returns false without undoing anything: bindings made
// along the way stay on the trail and it is the caller's move to trigger the
// backtracking controller, which rewinds them together with everything else.
func (m *Machine) unify(a, b Cell) bool {
	w := m.upairs[:0]
	w = append(w, [2]Cell{a, b})
	for len(w) > 0 {
		p := w[len(w)-1]
		w = w[:len(w)-1]
		t1, t2 := m.deref(p[0]), m.deref(p[1])

		if t1.Tag == TagRef || t2.Tag == TagRef {
			if t1.Tag == TagRef && t2.Tag == TagRef {
				if t1.Val == t2.Val {
					continue
				}
				// Bind the younger variable to the older one: the younger is
				// more likely to sit above the last choice point and escape
				// trailing.
				if t1.Val < t2.Val {
					m.bind(int(t2.Val), refCell(int(t1.Val)))
				} else {
					m.bind(int(t1.Val), refCell(int(t2.Val)))
				}
				continue
			}
			if t1.Tag == TagRef {
				m.bind(int(t1.Val), t2)
			} else {
				m.bind(int(t2.Val), t1)
			}
			continue
		}

		switch {
		case t1.Tag == TagAtom && t2.Tag == TagAtom:
			if t1.Val != t2.Val {
				m.upairs = w
				return false
			}
		case t1.Tag == TagInt && t2.Tag == TagInt:
			if t1.Val != t2.Val {
				m.upairs = w
				return false
			}
		case t1.Tag == TagBig || t2.Tag == TagBig:
			if !m.numEqual(t1, t2) {
				m.upairs = w
				return false
			}
		case t1.Tag == TagFloat && t2.Tag == TagFloat:
			if m.arena.float(t1.Val) != m.arena.float(t2.Val) {
				m.upairs = w
				return false
			}
		case t1.Tag == TagStr && t2.Tag == TagStr:
			f1, f2 := m.heap[t1.Val], m.heap[t2.Val]
			if f1.Val != f2.Val || f1.Arity != f2.Arity {
				m.upairs = w
				return false
			}
			for i := int64(f1.Arity); i >= 1; i-- {
				w = append(w, [2]Cell{m.heap[t1.Val+i], m.heap[t2.Val+i]})
			}
		case t1.Tag == TagList && t2.Tag == TagList:
			// Collapse list spines in place instead of pushing a pair per
			// element: unify heads as work items, loop on the tails.
			u, v := t1, t2
			for u.Tag == TagList && v.Tag == TagList && u.Val != v.Val {
				w = append(w, [2]Cell{m.heap[u.Val], m.heap[v.Val]})
				u, v = m.deref(m.heap[u.Val+1]), m.deref(m.heap[v.Val+1])
			}
			if u.Val != v.Val || u.Tag != v.Tag {
				w = append(w, [2]Cell{u, v})
			}
		case t1.Tag == TagPStr || t2.Tag == TagPStr:
			rest1, rest2, ok := m.unifyString(t1, t2)
			if !ok {
				m.upairs = w
				return false
			}
			w = append(w, [2]Cell{rest1, rest2})
		default:
			m.upairs = w
			return false
		}
	}
	m.upairs = w
	return true
}

// numEqual compares two integer cells where at least one is a bignum.
func (m *Machine) numEqual(a, b Cell) bool {
	switch {
	case a.Tag == TagBig && b.Tag == TagBig:
		return m.arena.big(a.Val).Cmp(m.arena.big(b.Val)) == 0
	case a.Tag == TagBig && b.Tag == TagInt:
		return m.arena.big(a.Val).IsInt64() && m.arena.big(a.Val).Int64() == b.Val
	case a.Tag == TagInt && b.Tag == TagBig:
		return m.numEqual(b, a)
	default:
		return false
	}
}

// unifyString unifies the character prefixes of two terms where at least one
// is a partial string, consuming matching characters pairwise. It returns the
// two unconsumed remainders for the caller to keep unifying (one of them may
// be an unbound tail, an empty-list atom or a further list). A character
// mismatch reports false.
func (m *Machine) unifyString(a, b Cell) (Cell, Cell, bool) {
	for {
		a, b = m.deref(a), m.deref(b)
		if a.Tag != TagPStr && b.Tag != TagPStr {
			return a, b, true
		}
		if a.Tag != TagPStr {
			a, b = b, a
		}
		// a is a partial string; look at one character of it. Characters
		// are runes, so the remainder advances by the UTF-8 width.
		seg := m.heap[a.Val]
		r, sz := utf8.DecodeRuneInString(m.arena.seg(seg.Val))
		aNext, ok := m.arena.segAdvance(seg, sz)
		var aRest Cell
		if ok {
			addr := m.alloc(aNext, m.heap[a.Val+1])
			aRest = Cell{Tag: TagPStr, Val: int64(addr)}
		} else {
			aRest = m.heap[a.Val+1]
		}

		switch b.Tag {
		case TagPStr:
			bseg := m.heap[b.Val]
			br, bsz := utf8.DecodeRuneInString(m.arena.seg(bseg.Val))
			if br != r {
				return a, b, false
			}
			bNext, ok := m.arena.segAdvance(bseg, bsz)
			var bRest Cell
			if ok {
				addr := m.alloc(bNext, m.heap[b.Val+1])
				bRest = Cell{Tag: TagPStr, Val: int64(addr)}
			} else {
				bRest = m.heap[b.Val+1]
			}
			a, b = aRest, bRest
		case TagList:
			head := m.deref(m.heap[b.Val])
			want := m.charAtom(r)
			switch head.Tag {
			case TagRef:
				m.bind(int(head.Val), want)
			case TagAtom:
				if head.Val != want.Val {
					return a, b, false
				}
			default:
				return a, b, false
			}
			a, b = aRest, m.heap[b.Val+1]
		default:
			// Unbound tail or a non-list: hand both back; the caller binds
			// or fails through the ordinary cases.
			return a, b, true
		}
	}
}

// charAtom interns the one-char atom for rune r.
func (m *Machine) charAtom(r rune) Cell {
	return atomCell(m.atoms.Intern(string(r)))
}
