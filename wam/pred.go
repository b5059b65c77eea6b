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

// maxArity bounds the number of argument registers.
const maxArity = 255

// Predicate is a registered predicate: its compiled clauses in source order
// plus the first-argument index over them.
type Predicate struct {
	Fn      Functor
	clauses []*Clause
	idx     *argIndex
}

// Len returns the number of clauses.
func (p *Predicate) Len() int { return len(p.clauses) }

// candidates returns the indices of the clauses worth attempting for the
// current argument registers, in source order. With indexing off, or for
// zero-arity predicates, that is every clause.
func (p *Predicate) candidates(m *Machine) []int {
	if !m.indexing || p.Fn.Arity == 0 {
		return p.idx.all
	}
	first := m.deref(m.aregs[0])
	var fn Functor
	if first.Tag == TagStr {
		hdr := m.heap[first.Val]
		fn = Functor{Name: hdr.Atom(), Arity: int(hdr.Arity)}
	}
	return p.idx.lookup(first, fn)
}
