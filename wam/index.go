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
	"github.com/patrickdet/scryer-prolog/atom"
)

// argIndex maps the principal shape of a call's first argument to the clause
// indices that could possibly unify with it. Variable-classified clauses
// appear in every bucket; within a bucket, source order is preserved, so
// filtering never reorders attempts.
type argIndex struct {
	all      []int
	anyOnly  []int // ArgAny clauses, the candidate set for unseen values
	atoms    map[atom.Atom][]int
	ints     map[int64][]int
	fns      map[Functor][]int
	lists    []int
	others   []int
	hasList  bool
	hasOther bool
}

// buildIndex classifies clauses by their first head argument. Each value
// bucket starts as a copy of the ArgAny clauses seen so far and later ArgAny
// clauses are appended to every bucket, keeping relative order intact.
func buildIndex(clauses []*Clause) *argIndex {
	ix := &argIndex{
		atoms: make(map[atom.Atom][]int),
		ints:  make(map[int64][]int),
		fns:   make(map[Functor][]int),
	}
	bucket := func(cur []int, i int) []int {
		if cur == nil {
			cur = append(cur, ix.anyOnly...)
		}
		return append(cur, i)
	}
	for i, c := range clauses {
		ix.all = append(ix.all, i)
		switch c.Index.Kind {
		case ArgAny:
			ix.anyOnly = append(ix.anyOnly, i)
			for k := range ix.atoms {
				ix.atoms[k] = append(ix.atoms[k], i)
			}
			for k := range ix.ints {
				ix.ints[k] = append(ix.ints[k], i)
			}
			for k := range ix.fns {
				ix.fns[k] = append(ix.fns[k], i)
			}
			if ix.hasList {
				ix.lists = append(ix.lists, i)
			}
			if ix.hasOther {
				ix.others = append(ix.others, i)
			}
		case ArgAtom:
			a := c.Index.Cell.Atom()
			ix.atoms[a] = bucket(ix.atoms[a], i)
		case ArgInt:
			v := c.Index.Cell.Val
			ix.ints[v] = bucket(ix.ints[v], i)
		case ArgStruct:
			ix.fns[c.Index.Fn] = bucket(ix.fns[c.Index.Fn], i)
		case ArgList:
			ix.lists = bucket(ix.lists, i)
			ix.hasList = true
		case ArgOther:
			ix.others = bucket(ix.others, i)
			ix.hasOther = true
		}
	}
	return ix
}

// lookup prunes the clause list by the dereferenced first call argument. For
// a compound argument the caller resolves the pointer to its functor key. An
// unbound argument matches every clause.
func (ix *argIndex) lookup(first Cell, fn Functor) []int {
	switch first.Tag {
	case TagRef:
		return ix.all
	case TagAtom:
		if c, ok := ix.atoms[first.Atom()]; ok {
			return c
		}
	case TagInt:
		if c, ok := ix.ints[first.Val]; ok {
			return c
		}
	case TagStr:
		if c, ok := ix.fns[fn]; ok {
			return c
		}
	case TagList, TagPStr:
		if ix.hasList {
			return ix.lists
		}
	case TagBig, TagFloat:
		if ix.hasOther {
			return ix.others
		}
	}
	return ix.anyOnly
}
