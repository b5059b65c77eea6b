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

	"github.com/patrickdet/scryer-prolog/atom"
)

// Tag discriminates the variants of a heap cell.
type Tag uint8

// Heap cell tags.
const (
	// TagRef is a variable cell. Val holds a heap address; the cell is
	// unbound when Val equals the cell's own address.
	TagRef Tag = iota
	// TagAtom holds an interned atom identifier in Val.
	TagAtom
	// TagInt holds a small (64-bit) integer in Val.
	TagInt
	// TagBig points to an arena bignum. Val is a packed arena reference.
	TagBig
	// TagFloat points to an arena float. Val is a packed arena reference.
	TagFloat
	// TagStr points to a compound term: Val is the heap address of a
	// TagFunctor cell followed by the argument cells.
	TagStr
	// TagFunctor is a compound header. Val holds the functor's atom
	// identifier, Arity the argument count. Functor cells only appear as
	// the first cell of a compound block and are never the result of a
	// dereference of a term argument.
	TagFunctor
	// TagList points to a list cell pair: heap[Val] is the head and
	// heap[Val+1] is the tail.
	TagList
	// TagPStr points to a partial-string block: heap[Val] is a TagSeg cell
	// and heap[Val+1] is the tail term. The segment characters followed by
	// the tail denote the same term as the equivalent list of one-char
	// atoms, but string operations can work on the segment wholesale.
	TagPStr
	// TagSeg is the payload cell of a partial-string block. Val is a packed
	// arena reference to the character data.
	TagSeg
)

var tagNames = [...]string{
	TagRef:     "ref",
	TagAtom:    "atom",
	TagInt:     "int",
	TagBig:     "big",
	TagFloat:   "float",
	TagStr:     "str",
	TagFunctor: "functor",
	TagList:    "list",
	TagPStr:    "pstr",
	TagSeg:     "seg",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Cell is the fixed-size tagged unit of term storage. The meaning of Val and
// Arity depends on Tag; see the tag constants.
type Cell struct {
	Tag   Tag
	Arity int32
	Val   int64
}

// atomCell returns an atom cell.
func atomCell(a atom.Atom) Cell { return Cell{Tag: TagAtom, Val: int64(a)} }

// intCell returns a small-integer cell.
func intCell(n int64) Cell { return Cell{Tag: TagInt, Val: n} }

// refCell returns a reference cell pointing at addr.
func refCell(addr int) Cell { return Cell{Tag: TagRef, Val: int64(addr)} }

// Atom returns the atom identifier carried by an atom or functor cell.
func (c Cell) Atom() atom.Atom { return atom.Atom(c.Val) }

// isUnboundAt reports whether c, stored at addr, is an unbound variable.
func (c Cell) isUnboundAt(addr int) bool {
	return c.Tag == TagRef && c.Val == int64(addr)
}

// Functor identifies a predicate or compound shape by name and arity.
type Functor struct {
	Name  atom.Atom
	Arity int
}

func (f Functor) String() string {
	return fmt.Sprintf("%d/%d", uint32(f.Name), f.Arity)
}
