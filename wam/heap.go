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

	"github.com/patrickdet/scryer-prolog/atom"
)

// The heap is a single growable cell array addressed by index. Address 0 is
// never a live cell. The top only moves backwards when backtracking resets it
// to a choice point's mark; cells above a reset point are garbage and will be
// overwritten before they are ever read again.

// alloc pushes cells onto the heap and returns the address of the first one.
// Heap exhaustion is a resource failure, never a silent truncation: it
// escapes as a *ResourceError panic which the solve loop turns into a fatal
// query error.
func (m *Machine) alloc(cells ...Cell) int {
	if m.maxHeap > 0 && len(m.heap)+len(cells) > m.maxHeap {
		panic(&ResourceError{Resource: "heap", Limit: m.maxHeap})
	}
	addr := len(m.heap)
	m.heap = append(m.heap, cells...)
	return addr
}

// putVariable allocates a fresh unbound variable and returns its address.
func (m *Machine) putVariable() int {
	addr := len(m.heap)
	m.alloc(refCell(addr))
	return addr
}

// putCompound writes a functor block for name with the given argument cells
// and returns the pointer cell. Zero arguments degrade to a plain atom.
func (m *Machine) putCompound(name atom.Atom, args []Cell) Cell {
	if len(args) == 0 {
		return atomCell(name)
	}
	addr := m.alloc(Cell{Tag: TagFunctor, Arity: int32(len(args)), Val: int64(name)})
	m.alloc(args...)
	return Cell{Tag: TagStr, Val: int64(addr)}
}

// putListPair writes a [head|tail] pair and returns the pointer cell.
func (m *Machine) putListPair(head, tail Cell) Cell {
	addr := m.alloc(head, tail)
	return Cell{Tag: TagList, Val: int64(addr)}
}

// putString writes s in front of tail as a chain of partial-string blocks
// and returns the cell for the front. An empty s is just tail.
func (m *Machine) putString(s string, tail Cell) Cell {
	for len(s) > 0 {
		cut := 0
		if len(s) > segMax {
			// peel at most segMax bytes off the back, nudging the cut
			// forward so it never lands inside a UTF-8 sequence
			cut = len(s) - segMax
			for cut < len(s) && !utf8.RuneStart(s[cut]) {
				cut++
			}
		}
		addr := m.alloc(m.arena.putSeg(s[cut:]), tail)
		tail = Cell{Tag: TagPStr, Val: int64(addr)}
		s = s[:cut]
	}
	return tail
}

// deref follows bound-variable chains until it reaches either a non-reference
// cell or an unbound variable (a ref cell whose Val is its own address).
func (m *Machine) deref(c Cell) Cell {
	for c.Tag == TagRef {
		next := m.heap[c.Val]
		if next.Tag == TagRef && next.Val == c.Val {
			return next
		}
		c = next
	}
	return c
}

// bind stores value in the unbound variable at addr, trailing the binding
// when addr predates the active choice point. Binding an already-bound cell
// is a programming error.
func (m *Machine) bind(addr int, value Cell) {
	if !m.heap[addr].isUnboundAt(addr) {
		panic("wam: bind on a non-variable cell")
	}
	m.heap[addr] = value
	m.trailIf(addr)
}

// trailIf records addr on the trail if undoing it on backtracking is
// required. Addresses allocated after the last choice point vanish with the
// heap-top reset and need no trail entry; with no choice point at all there
// is nothing to backtrack to.
func (m *Machine) trailIf(addr int) {
	if len(m.cps) == 0 {
		return
	}
	if addr >= m.cps[len(m.cps)-1].heapTop {
		return
	}
	if m.maxTrail > 0 && len(m.trail) >= m.maxTrail {
		panic(&ResourceError{Resource: "trail", Limit: m.maxTrail})
	}
	m.trail = append(m.trail, addr)
}

// unwindTrail unbinds every trailed address down to mark, most recent first.
func (m *Machine) unwindTrail(mark int) {
	for i := len(m.trail) - 1; i >= mark; i-- {
		addr := m.trail[i]
		m.heap[addr] = refCell(addr)
	}
	m.trail = m.trail[:mark]
}
