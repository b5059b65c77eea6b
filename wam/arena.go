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
	"math/big"
)

// Arena reference layout inside Cell.Val:
//
//	bits 48..63  epoch
//	bits 16..47  pool index
//	bits  0..15  byte offset within a string segment (TagSeg only)
const (
	arenaEpochShift = 48
	arenaIdxShift   = 16
	arenaIdxMask    = 0xffffffff
	arenaOffMask    = 0xffff

	// segMax bounds a single string segment so the offset always fits in
	// the reference. Longer strings are chained across segments.
	segMax = 1 << 16
)

func packRef(epoch uint16, idx int, off int) int64 {
	return int64(epoch)<<arenaEpochShift | int64(idx)<<arenaIdxShift | int64(off)
}

func refEpoch(v int64) uint16 { return uint16(v >> arenaEpochShift) }
func refIdx(v int64) int      { return int(v>>arenaIdxShift) & arenaIdxMask }
func refOff(v int64) int      { return int(v & arenaOffMask) }

// arena is the side allocator for payloads whose size is not statically
// bounded. Entries are keyed by an epoch: Reset bumps the epoch and drops all
// pools at once, so a stale reference from a previous query generation is
// detectable. Nothing is ever freed while the epoch is live, which keeps
// every reference held by a live heap cell valid without reachability
// analysis.
type arena struct {
	epoch  uint16
	bigs   []*big.Int
	floats []float64
	segs   []string
}

func newArena() *arena {
	return &arena{epoch: 1}
}

// reset drops all payloads and invalidates outstanding references.
func (a *arena) reset() {
	a.epoch++
	a.bigs = a.bigs[:0]
	a.floats = a.floats[:0]
	a.segs = a.segs[:0]
}

func (a *arena) check(v int64) {
	if refEpoch(v) != a.epoch {
		panic("wam: arena reference from a stale epoch")
	}
}

// putBig stores n and returns a big cell referencing it. The arena takes
// ownership of n; callers must not mutate it afterwards.
func (a *arena) putBig(n *big.Int) Cell {
	a.bigs = append(a.bigs, n)
	return Cell{Tag: TagBig, Val: packRef(a.epoch, len(a.bigs)-1, 0)}
}

func (a *arena) big(v int64) *big.Int {
	a.check(v)
	return a.bigs[refIdx(v)]
}

// cloneBig copies a constant-pool bignum before handing it to the arena.
func cloneBig(n *big.Int) *big.Int {
	return new(big.Int).Set(n)
}

func (a *arena) putFloat(f float64) Cell {
	a.floats = append(a.floats, f)
	return Cell{Tag: TagFloat, Val: packRef(a.epoch, len(a.floats)-1, 0)}
}

func (a *arena) float(v int64) float64 {
	a.check(v)
	return a.floats[refIdx(v)]
}

// putSeg interns a string segment and returns a segment cell for its first
// character. s must be non-empty and no longer than segMax.
func (a *arena) putSeg(s string) Cell {
	if len(s) == 0 || len(s) > segMax {
		panic("wam: invalid string segment length")
	}
	a.segs = append(a.segs, s)
	return Cell{Tag: TagSeg, Val: packRef(a.epoch, len(a.segs)-1, 0)}
}

// seg returns the unconsumed characters of a segment cell.
func (a *arena) seg(v int64) string {
	a.check(v)
	return a.segs[refIdx(v)][refOff(v):]
}

// segAdvance returns a segment cell identical to c with n more bytes
// consumed, or false when no bytes would remain (the segment would be
// empty). Callers advancing by characters pass the rune's UTF-8 width.
func (a *arena) segAdvance(c Cell, n int) (Cell, bool) {
	a.check(c.Val)
	off := refOff(c.Val) + n
	if off >= len(a.segs[refIdx(c.Val)]) {
		return Cell{}, false
	}
	return Cell{Tag: TagSeg, Val: packRef(a.epoch, refIdx(c.Val), off)}, true
}
