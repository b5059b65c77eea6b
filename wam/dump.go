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
	"io"

	"github.com/patrickdet/scryer-prolog/internal/wio"
)

// Dump writes a human-readable snapshot of the machine state: register
// summary, choice points, environment frames and the live heap cells. It is
// a debugging aid, not a serialization format.
func (m *Machine) Dump(w io.Writer) error {
	ew := wio.NewErrWriter(w)
	fmt.Fprintf(ew, "pc=%d heap=%d trail=%d cps=%d envs=%d curEnv=%d instrs=%d\n",
		m.pc, len(m.heap), len(m.trail), len(m.cps), len(m.envs), m.curEnv, m.insCount)
	for i, cp := range m.cps {
		fmt.Fprintf(ew, "cp[%d]\tkind=%d heap=%d trail=%d envs=%d next=%d/%d\n",
			i, cp.kind, cp.heapTop, cp.trailTop, cp.envTop, cp.next, len(cp.cands))
	}
	for i, fr := range m.envs {
		fmt.Fprintf(ew, "env[%d]\tprev=%d slots=%d cutB=%d\n",
			i, fr.prev, len(fr.slots), fr.cutB)
	}
	for addr := 1; addr < len(m.heap); addr++ {
		c := m.heap[addr]
		fmt.Fprintf(ew, "% 8d\t%s\t", addr, c.Tag)
		switch c.Tag {
		case TagRef:
			if c.isUnboundAt(addr) {
				io.WriteString(ew, "_")
			} else {
				fmt.Fprintf(ew, "-> %d", c.Val)
			}
		case TagAtom:
			io.WriteString(ew, m.atoms.Name(c.Atom()))
		case TagInt:
			fmt.Fprintf(ew, "%d", c.Val)
		case TagBig:
			fmt.Fprintf(ew, "%v", m.arena.big(c.Val))
		case TagFloat:
			fmt.Fprintf(ew, "%g", m.arena.float(c.Val))
		case TagFunctor:
			fmt.Fprintf(ew, "%s/%d", m.atoms.Name(c.Atom()), c.Arity)
		case TagSeg:
			fmt.Fprintf(ew, "%q", m.arena.seg(c.Val))
		default:
			fmt.Fprintf(ew, "-> %d", c.Val)
		}
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
	}
	return ew.Err
}
