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

package codegen

import (
	"fmt"
	"io"
	"strconv"

	"github.com/patrickdet/scryer-prolog/atom"
	"github.com/patrickdet/scryer-prolog/internal/wio"
	"github.com/patrickdet/scryer-prolog/wam"
)

// Disassemble writes the instruction at pc to the specified io.Writer and
// returns the position of the next instruction and any write error. Operands
// are resolved against the code's constant pools.
func (c *Compiler) Disassemble(code *wam.Code, pc int, w io.Writer) (next int, err error) {
	ew, _ := w.(*wio.ErrWriter)
	if ew == nil {
		ew = wio.NewErrWriter(w)
	}

	in := code.Instrs[pc]
	io.WriteString(ew, in.Op.String())
	switch in.Op {
	case wam.OpPushCell:
		ew.Write([]byte{' '})
		io.WriteString(ew, c.cellString(code.Cells[in.A]))
	case wam.OpPushBig:
		fmt.Fprintf(ew, " %v", code.Bigs[in.A])
	case wam.OpPushFloat:
		fmt.Fprintf(ew, " %g", code.Floats[in.A])
	case wam.OpPushStr:
		fmt.Fprintf(ew, " %q", code.Strs[in.A])
	case wam.OpPushComp, wam.OpCall:
		fn := code.Fns[in.A]
		fmt.Fprintf(ew, " %s/%d", c.atoms.Name(fn.Name), fn.Arity)
	case wam.OpAllocate, wam.OpPushFresh, wam.OpPushSlot, wam.OpGetArg:
		fmt.Fprintf(ew, " %d", in.A)
	case wam.OpLoadArg:
		fmt.Fprintf(ew, " %d %d", in.A, in.B)
	}
	return pc + 1, ew.Err
}

// DisassembleAll writes a disassembly of the whole code sequence to the
// specified io.Writer. It will return any write error.
func (c *Compiler) DisassembleAll(code *wam.Code, w io.Writer) error {
	ew := wio.NewErrWriter(w)
	for pc := 0; pc < len(code.Instrs); {
		fmt.Fprintf(ew, "% 6d\t", pc)
		pc, _ = c.Disassemble(code, pc, ew)
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
	}
	return nil
}

func (c *Compiler) cellString(cell wam.Cell) string {
	switch cell.Tag {
	case wam.TagAtom:
		return c.atoms.Name(atom.Atom(cell.Val))
	case wam.TagInt:
		return strconv.FormatInt(cell.Val, 10)
	default:
		return fmt.Sprintf("%s(%d)", cell.Tag, cell.Val)
	}
}
