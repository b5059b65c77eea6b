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

import "math/big"

// Op is a machine instruction opcode. Term-building ops work against an
/// operand stack: leaves are pushed, compound builders pop their children and
// push the assembled cell.
type Op uint8

// Machine opcodes.
const (
	OpNop Op = iota
	// OpAllocate pushes an environment frame with A local slots and records
	// the continuation and cut barrier. First instruction of every clause
	// and query.
	OpAllocate
	// OpPushCell pushes the ready-made constant Cells[A] (atoms, small ints).
	OpPushCell
	// OpPushBig allocates Bigs[A] into the arena and pushes the cell.
	OpPushBig
	// OpPushFloat allocates Floats[A] into the arena and pushes the cell.
	OpPushFloat
	// OpPushStr pops a tail cell and pushes Strs[A] written in front of it
	// as a partial-string chain.
	OpPushStr
	// OpPushFresh allocates a fresh unbound heap variable, stores it in
	// local slot A and pushes it. Emitted for a variable's first occurrence.
	OpPushFresh
	// OpPushSlot pushes the value of local slot A.
	OpPushSlot
	// OpPushComp pops the Fns[A].Arity argument cells and pushes a compound
	// built from them.
	OpPushComp
	// OpPushList pops a tail and a head cell and pushes the list pair.
	OpPushList
	// OpGetArg pops a cell and unifies it with argument register A;
	// failure backtracks.
	OpGetArg
	// OpLoadArg copies argument register B into local slot A (head argument
	// that is a first-occurrence variable; no unification needed).
	OpLoadArg
	// OpCall pops the Fns[A].Arity argument cells into the argument
	// registers and transfers to the predicate or builtin Fns[A].
	OpCall
	// OpProceed returns to the continuation of the current environment.
	OpProceed
	// OpCut discards the choice points created since the current clause's
	// parent call. Heap and trail are untouched.
	OpCut
	// OpStop yields a solution of the top-level goal to the host.
	OpStop
)

var opNames = [...]string{
	OpNop:       "nop",
	OpAllocate:  "allocate",
	OpPushCell:  "push_cell",
	OpPushBig:   "push_big",
	OpPushFloat: "push_float",
	OpPushStr:   "push_str",
	OpPushFresh: "push_fresh",
	OpPushSlot:  "push_slot",
	OpPushComp:  "push_comp",
	OpPushList:  "push_list",
	OpGetArg:    "get_arg",
	OpLoadArg:   "load_arg",
	OpCall:      "call",
	OpProceed:   "proceed",
	OpCut:       "cut",
	OpStop:      "stop",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "unknown"
}

// Instr is one fixed-size machine instruction. The meaning of A and B depends
// on the opcode.
type Instr struct {
	Op   Op
	A, B int32
}

// Code is a compiled instruction sequence together with its constant pools.
// The machine treats it as opaque and read-only; one Code value may be shared
// by machine instances.
type Code struct {
	Instrs []Instr
	Cells  []Cell
	Bigs   []*big.Int
	Floats []float64
	Strs   []string
	Fns    []Functor
}

// ArgKind classifies the static shape of a clause's first head argument for
// first-argument indexing.
type ArgKind uint8

// First-argument classifications.
const (
	// ArgAny marks clauses that match any first argument: the head argument
	// is a variable, or the predicate has no arguments.
	ArgAny ArgKind = iota
	ArgAtom
	ArgInt
	ArgStruct
	ArgList
	// ArgOther covers constants without a value bucket (bignums, floats);
	// such clauses are filtered by kind only.
	ArgOther
)

// ArgInfo is the index key of a clause, produced by the compiler from the
// clause head's first argument.
type ArgInfo struct {
	Kind ArgKind
	Cell Cell    // value for ArgAtom/ArgInt
	Fn   Functor // value for ArgStruct
}

// Clause is one compiled clause of a predicate.
type Clause struct {
	Code  *Code
	Index ArgInfo
}

// Goal is a compiled query: a Code sequence ending in a stop instruction,
// plus the named query variables and the local slots holding them.
type Goal struct {
	Code *Code
	Vars []GoalVar
}

// GoalVar names a query variable and its slot in the goal's environment.
type GoalVar struct {
	Name string
	Slot int
}
