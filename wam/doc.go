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

// Package wam implements a WAM-style virtual machine for logic programs.
//
// The machine executes compiled clauses against a query, producing one
// solution at a time through backtracking search. Terms live on a tagged-cell
// heap with a side arena for variable-size payloads (bignums, floats, string
// segments); bindings made since the last choice point are recorded on a
// trail so that backtracking restores the heap exactly. Choice points capture
// heap/trail/stack marks plus the remaining clause alternatives, which makes
// "give me the next solution" resumable across host call boundaries without
// native coroutines.
//
// A Machine instance owns its heap, trail, environment stack and choice-point
// stack and must be driven from a single goroutine. The atom table and
// compiled predicates may be shared between instances. Long-running queries
// can be aborted from another goroutine with Interrupt.
//
// The instruction encoding consumed by the machine is produced by the codegen
// package; the machine itself never parses source text.
package wam
