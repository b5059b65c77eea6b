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
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/patrickdet/scryer-prolog/atom"
)

const (
	defaultHeapSize  = 1 << 16
	defaultStackSize = 1 << 10
)

// Machine is one logic-machine instance. It owns its heap, arena, trail,
// environment stack and choice-point stack exclusively; the atom table and
// registered predicates may be shared with other instances. All methods
// except Interrupt must be called from a single goroutine.
type Machine struct {
	atoms *atom.Table

	heap  []Cell
	arena *arena
	trail []int

	cps    []choicePoint
	envs   []envFrame
	curEnv int

	aregs  []Cell
	bstack []Cell
	upairs [][2]Cell

	// instruction registers
	code       *Code
	pc         int
	contCode   *Code
	contPC     int
	cutBarrier int

	preds    map[Functor]*Predicate
	builtins map[Functor]Builtin

	// interned special-form keys, fixed at construction
	callFn  Functor
	catchFn Functor

	heapInit  int
	stackInit int
	maxHeap   int
	maxTrail  int
	indexing  bool
	log       *logrus.Logger

	insCount    int64
	interrupted atomic.Bool
	cursor      *Solutions
	poisoned    bool
}

// Option configures a Machine.
type Option func(*Machine) error

// HeapSize sets the initial heap capacity in cells. The heap grows on demand
// up to the MaxHeapSize limit. The default is 65536 cells.
func HeapSize(size int) Option {
	return func(m *Machine) error {
		if size < 1 {
			return errors.Errorf("heap size %d too small", size)
		}
		m.heapInit = size
		return nil
	}
}

// StackSize sets the initial capacity of the environment and choice-point
// stacks. The default is 1024 frames.
func StackSize(size int) Option {
	return func(m *Machine) error {
		if size < 1 {
			return errors.Errorf("stack size %d too small", size)
		}
		m.stackInit = size
		return nil
	}
}

// MaxHeapSize caps heap growth, in cells. Exceeding the cap is a fatal
// resource error for the running query. Zero means unlimited.
func MaxHeapSize(size int) Option {
	return func(m *Machine) error {
		m.maxHeap = size
		return nil
	}
}

// MaxTrailSize caps trail growth, in entries. Zero means unlimited.
func MaxTrailSize(size int) Option {
	return func(m *Machine) error {
		m.maxTrail = size
		return nil
	}
}

// NoIndexing disables first-argument indexing: every call tries all clauses
// in order. Solutions must be identical either way; only the number of
// clause attempts changes.
func NoIndexing() Option {
	return func(m *Machine) error {
		m.indexing = false
		return nil
	}
}

// Trace makes the machine log calls, redos, cuts and exits through the
// given logger at debug level, and individual instructions at trace level.
func Trace(log *logrus.Logger) Option {
	return func(m *Machine) error {
		m.log = log
		return nil
	}
}

// New creates a machine using the given atom table, which must not be nil:
// the interner is an explicitly shared service, not a hidden global, so that
// several machines can intern compatibly.
func New(atoms *atom.Table, opts ...Option) (*Machine, error) {
	if atoms == nil {
		return nil, errors.New("wam: nil atom table")
	}
	m := &Machine{
		atoms:     atoms,
		arena:     newArena(),
		curEnv:    -1,
		heapInit:  defaultHeapSize,
		stackInit: defaultStackSize,
		indexing:  true,
		preds:     make(map[Functor]*Predicate),
		builtins:  make(map[Functor]Builtin),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.heap = make([]Cell, 1, m.heapInit)
	m.heap[0] = Cell{} // address 0 is never live
	m.envs = make([]envFrame, 0, m.stackInit)
	m.cps = make([]choicePoint, 0, m.stackInit)
	m.aregs = make([]Cell, maxArity)
	m.callFn = m.Functor("call", 1)
	m.catchFn = m.Functor("catch", 3)
	m.registerCoreBuiltins()
	return m, nil
}

// SetOptions applies options to an existing machine.
func (m *Machine) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return err
		}
	}
	return nil
}

// Atoms returns the machine's atom table.
func (m *Machine) Atoms() *atom.Table { return m.atoms }

// Interrupt requests that the running query be aborted. It is safe to call
// from any goroutine. The abort is observed at instruction-dispatch
// granularity; the cursor then reports ErrInterrupted and the machine is
// clean for further queries.
func (m *Machine) Interrupt() { m.interrupted.Store(true) }

// InstructionCount returns the number of instructions executed by the last
// (or current) query.
func (m *Machine) InstructionCount() int64 { return m.insCount }

// HeapTop returns the current heap top address.
func (m *Machine) HeapTop() int { return len(m.heap) }

// TrailDepth returns the number of live trail entries.
func (m *Machine) TrailDepth() int { return len(m.trail) }

// ChoiceDepth returns the number of live choice points.
func (m *Machine) ChoiceDepth() int { return len(m.cps) }

// EnvDepth returns the number of live environment frames.
func (m *Machine) EnvDepth() int { return len(m.envs) }

// Reset discards all per-query state and the whole arena, returning the
// machine to a clean session boundary. Registered predicates and builtins
// survive. Reset fails while a solution cursor is open.
func (m *Machine) Reset() error {
	if m.cursor != nil {
		return errors.New("wam: reset with an open solution cursor")
	}
	m.heap = m.heap[:1]
	m.arena.reset()
	m.trail = m.trail[:0]
	m.cps = m.cps[:0]
	m.envs = m.envs[:0]
	m.curEnv = -1
	m.code, m.pc = nil, 0
	m.contCode, m.contPC = nil, 0
	m.poisoned = false
	m.interrupted.Store(false)
	return nil
}

// Register installs (or replaces) the clause list of a predicate and builds
// its first-argument index. Clause order is preserved: indexing only ever
// narrows which clauses are attempted.
func (m *Machine) Register(fn Functor, clauses []*Clause) {
	cs := make([]*Clause, len(clauses))
	copy(cs, clauses)
	m.preds[fn] = &Predicate{Fn: fn, clauses: cs, idx: buildIndex(cs)}
}

// AddClause appends one clause to a predicate, creating the predicate on
// first use, and rebuilds the index. This is the assert-style mutation of
// the predicate table.
func (m *Machine) AddClause(fn Functor, c *Clause) {
	p := m.preds[fn]
	if p == nil {
		m.Register(fn, []*Clause{c})
		return
	}
	p.clauses = append(p.clauses, c)
	p.idx = buildIndex(p.clauses)
}

// Predicate returns the registered predicate for fn, or nil.
func (m *Machine) Predicate(fn Functor) *Predicate {
	return m.preds[fn]
}

// Functor interns name and returns the functor key name/arity.
func (m *Machine) Functor(name string, arity int) Functor {
	return Functor{Name: m.atoms.Intern(name), Arity: arity}
}
