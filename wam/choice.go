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

import "github.com/sirupsen/logrus"

type cpKind uint8

const (
	// cpClause resumes the next clause alternative of a predicate call.
	cpClause cpKind = iota
	// cpCatch is a catch/3 barrier: no alternatives on ordinary
	// backtracking, but a thrown ball whose term unifies with the catcher
	// stops unwinding here and runs the recovery goal.
	cpCatch
	// cpBarrier is an internal mark used to undo speculative unification
	// (\=/2 and friends); it never survives the builtin that pushed it.
	cpBarrier
)

// choicePoint captures everything needed to resume an untried alternative:
// the heap/trail/environment marks to restore, the saved argument registers
// and continuation, and the remaining clause candidates.
type choicePoint struct {
	kind     cpKind
	heapTop  int
	trailTop int
	envTop   int
	frame    int // current environment at creation

	contCode *Code
	contPC   int
	aregs    []Cell

	pred  *Predicate
	cands []int
	next  int

	catcher  Cell
	recovery Cell
}

// envFrame holds the local variables of a running clause body and its
// continuation. Frames are popped on clause exit only when no younger choice
// point still needs them; otherwise they linger until a backtrack truncates
// the stack ("environment trimming" being an optimization, not a correctness
// requirement).
type envFrame struct {
	prev    int
	retCode *Code
	retPC   int
	cutB    int
	slots   []Cell
}

// pushEnv allocates an environment frame with n slots, capturing the current
// continuation and cut barrier.
func (m *Machine) pushEnv(n int) {
	m.envs = append(m.envs, envFrame{
		prev:    m.curEnv,
		retCode: m.contCode,
		retPC:   m.contPC,
		cutB:    m.cutBarrier,
		slots:   make([]Cell, n),
	})
	m.curEnv = len(m.envs) - 1
}

// popEnvIfFree physically reclaims the frame at idx after a clause returned
// through it, provided it is the top frame and no choice point protects it.
func (m *Machine) popEnvIfFree(idx int) {
	if idx != len(m.envs)-1 {
		return
	}
	if n := len(m.cps); n > 0 && m.cps[n-1].envTop > idx {
		return
	}
	m.envs = m.envs[:idx]
}

// pushChoicePoint saves the machine marks with the given alternatives. arity
// is the number of argument registers worth saving.
func (m *Machine) pushChoicePoint(kind cpKind, arity int) *choicePoint {
	var saved []Cell
	if arity > 0 {
		saved = make([]Cell, arity)
		copy(saved, m.aregs[:arity])
	}
	m.cps = append(m.cps, choicePoint{
		kind:     kind,
		heapTop:  len(m.heap),
		trailTop: len(m.trail),
		envTop:   len(m.envs),
		frame:    m.curEnv,
		contCode: m.contCode,
		contPC:   m.contPC,
		aregs:    saved,
	})
	return &m.cps[len(m.cps)-1]
}

// restoreMarks rewinds bindings, heap, and environment stack to the choice
// point's creation marks. Undo order is strictly reverse-chronological.
func (m *Machine) restoreMarks(cp *choicePoint) {
	m.unwindTrail(cp.trailTop)
	m.heap = m.heap[:cp.heapTop]
	m.envs = m.envs[:cp.envTop]
	m.curEnv = cp.frame
}

// backtrack transitions from BACKTRACKING to RUNNING by resuming the newest
// choice point holding an untried alternative. It reports false when the
// search space is exhausted.
func (m *Machine) backtrack() bool {
	for len(m.cps) > 0 {
		cp := &m.cps[len(m.cps)-1]
		m.restoreMarks(cp)
		switch cp.kind {
		case cpClause:
			copy(m.aregs, cp.aregs)
			m.contCode, m.contPC = cp.contCode, cp.contPC
			clause := cp.pred.clauses[cp.cands[cp.next]]
			cp.next++
			if m.log != nil {
				m.log.WithFields(logrus.Fields{
					"pred":   m.fnString(cp.pred.Fn),
					"choice": cp.next,
				}).Debug("redo")
			}
			if cp.next == len(cp.cands) {
				// trust: last alternative, the choice point is spent
				m.cps = m.cps[:len(m.cps)-1]
				m.cutBarrier = len(m.cps)
			} else {
				// retry: keep the choice point for the rest
				m.cutBarrier = len(m.cps) - 1
			}
			m.code, m.pc = clause.Code, 0
			return true
		default:
			// catch barriers have no alternatives on plain failure
			m.cps = m.cps[:len(m.cps)-1]
		}
	}
	return false
}

// cut removes every choice point created since entry to the clause holding
// the cut, by resetting the stack to the barrier recorded in the current
// environment. Heap and trail are left alone: bindings made by the committed
// path stay valid and will be rewound by an older choice point if one is
// ever resumed.
func (m *Machine) cut() {
	barrier := m.cutBarrier
	if m.curEnv >= 0 {
		barrier = m.envs[m.curEnv].cutB
	}
	if barrier < len(m.cps) {
		if m.log != nil {
			m.log.WithField("dropped", len(m.cps)-barrier).Debug("cut")
		}
		m.cps = m.cps[:barrier]
	}
}

// unifiable reports whether a and b can unify, undoing every binding the
// attempt makes. It runs the attempt under a barrier choice point so the
// ordinary trail rules capture all side effects.
func (m *Machine) unifiable(a, b Cell) bool {
	m.pushChoicePoint(cpBarrier, 0)
	ok := m.unify(a, b)
	cp := &m.cps[len(m.cps)-1]
	m.unwindTrail(cp.trailTop)
	m.heap = m.heap[:cp.heapTop]
	m.cps = m.cps[:len(m.cps)-1]
	return ok
}
