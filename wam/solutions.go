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
	"strings"

	"github.com/pkg/errors"
)

// Solutions enumerates the answers of one query on demand. Each Next pulls
// one solution; between pulls the machine keeps its choice points alive so
// the search resumes exactly where it stopped. A machine runs one cursor at
// a time.
type Solutions struct {
	m    *Machine
	goal *Goal

	baseHeap  int
	baseTrail int
	baseCPs   int
	baseEnvs  int

	started bool
	done    bool
	err     error
	binds   map[string]Term
}

// Solve starts the compiled query and returns its solution cursor. No search
// happens until the first Next. Solve fails while another cursor is open or
// after a resource error left the machine poisoned (Reset clears that).
func (m *Machine) Solve(g *Goal) (*Solutions, error) {
	if m.cursor != nil {
		return nil, ErrCursorActive
	}
	if m.poisoned {
		return nil, errors.New("wam: machine poisoned by a resource error, Reset required")
	}
	s := &Solutions{
		m:         m,
		goal:      g,
		baseHeap:  len(m.heap),
		baseTrail: len(m.trail),
		baseCPs:   len(m.cps),
		baseEnvs:  len(m.envs),
	}
	m.cursor = s
	m.insCount = 0
	// an Interrupt that landed after the previous query finished must not
	// abort this one
	m.interrupted.Store(false)
	m.code, m.pc = g.Code, 0
	m.contCode, m.contPC = nil, 0
	m.cutBarrier = len(m.cps)
	return s, nil
}

// Next advances to the next solution. It reports false when the query is
// exhausted, failed, or stopped on an error; Err distinguishes those.
func (s *Solutions) Next() bool {
	if s.done {
		return false
	}
	m := s.m
	if s.started {
		// ask for a different solution: fail out of the previous one
		if !m.backtrack() {
			s.finish(nil)
			return false
		}
	}
	s.started = true
	ok, err := m.run()
	if err != nil {
		s.finish(err)
		return false
	}
	if !ok {
		s.finish(nil)
		return false
	}
	s.capture()
	return true
}

// capture decodes the goal-variable bindings of the current solution.
// Variables named "_" stay anonymous and are skipped.
func (s *Solutions) capture() {
	frame := &s.m.envs[s.baseEnvs]
	s.binds = make(map[string]Term, len(s.goal.Vars))
	for _, v := range s.goal.Vars {
		if strings.HasPrefix(v.Name, "_") {
			continue
		}
		s.binds[v.Name] = s.m.decode(frame.slots[v.Slot])
	}
}

// Bindings returns the variable bindings of the solution produced by the
// last successful Next. The map is freshly decoded and safe to retain.
func (s *Solutions) Bindings() map[string]Term { return s.binds }

// Var returns the binding of one goal variable from the last solution.
func (s *Solutions) Var(name string) (Term, bool) {
	t, ok := s.binds[name]
	return t, ok
}

// Err returns the error that ended the cursor: nil after plain exhaustion,
// ErrInterrupted after an abort, an *Exception for an uncaught ball, or a
// *ResourceError when a machine limit was hit.
func (s *Solutions) Err() error { return s.err }

// Close abandons the query and rewinds all of its bindings and stacks. It is
// idempotent and must be called (or the cursor exhausted) before the machine
// accepts another query.
func (s *Solutions) Close() error {
	if !s.done {
		s.finish(nil)
	}
	return nil
}

func (s *Solutions) finish(err error) {
	m := s.m
	s.done = true
	s.err = err
	m.cursor = nil
	m.unwindTrail(s.baseTrail)
	m.heap = m.heap[:s.baseHeap]
	m.cps = m.cps[:s.baseCPs]
	m.envs = m.envs[:s.baseEnvs]
	m.curEnv = -1
	m.code, m.pc = nil, 0
	m.contCode, m.contPC = nil, 0
}
