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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// interruptMask: the abort flag is polled every 64 instructions.
const interruptMask = 63

// run executes instructions until the top-level goal yields a solution
// (true, nil), the search space is exhausted (false, nil), an uncaught
// exception or resource failure escapes (false, err), or an interrupt is
// observed (false, ErrInterrupted).
//
// A recovered panic carrying a *ResourceError is a fatal-but-orderly end of
// the query; anything else is an internal invariant violation and is
// reported wrapped rather than papered over.
func (m *Machine) run() (solution bool, err error) {
	defer func() {
		if e := recover(); e != nil {
			switch e := e.(type) {
			case *ResourceError:
				m.poisoned = true
				solution, err = false, e
			case error:
				err = errors.Wrapf(e, "recovered @pc=%d, heap %d, cps %d, envs %d",
					m.pc, len(m.heap), len(m.cps), len(m.envs))
			default:
				err = errors.Errorf("recovered @pc=%d: %v", m.pc, e)
			}
		}
	}()

	for {
		if m.insCount&interruptMask == 0 && m.interrupted.Load() {
			m.interrupted.Store(false)
			return false, ErrInterrupted
		}
		in := m.code.Instrs[m.pc]
		m.pc++
		m.insCount++
		if m.log != nil && m.log.IsLevelEnabled(logrus.TraceLevel) {
			m.log.WithFields(logrus.Fields{
				"pc": m.pc - 1, "op": in.Op.String(), "a": in.A, "b": in.B,
			}).Trace("step")
		}

		switch in.Op {
		case OpNop:

		case OpAllocate:
			m.pushEnv(int(in.A))

		case OpPushCell:
			m.push(m.code.Cells[in.A])

		case OpPushBig:
			m.push(m.arena.putBig(cloneBig(m.code.Bigs[in.A])))

		case OpPushFloat:
			m.push(m.arena.putFloat(m.code.Floats[in.A]))

		case OpPushStr:
			tail := m.pop()
			m.push(m.putString(m.code.Strs[in.A], tail))

		case OpPushFresh:
			c := refCell(m.putVariable())
			m.envs[m.curEnv].slots[in.A] = c
			m.push(c)

		case OpPushSlot:
			m.push(m.envs[m.curEnv].slots[in.A])

		case OpPushComp:
			fn := m.code.Fns[in.A]
			n := fn.Arity
			args := m.bstack[len(m.bstack)-n:]
			c := m.putCompound(fn.Name, args)
			m.bstack = m.bstack[:len(m.bstack)-n]
			m.push(c)

		case OpPushList:
			tail := m.pop()
			head := m.pop()
			m.push(m.putListPair(head, tail))

		case OpGetArg:
			pattern := m.pop()
			if !m.unify(pattern, m.aregs[in.A]) {
				if !m.backtrack() {
					return false, nil
				}
			}

		case OpLoadArg:
			m.envs[m.curEnv].slots[in.A] = m.aregs[in.B]

		case OpCall:
			fn := m.code.Fns[in.A]
			n := fn.Arity
			copy(m.aregs, m.bstack[len(m.bstack)-n:])
			m.bstack = m.bstack[:len(m.bstack)-n]
			m.contCode, m.contPC = m.code, m.pc
			if err := m.dispatch(fn); err != nil {
				if done, rerr := m.handleSolveError(err); done {
					return false, rerr
				}
			}

		case OpProceed:
			f := m.curEnv
			fr := &m.envs[f]
			m.code, m.pc = fr.retCode, fr.retPC
			m.curEnv = fr.prev
			m.popEnvIfFree(f)

		case OpCut:
			m.cut()

		case OpStop:
			return true, nil

		default:
			panic(fmt.Sprintf("wam: unknown opcode %d", in.Op))
		}
	}
}

// errFail is an internal signal: a call failed and backtracking found no
// remaining alternative.
var errFail = errors.New("no more alternatives")

// handleSolveError routes an error raised during a call: exceptions try the
// catch unwind first, failure-exhaustion ends the query. It reports whether
// the run loop should stop, and with what error.
func (m *Machine) handleSolveError(err error) (bool, error) {
	if err == errFail {
		return true, nil
	}
	var ex *Exception
	if errors.As(err, &ex) {
		switch terr := m.throwBall(ex.Ball); terr {
		case nil:
			return false, nil
		case errFail:
			return true, nil
		default:
			return true, terr
		}
	}
	return true, err
}

// dispatch transfers control to a predicate or builtin. The argument
// registers are loaded and the continuation registers point past the call.
// It returns nil when forward execution can continue (possibly into a
// clause), errFail when the machine exhausted all alternatives, or an
// *Exception.
func (m *Machine) dispatch(fn Functor) error {
	switch fn {
	case m.callFn:
		return m.metaCall(m.aregs[0])
	case m.catchFn:
		return m.dispatchCatch()
	}

	if b, ok := m.builtins[fn]; ok {
		if m.log != nil {
			m.log.WithField("pred", m.fnString(fn)).Debug("builtin")
		}
		ok, err := b(m, m.aregs[:fn.Arity])
		if err != nil {
			return err
		}
		if !ok {
			return m.fail()
		}
		// success: resume at the continuation
		m.code, m.pc = m.contCode, m.contPC
		return nil
	}

	p := m.preds[fn]
	if p == nil {
		return existenceError(m.atoms.Name(fn.Name), fn.Arity)
	}
	if m.log != nil {
		m.log.WithField("pred", m.fnString(fn)).Debug("call")
	}

	cands := p.candidates(m)
	if len(cands) == 0 {
		return m.fail()
	}
	m.cutBarrier = len(m.cps)
	if len(cands) > 1 {
		cp := m.pushChoicePoint(cpClause, fn.Arity)
		cp.pred = p
		cp.cands = cands
		cp.next = 1
	}
	m.code, m.pc = p.clauses[cands[0]].Code, 0
	return nil
}

// fail enters BACKTRACKING and resumes the newest alternative, or reports
// errFail when none remains.
func (m *Machine) fail() error {
	if m.backtrack() {
		return nil
	}
	return errFail
}

// metaCall calls the goal designated by a term: an atom names a 0-arity
// predicate, a compound supplies functor and arguments. Anything else is a
// type error; an unbound goal is an instantiation error.
func (m *Machine) metaCall(goal Cell) error {
	g := m.deref(goal)
	switch g.Tag {
	case TagAtom:
		return m.dispatch(Functor{Name: g.Atom(), Arity: 0})
	case TagStr:
		hdr := m.heap[g.Val]
		n := int(hdr.Arity)
		if n > maxArity {
			return &Exception{Ball: Comp("error", Comp("representation_error", Atom("max_arity")), Atom("call/1"))}
		}
		for i := 0; i < n; i++ {
			m.aregs[i] = m.heap[g.Val+1+int64(i)]
		}
		return m.dispatch(Functor{Name: hdr.Atom(), Arity: n})
	case TagRef:
		return instantiationError("call/1")
	default:
		return typeError("callable", m.decode(g), "call/1")
	}
}

// dispatchCatch implements catch(Goal, Catcher, Recovery): a catch choice
// point is pushed with the catcher and recovery terms, then Goal runs
// normally. A ball thrown while the choice point is live stops its unwind
// here (see throwBall).
func (m *Machine) dispatchCatch() error {
	goal, catcher, recovery := m.aregs[0], m.aregs[1], m.aregs[2]
	cp := m.pushChoicePoint(cpCatch, 0)
	cp.catcher = catcher
	cp.recovery = recovery
	return m.metaCall(goal)
}

// throwBall unwinds choice points exactly like backtracking, but stops at
// the newest catch point whose catcher unifies with (a fresh copy of) the
// ball. On a catch it starts the recovery goal and returns nil so execution
// continues forward; errFail means the recovery exhausted all alternatives
// and the query fails; any remaining *Exception escapes to the host. The
// ball is decoded before any unwinding so its bindings survive the undo.
func (m *Machine) throwBall(ball Term) error {
	if m.log != nil {
		m.log.WithField("ball", ball.String()).Debug("throw")
	}
	for len(m.cps) > 0 {
		cp := m.cps[len(m.cps)-1]
		m.restoreMarks(&cp)
		m.cps = m.cps[:len(m.cps)-1]
		if cp.kind != cpCatch {
			continue
		}
		ballCell := m.encode(ball, make(map[Var]Cell))
		if !m.unify(ballCell, cp.catcher) {
			// not this catcher; keep unwinding (the next restoreMarks
			// rewinds the bindings this attempt made)
			continue
		}
		m.contCode, m.contPC = cp.contCode, cp.contPC
		m.cutBarrier = len(m.cps)
		if err := m.metaCall(cp.recovery); err != nil {
			var ex *Exception
			if errors.As(err, &ex) {
				ball = ex.Ball
				continue
			}
			return err
		}
		return nil
	}
	return &Exception{Ball: ball}
}

// push appends to the term build stack.
func (m *Machine) push(c Cell) { m.bstack = append(m.bstack, c) }

// pop removes and returns the top of the term build stack.
func (m *Machine) pop() Cell {
	c := m.bstack[len(m.bstack)-1]
	m.bstack = m.bstack[:len(m.bstack)-1]
	return c
}

func (m *Machine) fnString(fn Functor) string {
	return fmt.Sprintf("%s/%d", m.atoms.Name(fn.Name), fn.Arity)
}
