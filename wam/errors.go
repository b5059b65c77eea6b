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
)

// ErrInterrupted is reported by a solution cursor when the query was aborted
// through Machine.Interrupt. The machine stays usable for further queries.
var ErrInterrupted = errors.New("query interrupted")

// ErrCursorActive is returned by Solve while a previous cursor has not been
// exhausted or closed. A machine serves one query at a time; concurrent
// queries need separate machine instances.
var ErrCursorActive = errors.New("another solution cursor is active on this machine")

// Exception carries a Prolog exception term thrown during solving that no
// catch point intercepted. It travels on the normal solution channel: the
// query is over, but the machine is intact.
type Exception struct {
	Ball Term
}

func (e *Exception) Error() string {
	return fmt.Sprintf("uncaught exception: %v", e.Ball)
}

// ResourceError reports exhaustion of a machine resource (heap, trail or
// stack growth beyond the configured limit). It is fatal to the current query
// and, unlike an Exception, the machine refuses further queries until Reset.
type ResourceError struct {
	Resource string
	Limit    int
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s exhausted (limit %d cells)", e.Resource, e.Limit)
}

// typeError builds the standard error(type_error(Type, Culprit), Context)
// exception ball.
func typeError(kind string, culprit Term, context string) *Exception {
	return &Exception{Ball: Comp("error",
		Comp("type_error", Atom(kind), culprit),
		Atom(context))}
}

// instantiationError builds error(instantiation_error, Context).
func instantiationError(context string) *Exception {
	return &Exception{Ball: Comp("error",
		Atom("instantiation_error"),
		Atom(context))}
}

// existenceError builds error(existence_error(procedure, F/A), F/A).
func existenceError(name string, arity int) *Exception {
	ind := Comp("/", Atom(name), Int(int64(arity)))
	return &Exception{Ball: Comp("error",
		Comp("existence_error", Atom("procedure"), ind),
		ind)}
}

// evaluationError builds error(evaluation_error(What), Context), used by
// arithmetic (zero_divisor and friends).
func evaluationError(what, context string) *Exception {
	return &Exception{Ball: Comp("error",
		Comp("evaluation_error", Atom(what)),
		Atom(context))}
}
