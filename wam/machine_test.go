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

package wam_test

import (
	"strings"
	"testing"
	"time"

	"github.com/patrickdet/scryer-prolog/atom"
	"github.com/patrickdet/scryer-prolog/codegen"
	"github.com/patrickdet/scryer-prolog/lang/pl"
	"github.com/patrickdet/scryer-prolog/wam"
)

// engine bundles a machine with a compiler on a shared atom table.
type engine struct {
	m    *wam.Machine
	comp *codegen.Compiler
}

func newEngine(t *testing.T, opts ...wam.Option) *engine {
	t.Helper()
	atoms := atom.NewTable()
	m, err := wam.New(atoms, opts...)
	if err != nil {
		t.Fatal(err)
	}
	comp := codegen.New(atoms)
	if err := comp.Prelude(m); err != nil {
		t.Fatal(err)
	}
	return &engine{m: m, comp: comp}
}

func (e *engine) consult(t *testing.T, src string) {
	t.Helper()
	clauses, err := pl.ParseProgram(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	for _, cl := range clauses {
		fn, compiled, err := e.comp.Clause(cl.Head, cl.Body...)
		if err != nil {
			t.Fatal(err)
		}
		e.m.AddClause(fn, compiled)
	}
}

func (e *engine) solve(t *testing.T, query string) *wam.Solutions {
	t.Helper()
	goals, err := pl.ParseQuery(query)
	if err != nil {
		t.Fatal(err)
	}
	g, err := e.comp.Query(goals...)
	if err != nil {
		t.Fatal(err)
	}
	sols, err := e.m.Solve(g)
	if err != nil {
		t.Fatal(err)
	}
	return sols
}

// all drains the cursor into one rendered string per solution.
func (e *engine) all(t *testing.T, query string) ([]string, error) {
	t.Helper()
	sols := e.solve(t, query)
	defer sols.Close()
	var out []string
	for sols.Next() {
		out = append(out, renderBindings(sols.Bindings()))
	}
	return out, sols.Err()
}

func renderBindings(binds map[string]wam.Term) string {
	if len(binds) == 0 {
		return "true"
	}
	// small maps, deterministic enough to sort by hand
	keys := make([]string, 0, len(binds))
	for k := range binds {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(binds[k].String())
	}
	return b.String()
}

func expectSolutions(t *testing.T, got []string, err error, want ...string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d solutions %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("solution %d = %q, want %q", i, got[i], want[i])
		}
	}
}

const familyProgram = `
parent(tom, bob).
parent(tom, liz).
parent(bob, ann).
parent(bob, pat).
grandparent(X, Z) :- parent(X, Y), parent(Y, Z).
`

func TestGrandparent(t *testing.T) {
	e := newEngine(t)
	e.consult(t, familyProgram)
	got, err := e.all(t, "grandparent(tom, W)")
	expectSolutions(t, got, err, "W=ann", "W=pat")
}

func TestMemberEnumeration(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "member(X, [1,2,3])")
	expectSolutions(t, got, err, "X=1", "X=2", "X=3")
}

func TestCursorExhaustionIsSticky(t *testing.T) {
	e := newEngine(t)
	sols := e.solve(t, "member(X, [1])")
	defer sols.Close()
	if !sols.Next() {
		t.Fatal("expected one solution")
	}
	if sols.Next() {
		t.Fatal("expected exhaustion after one solution")
	}
	for i := 0; i < 3; i++ {
		if sols.Next() {
			t.Fatal("Next after exhaustion must keep reporting false")
		}
	}
	if sols.Err() != nil {
		t.Errorf("Err = %v, want nil", sols.Err())
	}
}

func TestFailureLeavesNoSolutions(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "member(4, [1,2,3])")
	expectSolutions(t, got, err)
}

func TestConjunctionAndUnification(t *testing.T) {
	e := newEngine(t)
	e.consult(t, familyProgram)
	got, err := e.all(t, "parent(tom, X), parent(X, Y)")
	expectSolutions(t, got, err, "X=bob Y=ann", "X=bob Y=pat")
}

func TestCutCommitsToFirstSolution(t *testing.T) {
	e := newEngine(t)
	e.consult(t, `
p(1). p(2). p(3).
first(X) :- p(X), !.
`)
	got, err := e.all(t, "first(X)")
	expectSolutions(t, got, err, "X=1")
}

func TestCutIsLocalToClause(t *testing.T) {
	e := newEngine(t)
	e.consult(t, `
p(1). p(2).
q(X) :- p(X), !.
r(X, Y) :- q(X), p(Y).
`)
	// the cut inside q must not prune p(Y) alternatives in r
	got, err := e.all(t, "r(X, Y)")
	expectSolutions(t, got, err, "X=1 Y=1", "X=1 Y=2")
}

func TestIfThenElse(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "(1 < 2 -> X = yes ; X = no)")
	expectSolutions(t, got, err, "X=yes")

	got, err = e.all(t, "(2 < 1 -> X = yes ; X = no)")
	expectSolutions(t, got, err, "X=no")

	// the condition commits: at most one solution from it
	got, err = e.all(t, "(member(X, [a,b]) -> true ; fail)")
	expectSolutions(t, got, err, "X=a")
}

func TestDisjunction(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "(X = 1 ; X = 2)")
	expectSolutions(t, got, err, "X=1", "X=2")
}

func TestNegation(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "\\+ member(4, [1,2,3])")
	expectSolutions(t, got, err, "true")

	got, err = e.all(t, "\\+ member(1, [1,2,3])")
	expectSolutions(t, got, err)
}

func TestArithmetic(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "X is 3 + 4 * 2")
	expectSolutions(t, got, err, "X=11")

	got, err = e.all(t, "X is 10 / 4")
	expectSolutions(t, got, err, "X=2.5")

	got, err = e.all(t, "3 < 4, 4 =< 4, 5 =:= 5")
	expectSolutions(t, got, err, "true")

	got, err = e.all(t, "4 < 3")
	expectSolutions(t, got, err)
}

func TestAppendSplit(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "append(X, Y, [1,2])")
	expectSolutions(t, got, err,
		"X=[] Y=[1,2]",
		"X=[1] Y=[2]",
		"X=[1,2] Y=[]")
}

func TestLengthAndBetween(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "length([a,b,c], N)")
	expectSolutions(t, got, err, "N=3")

	got, err = e.all(t, "between(1, 3, X)")
	expectSolutions(t, got, err, "X=1", "X=2", "X=3")
}

func TestStringsUnifyWithLists(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, `"ab" = [H|T]`)
	expectSolutions(t, got, err, `H=a T="b"`)

	got, err = e.all(t, `"abc" = [a,b,c]`)
	expectSolutions(t, got, err, "true")

	got, err = e.all(t, `"étude" = [H|T]`)
	expectSolutions(t, got, err, `H=é T="tude"`)
}

func TestUndefinedPredicateThrows(t *testing.T) {
	e := newEngine(t)
	sols := e.solve(t, "no_such_predicate(1, 2)")
	defer sols.Close()
	if sols.Next() {
		t.Fatal("expected no solution")
	}
	ex, ok := sols.Err().(*wam.Exception)
	if !ok {
		t.Fatalf("Err = %v, want *Exception", sols.Err())
	}
	want := "error(existence_error(procedure,/(no_such_predicate,2)),/(no_such_predicate,2))"
	if got := ex.Ball.String(); got != want {
		t.Errorf("ball = %s, want %s", got, want)
	}
}

func TestCatchThrow(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "catch(throw(oops), E, true)")
	expectSolutions(t, got, err, "E=oops")

	// non-matching catcher: the ball keeps going
	sols := e.solve(t, "catch(throw(oops), mismatch(_), true)")
	defer sols.Close()
	if sols.Next() {
		t.Fatal("expected no solution")
	}
	if _, ok := sols.Err().(*wam.Exception); !ok {
		t.Fatalf("Err = %v, want rethrown *Exception", sols.Err())
	}
}

func TestCatchRunsRecoveryGoal(t *testing.T) {
	e := newEngine(t)
	e.consult(t, `
risky(1) :- throw(bad(1)).
risky(2).
`)
	got, err := e.all(t, "catch(risky(1), bad(N), R = recovered(N))")
	expectSolutions(t, got, err, "N=1 R=recovered(1)")
}

func TestCatchUndefinedPredicate(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "catch(ghost, error(existence_error(procedure, _), _), true)")
	expectSolutions(t, got, err, "true")
}

func TestIndexingEquivalence(t *testing.T) {
	const program = `
color(red, warm).
color(blue, cold).
color(green, cool).
color(X, unknown) :- atom(X).
shape(circle). shape(square). shape(circle).
`
	queries := []string{
		"color(blue, T)",
		"color(C, T)",
		"color(chartreuse, T)",
		"shape(S)",
		"shape(circle)",
	}
	indexed := newEngine(t)
	indexed.consult(t, program)
	linear := newEngine(t, wam.NoIndexing())
	linear.consult(t, program)

	for _, q := range queries {
		a, errA := indexed.all(t, q)
		b, errB := linear.all(t, q)
		if (errA == nil) != (errB == nil) {
			t.Fatalf("%s: indexed err %v, linear err %v", q, errA, errB)
		}
		if len(a) != len(b) {
			t.Fatalf("%s: indexed %v, linear %v", q, a, b)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("%s: solution %d differs: %q vs %q", q, i, a[i], b[i])
			}
		}
	}
}

func TestQueryLeavesMachineClean(t *testing.T) {
	e := newEngine(t)
	e.consult(t, familyProgram)

	heap, trail := e.m.HeapTop(), e.m.TrailDepth()
	for i := 0; i < 3; i++ {
		got, err := e.all(t, "grandparent(tom, W)")
		expectSolutions(t, got, err, "W=ann", "W=pat")
		if e.m.HeapTop() != heap || e.m.TrailDepth() != trail {
			t.Fatalf("run %d: heap=%d trail=%d, want %d/%d",
				i, e.m.HeapTop(), e.m.TrailDepth(), heap, trail)
		}
		if e.m.ChoiceDepth() != 0 || e.m.EnvDepth() != 0 {
			t.Fatalf("run %d: stacks not empty", i)
		}
	}
}

func TestCloseAbandonsSearch(t *testing.T) {
	e := newEngine(t)
	heap := e.m.HeapTop()
	sols := e.solve(t, "member(X, [1,2,3])")
	if !sols.Next() {
		t.Fatal("expected a solution")
	}
	if err := sols.Close(); err != nil {
		t.Fatal(err)
	}
	if e.m.HeapTop() != heap {
		t.Errorf("heap top = %d after Close, want %d", e.m.HeapTop(), heap)
	}
	// the machine accepts a fresh query
	got, err := e.all(t, "member(X, [a])")
	expectSolutions(t, got, err, "X=a")
}

func TestSingleCursorRule(t *testing.T) {
	e := newEngine(t)
	sols := e.solve(t, "member(X, [1,2])")
	defer sols.Close()

	goals, err := pl.ParseQuery("member(Y, [a])")
	if err != nil {
		t.Fatal(err)
	}
	g, err := e.comp.Query(goals...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.m.Solve(g); err != wam.ErrCursorActive {
		t.Errorf("Solve = %v, want ErrCursorActive", err)
	}
}

func TestInterruptStopsInfiniteQuery(t *testing.T) {
	e := newEngine(t)
	e.consult(t, "loop :- loop.")

	sols := e.solve(t, "loop")
	defer sols.Close()
	timer := time.AfterFunc(20*time.Millisecond, e.m.Interrupt)
	defer timer.Stop()

	if sols.Next() {
		t.Fatal("infinite query produced a solution")
	}
	if sols.Err() != wam.ErrInterrupted {
		t.Fatalf("Err = %v, want ErrInterrupted", sols.Err())
	}

	// the machine is clean and serves further queries
	got, err := e.all(t, "member(X, [7])")
	expectSolutions(t, got, err, "X=7")
}

func TestInterruptBetweenQueriesIsDiscarded(t *testing.T) {
	e := newEngine(t)
	e.consult(t, "p(1).")

	// an interrupt with no query running must not abort the next one
	e.m.Interrupt()
	got, err := e.all(t, "p(X)")
	expectSolutions(t, got, err, "X=1")
}

func TestHeapLimitPoisonsUntilReset(t *testing.T) {
	e := newEngine(t, wam.MaxHeapSize(2048))
	e.consult(t, `
gen(0, []).
gen(N, [N|T]) :- N > 0, M is N - 1, gen(M, T).
`)
	sols := e.solve(t, "gen(100000, L)")
	if sols.Next() {
		t.Fatal("expected resource failure")
	}
	if _, ok := sols.Err().(*wam.ResourceError); !ok {
		t.Fatalf("Err = %v, want *ResourceError", sols.Err())
	}
	sols.Close()

	goals, _ := pl.ParseQuery("member(X, [1])")
	g, err := e.comp.Query(goals...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.m.Solve(g); err == nil {
		t.Fatal("Solve on a poisoned machine must fail")
	}
	if err := e.m.Reset(); err != nil {
		t.Fatal(err)
	}
	got, err := e.all(t, "member(X, [1])")
	expectSolutions(t, got, err, "X=1")
}

func TestAddClauseBetweenQueries(t *testing.T) {
	e := newEngine(t)
	e.consult(t, "fact(a).")
	got, err := e.all(t, "fact(X)")
	expectSolutions(t, got, err, "X=a")

	e.consult(t, "fact(b).")
	got, err = e.all(t, "fact(X)")
	expectSolutions(t, got, err, "X=a", "X=b")
}

func TestMetaCall(t *testing.T) {
	e := newEngine(t)
	e.consult(t, familyProgram)
	got, err := e.all(t, "G = parent(tom, X), call(G)")
	expectSolutions(t, got, err, "G=parent(tom,bob) X=bob", "G=parent(tom,liz) X=liz")

	sols := e.solve(t, "call(X)")
	defer sols.Close()
	if sols.Next() {
		t.Fatal("call of an unbound goal must throw")
	}
	if _, ok := sols.Err().(*wam.Exception); !ok {
		t.Fatalf("Err = %v, want instantiation exception", sols.Err())
	}
}

func TestTypeTests(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		query string
		want  bool
	}{
		{"atom(foo)", true},
		{"atom(1)", false},
		{"atom(f(x))", false},
		{"integer(3)", true},
		{"integer(3.0)", false},
		{"float(3.0)", true},
		{"number(3)", true},
		{"var(_)", true},
		{"nonvar(f(x))", true},
		{"compound(f(x))", true},
		{"compound(foo)", false},
		{"atomic(foo)", true},
		{"atomic(f(x))", false},
		{"is_list([1,2])", true},
		{"is_list([1|_])", false},
	}
	for _, tc := range tests {
		got, err := e.all(t, tc.query)
		if err != nil {
			t.Errorf("%s: %v", tc.query, err)
			continue
		}
		if ok := len(got) == 1; ok != tc.want {
			t.Errorf("%s = %v, want %v", tc.query, ok, tc.want)
		}
	}
}

func TestStructuralComparison(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "f(_X) == f(_X), f(a) \\== f(b), a @< b, f(a) @> a, 1.0 @< 1")
	expectSolutions(t, got, err, "true")
}

func TestFunctorAndArg(t *testing.T) {
	e := newEngine(t)
	got, err := e.all(t, "functor(point(1,2,3), N, A)")
	expectSolutions(t, got, err, "A=3 N=point")

	got, err = e.all(t, "functor(T, foo, 2)")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !strings.HasPrefix(got[0], "T=foo(") {
		t.Errorf("functor/3 construction = %v", got)
	}

	got, err = e.all(t, "arg(2, point(a,b,c), X)")
	expectSolutions(t, got, err, "X=b")

	got, err = e.all(t, "arg(4, point(a,b,c), X)")
	expectSolutions(t, got, err)
}
