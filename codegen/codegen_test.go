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
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/patrickdet/scryer-prolog/atom"
	"github.com/patrickdet/scryer-prolog/wam"
)

func disasm(t *testing.T, c *Compiler, code *wam.Code) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.DisassembleAll(code, &buf); err != nil {
		t.Fatalf("DisassembleAll: %v", err)
	}
	return buf.String()
}

// lines renders expected disassembly lines without their pc prefix, so the
// tables below stay readable. Positions are recomputed here.
func lines(ls ...string) string {
	var b strings.Builder
	for pc, l := range ls {
		fmt.Fprintf(&b, "% 6d\t%s\n", pc, l)
	}
	return b.String()
}

func TestClauseCode(t *testing.T) {
	tests := []struct {
		name string
		head wam.Term
		body []wam.Term
		want string
	}{
		{"fact",
			wam.Compound{Functor: "parent", Args: []wam.Term{wam.Atom("tom"), wam.Atom("bob")}},
			nil,
			lines(
				"allocate 0",
				"push_cell tom",
				"get_arg 0",
				"push_cell bob",
				"get_arg 1",
				"proceed",
			)},
		{"rule with shared variables",
			wam.Compound{Functor: "grandparent", Args: []wam.Term{wam.Var("G"), wam.Var("C")}},
			[]wam.Term{
				wam.Compound{Functor: "parent", Args: []wam.Term{wam.Var("G"), wam.Var("P")}},
				wam.Compound{Functor: "parent", Args: []wam.Term{wam.Var("P"), wam.Var("C")}},
			},
			lines(
				"allocate 3",
				"load_arg 0 0",
				"load_arg 1 1",
				"push_slot 0",
				"push_fresh 2",
				"call parent/2",
				"push_slot 2",
				"push_slot 1",
				"call parent/2",
				"proceed",
			)},
		{"cut after guard",
			wam.Compound{Functor: "max", Args: []wam.Term{wam.Var("X"), wam.Var("Y"), wam.Var("X")}},
			[]wam.Term{
				wam.Compound{Functor: ">=", Args: []wam.Term{wam.Var("X"), wam.Var("Y")}},
				wam.Atom("!"),
			},
			lines(
				"allocate 2",
				"load_arg 0 0",
				"load_arg 1 1",
				"push_slot 0",
				"get_arg 2",
				"push_slot 0",
				"push_slot 1",
				"call >=/2",
				"cut",
				"proceed",
			)},
		{"partial list in the head",
			wam.Compound{Functor: "p", Args: []wam.Term{
				wam.List{Items: []wam.Term{wam.Int(1), wam.Int(2)}, Tail: wam.Var("T")},
			}},
			nil,
			lines(
				"allocate 1",
				"push_cell 1",
				"push_cell 2",
				"push_fresh 0",
				"push_list",
				"push_list",
				"get_arg 0",
				"proceed",
			)},
		{"string argument",
			wam.Compound{Functor: "f", Args: []wam.Term{wam.Str("ab")}},
			nil,
			lines(
				"allocate 0",
				"push_cell []",
				`push_str "ab"`,
				"get_arg 0",
				"proceed",
			)},
		{"conjunction flattened",
			wam.Atom("a"),
			[]wam.Term{wam.Compound{Functor: ",", Args: []wam.Term{
				wam.Atom("b"),
				wam.Compound{Functor: ",", Args: []wam.Term{wam.Atom("c"), wam.Atom("d")}},
			}}},
			lines(
				"allocate 0",
				"call b/0",
				"call c/0",
				"call d/0",
				"proceed",
			)},
		{"variable goal becomes a meta-call",
			wam.Compound{Functor: "run", Args: []wam.Term{wam.Var("G")}},
			[]wam.Term{wam.Var("G")},
			lines(
				"allocate 1",
				"load_arg 0 0",
				"push_slot 0",
				"call call/1",
				"proceed",
			)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(atom.NewTable())
			_, cl, err := c.Clause(tt.head, tt.body...)
			if err != nil {
				t.Fatalf("Clause: %v", err)
			}
			if got := disasm(t, c, cl.Code); got != tt.want {
				t.Errorf("code mismatch\ngot:\n%swant:\n%s", got, tt.want)
			}
		})
	}
}

func TestAnonymousVariablesShareOneSlot(t *testing.T) {
	c := New(atom.NewTable())
	head := wam.Compound{Functor: "f", Args: []wam.Term{wam.Var("_"), wam.Var("_")}}
	_, cl, err := c.Clause(head)
	if err != nil {
		t.Fatalf("Clause: %v", err)
	}
	want := lines(
		"allocate 1",
		"push_fresh 0",
		"get_arg 0",
		"push_fresh 0",
		"get_arg 1",
		"proceed",
	)
	if got := disasm(t, c, cl.Code); got != want {
		t.Errorf("code mismatch\ngot:\n%swant:\n%s", got, want)
	}
}

func TestClauseKey(t *testing.T) {
	atoms := atom.NewTable()
	c := New(atoms)
	fn, _, err := c.Clause(wam.Compound{Functor: "parent", Args: []wam.Term{wam.Atom("tom"), wam.Atom("bob")}})
	if err != nil {
		t.Fatalf("Clause: %v", err)
	}
	if want := (wam.Functor{Name: atoms.Intern("parent"), Arity: 2}); fn != want {
		t.Errorf("key = %v, want %v", fn, want)
	}
}

func TestFirstArgumentClassification(t *testing.T) {
	tests := []struct {
		name string
		arg  wam.Term
		kind wam.ArgKind
	}{
		{"variable", wam.Var("X"), wam.ArgAny},
		{"atom", wam.Atom("foo"), wam.ArgAtom},
		{"small integer", wam.Int(42), wam.ArgInt},
		{"bignum", wam.Big{V: big.NewInt(1).Lsh(big.NewInt(1), 80)}, wam.ArgOther},
		{"float", wam.Float(3.14), wam.ArgOther},
		{"structure", wam.Compound{Functor: "f", Args: []wam.Term{wam.Atom("a")}}, wam.ArgStruct},
		{"zero-arity compound", wam.Compound{Functor: "nil"}, wam.ArgAtom},
		{"cons pair", wam.Compound{Functor: ".", Args: []wam.Term{wam.Int(1), wam.Atom("[]")}}, wam.ArgList},
		{"non-empty list", wam.List{Items: []wam.Term{wam.Int(1)}}, wam.ArgList},
		{"empty list", wam.List{}, wam.ArgAtom},
		{"tail-only list", wam.List{Tail: wam.Var("T")}, wam.ArgAny},
		{"string", wam.Str("abc"), wam.ArgList},
		{"empty string", wam.Str(""), wam.ArgAtom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(atom.NewTable())
			_, cl, err := c.Clause(wam.Compound{Functor: "p", Args: []wam.Term{tt.arg}})
			if err != nil {
				t.Fatalf("Clause: %v", err)
			}
			if cl.Index.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", cl.Index.Kind, tt.kind)
			}
		})
	}
}

func TestQueryReportsNamedVariables(t *testing.T) {
	c := New(atom.NewTable())
	g, err := c.Query(wam.Compound{Functor: "member", Args: []wam.Term{
		wam.Var("X"),
		wam.List{Items: []wam.Term{wam.Int(1), wam.Var("Y"), wam.Var("_")}},
	}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(g.Vars) != 2 {
		t.Fatalf("got %d goal vars, want 2", len(g.Vars))
	}
	if g.Vars[0].Name != "X" || g.Vars[1].Name != "Y" {
		t.Errorf("var order = [%s %s], want [X Y]", g.Vars[0].Name, g.Vars[1].Name)
	}
	last := g.Code.Instrs[len(g.Code.Instrs)-1]
	if last.Op != wam.OpStop {
		t.Errorf("query must end in stop, got %v", last.Op)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		head wam.Term
		body []wam.Term
	}{
		{"integer head", wam.Int(3), nil},
		{"list head", wam.List{Items: []wam.Term{wam.Int(1)}}, nil},
		{"list goal", wam.Atom("a"), []wam.Term{wam.Compound{Functor: ".", Args: []wam.Term{wam.Atom("x"), wam.Atom("[]")}}}},
		{"integer goal", wam.Atom("a"), []wam.Term{wam.Int(7)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(atom.NewTable())
			if _, _, err := c.Clause(tt.head, tt.body...); err == nil {
				t.Error("expected a compile error")
			}
		})
	}
}

func TestPreludeLoads(t *testing.T) {
	atoms := atom.NewTable()
	m, err := wam.New(atoms)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := New(atoms)
	if err := c.Prelude(m); err != nil {
		t.Fatalf("Prelude: %v", err)
	}
}
