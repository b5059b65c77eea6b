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

package atom_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/patrickdet/scryer-prolog/atom"
)

func TestIntern(t *testing.T) {
	tbl := atom.NewTable()
	foo := tbl.Intern("foo")
	bar := tbl.Intern("bar")
	if foo == bar {
		t.Errorf("distinct names interned to same id %d", foo)
	}
	if foo == atom.None || bar == atom.None {
		t.Error("Intern returned the reserved zero atom")
	}
	if got := tbl.Intern("foo"); got != foo {
		t.Errorf("re-interning foo: got %d, want %d", got, foo)
	}
	if got := tbl.Name(foo); got != "foo" {
		t.Errorf("Name(foo) = %q", got)
	}
	if n := tbl.Len(); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}
}

func TestLookup(t *testing.T) {
	tbl := atom.NewTable()
	if _, ok := tbl.Lookup("nope"); ok {
		t.Error("Lookup found an atom in an empty table")
	}
	a := tbl.Intern("yes")
	got, ok := tbl.Lookup("yes")
	if !ok || got != a {
		t.Errorf("Lookup = (%d, %v), want (%d, true)", got, ok, a)
	}
}

func TestNamePanicsOnBogusID(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Name on a bogus id did not panic")
		}
	}()
	atom.NewTable().Name(atom.Atom(42))
}

// Concurrent interning of overlapping name sets must yield one id per name.
func TestConcurrentIntern(t *testing.T) {
	tbl := atom.NewTable()
	const n = 64
	ids := make([][]atom.Atom, 8)
	var wg sync.WaitGroup
	for g := range ids {
		g := g
		ids[g] = make([]atom.Atom, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < n; k++ {
				ids[g][k] = tbl.Intern("a" + strconv.Itoa(k))
			}
		}()
	}
	wg.Wait()
	for g := 1; g < len(ids); g++ {
		for k := 0; k < n; k++ {
			if ids[g][k] != ids[0][k] {
				t.Fatalf("goroutine %d interned a%d as %d, goroutine 0 got %d", g, k, ids[g][k], ids[0][k])
			}
		}
	}
	if got := tbl.Len(); got != n {
		t.Errorf("Len = %d, want %d", got, n)
	}
}
