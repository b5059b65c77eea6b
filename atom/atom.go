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

// Package atom implements the atom interner. Atoms are symbolic names mapped
// to small stable identifiers; every other component compares and stores
// atoms as integers and only goes back through a Table to print them.
//
// A Table may be shared by several machine instances running in separate
// goroutines: lookups of already-interned atoms take a read lock only, and
// insertion is synchronized. Atoms are never freed for the lifetime of the
// Table.
package atom

import "sync"

// Atom is the identifier of an interned name. The zero Atom is reserved and
// never returned by Intern.
type Atom uint32

// None is the reserved zero Atom.
const None Atom = 0

// Table interns names and resolves them back to strings. The zero value is
// not usable; call NewTable.
type Table struct {
	mu    sync.RWMutex
	ids   map[string]Atom
	names []string
}

// NewTable returns an empty atom table. Index 0 is pre-occupied so that the
// zero Atom never names anything.
func NewTable() *Table {
	return &Table{
		ids:   make(map[string]Atom),
		names: []string{""},
	}
}

// Intern returns the identifier for name, creating it on first use.
func (t *Table) Intern(name string) Atom {
	t.mu.RLock()
	a, ok := t.ids[name]
	t.mu.RUnlock()
	if ok {
		return a
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// raced with another writer?
	if a, ok = t.ids[name]; ok {
		return a
	}
	a = Atom(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = a
	return a
}

// Lookup returns the identifier for name without interning it. The second
// return value reports whether the name was present.
func (t *Table) Lookup(name string) (Atom, bool) {
	t.mu.RLock()
	a, ok := t.ids[name]
	t.mu.RUnlock()
	return a, ok
}

// Name returns the string for a previously interned atom. It panics on an
// identifier that was never issued by this table: that is a programming
// error, not a recoverable condition.
func (t *Table) Name(a Atom) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(a) <= 0 || int(a) >= len(t.names) {
		panic("atom: identifier not issued by this table")
	}
	return t.names[a]
}

// Len returns the number of interned atoms.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names) - 1
}
