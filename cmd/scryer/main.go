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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/patrickdet/scryer-prolog/atom"
	"github.com/patrickdet/scryer-prolog/codegen"
	"github.com/patrickdet/scryer-prolog/lang/pl"
	"github.com/patrickdet/scryer-prolog/wam"
)

var (
	configFile string
	goalText   string
	debug      bool
	traceVM    bool
	dump       bool
	heapSize   int
	stackSize  int
	maxHeap    int
	maxTrail   int
	noIndex    bool
)

func atExit(m *wam.Machine, err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	if m != nil {
		m.Dump(os.Stderr)
	}
	os.Exit(1)
}

func main() {
	var err error
	var m *wam.Machine

	defer func() {
		if err == nil && dump && m != nil {
			err = m.Dump(os.Stdout)
		}
		atExit(m, err)
	}()

	flag.StringVar(&configFile, "config", "", "load machine options from YAML `filename`")
	flag.StringVar(&goalText, "g", "", "run `goal` instead of entering the toplevel")
	flag.BoolVar(&debug, "debug", false, "enable debug diagnostics")
	flag.BoolVar(&traceVM, "trace", false, "log calls, redos and cuts")
	flag.BoolVar(&dump, "dump", false, "dump machine state upon exit")
	flag.IntVar(&heapSize, "heap", 0, "initial heap size in cells")
	flag.IntVar(&stackSize, "stack", 0, "initial stack size in frames")
	flag.IntVar(&maxHeap, "max-heap", 0, "heap growth limit in cells (0 = unlimited)")
	flag.IntVar(&maxTrail, "max-trail", 0, "trail growth limit in entries (0 = unlimited)")
	flag.BoolVar(&noIndex, "no-index", false, "disable first-argument indexing")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	switch {
	case traceVM && debug:
		log.SetLevel(logrus.TraceLevel)
	case traceVM:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}

	var opts []wam.Option
	if configFile != "" {
		var cfg *config
		if cfg, err = loadConfig(configFile); err != nil {
			return
		}
		opts = cfg.options()
	}
	if heapSize > 0 {
		opts = append(opts, wam.HeapSize(heapSize))
	}
	if stackSize > 0 {
		opts = append(opts, wam.StackSize(stackSize))
	}
	if maxHeap > 0 {
		opts = append(opts, wam.MaxHeapSize(maxHeap))
	}
	if maxTrail > 0 {
		opts = append(opts, wam.MaxTrailSize(maxTrail))
	}
	if noIndex {
		opts = append(opts, wam.NoIndexing())
	}
	if traceVM {
		opts = append(opts, wam.Trace(log))
	}

	atoms := atom.NewTable()
	if m, err = wam.New(atoms, opts...); err != nil {
		return
	}
	comp := codegen.New(atoms)
	if err = comp.Prelude(m); err != nil {
		return
	}

	// a Ctrl-C during a query aborts the query, not the session
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sig {
			m.Interrupt()
		}
	}()

	for _, name := range flag.Args() {
		if err = consult(m, comp, name); err != nil {
			return
		}
	}

	if goalText != "" {
		err = runGoal(m, comp, goalText)
		return
	}
	err = repl(m, comp)
}

// consult loads a program file: clauses are registered, directives run
// immediately and must succeed.
func consult(m *wam.Machine, comp *codegen.Compiler, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	clauses, err := pl.ParseProgram(f)
	if err != nil {
		return errors.Wrapf(err, "consult %s", name)
	}
	for _, cl := range clauses {
		if cl.Head == nil {
			if err := runDirective(m, comp, cl.Body); err != nil {
				return errors.Wrapf(err, "consult %s", name)
			}
			continue
		}
		fn, compiled, err := comp.Clause(cl.Head, cl.Body...)
		if err != nil {
			return errors.Wrapf(err, "consult %s", name)
		}
		m.AddClause(fn, compiled)
	}
	return nil
}

func runDirective(m *wam.Machine, comp *codegen.Compiler, goals []wam.Term) error {
	g, err := comp.Query(goals...)
	if err != nil {
		return err
	}
	sols, err := m.Solve(g)
	if err != nil {
		return err
	}
	defer sols.Close()
	if !sols.Next() {
		if sols.Err() != nil {
			return sols.Err()
		}
		return errors.Errorf("directive failed: %v", goals)
	}
	return nil
}

// runGoal solves one query and prints every solution.
func runGoal(m *wam.Machine, comp *codegen.Compiler, src string) error {
	goals, err := pl.ParseQuery(src)
	if err != nil {
		return err
	}
	g, err := comp.Query(goals...)
	if err != nil {
		return err
	}
	sols, err := m.Solve(g)
	if err != nil {
		return err
	}
	defer sols.Close()

	any := false
	for sols.Next() {
		any = true
		fmt.Println(bindingsString(sols.Bindings()) + ".")
	}
	if err := sols.Err(); err != nil {
		return err
	}
	if !any {
		fmt.Println("false.")
	}
	return nil
}

func bindingsString(binds map[string]wam.Term) string {
	if len(binds) == 0 {
		return "true"
	}
	names := make([]string, 0, len(binds))
	for n := range binds {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s = %v", n, binds[n])
	}
	return strings.Join(parts, ", ")
}

func repl(m *wam.Machine, comp *codegen.Compiler) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	for {
		src, err := ln.Prompt("?- ")
		switch err {
		case nil:
		case liner.ErrPromptAborted:
			continue
		default:
			fmt.Println()
			return nil
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if src == "halt." || src == "halt" {
			return nil
		}
		ln.AppendHistory(src)
		if err := replQuery(m, comp, ln, src); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func replQuery(m *wam.Machine, comp *codegen.Compiler, ln *liner.State, src string) error {
	goals, err := pl.ParseQuery(src)
	if err != nil {
		return err
	}
	g, err := comp.Query(goals...)
	if err != nil {
		return err
	}
	sols, err := m.Solve(g)
	if err != nil {
		return err
	}
	defer sols.Close()

	for sols.Next() {
		fmt.Print(bindingsString(sols.Bindings()))
		more, err := ln.Prompt(" ")
		if err != nil || !strings.HasPrefix(strings.TrimSpace(more), ";") {
			fmt.Println(".")
			return nil
		}
	}
	switch err := sols.Err(); {
	case err == wam.ErrInterrupted:
		fmt.Println("% interrupted")
		return nil
	case err != nil:
		return err
	}
	fmt.Println("false.")
	return nil
}
