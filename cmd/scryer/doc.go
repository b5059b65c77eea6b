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

// Command scryer is an interactive Prolog toplevel. It consults the files
// given on the command line, then reads queries from the terminal and
// enumerates their solutions one at a time; a semicolon asks for the next
// one. Ctrl-C interrupts a running query without losing the session.
//
// Usage:
//
//	scryer [options] [file ...]
//
// Run scryer -h for the option list. Machine limits can also be set in a
// YAML config file passed with -config.
package main
