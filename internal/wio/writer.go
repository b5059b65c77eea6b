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

// Package wio holds small writer helpers shared by the machine dumper and
// the disassembler.
package wio

import (
	"io"

	"github.com/pkg/errors"
)

// ErrWriter wraps an io.Writer so callers printing many lines can check for
// a write error once, at the end, instead of after every Fprintf. The first
// error sticks in Err and every later Write fails with it without touching
// the underlying writer.
type ErrWriter struct {
	w   io.Writer
	Err error
}

// Write forwards to the wrapped writer until an error occurs.
func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// NewErrWriter wraps w in an ErrWriter with no error recorded yet.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}
