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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/patrickdet/scryer-prolog/wam"
)

// config mirrors the machine options in a file so long-lived setups do not
// need a wall of flags.
type config struct {
	HeapSize     int  `yaml:"heap_size"`
	StackSize    int  `yaml:"stack_size"`
	MaxHeapSize  int  `yaml:"max_heap_size"`
	MaxTrailSize int  `yaml:"max_trail_size"`
	NoIndexing   bool `yaml:"no_indexing"`
}

func loadConfig(path string) (*config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var c config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return &c, nil
}

// options turns the config into machine options, flags applied afterwards
// win.
func (c *config) options() []wam.Option {
	var opts []wam.Option
	if c.HeapSize > 0 {
		opts = append(opts, wam.HeapSize(c.HeapSize))
	}
	if c.StackSize > 0 {
		opts = append(opts, wam.StackSize(c.StackSize))
	}
	if c.MaxHeapSize > 0 {
		opts = append(opts, wam.MaxHeapSize(c.MaxHeapSize))
	}
	if c.MaxTrailSize > 0 {
		opts = append(opts, wam.MaxTrailSize(c.MaxTrailSize))
	}
	if c.NoIndexing {
		opts = append(opts, wam.NoIndexing())
	}
	return opts
}
