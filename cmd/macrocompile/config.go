// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/macrocompile/preprocess"
)

// config is the contents of a --config file. Flags given on the command line
// take precedence over it.
type config struct {
	Defines  map[string]string `yaml:"defines" toml:"defines" validate:"dive,keys,required,endkeys"`
	Undefine []string          `yaml:"undefine" toml:"undefine" validate:"dive,required"`
	Features []string          `yaml:"features" toml:"features" validate:"dive,required"`
	Exclude  []string          `yaml:"exclude" toml:"exclude" validate:"dive,required"`
	Include  []string          `yaml:"include" toml:"include" validate:"dive,required"`

	Passes        int  `yaml:"passes" toml:"passes" validate:"gte=0,lte=64"`
	MaxDepth      int  `yaml:"max_depth" toml:"max_depth" validate:"gte=0"`
	MaxSplices    int  `yaml:"max_splices" toml:"max_splices" validate:"gte=0"`
	PreserveLines bool `yaml:"preserve_lines" toml:"preserve_lines"`

	Format   string `yaml:"format" toml:"format" validate:"omitempty,oneof=text json"`
	LogLevel string `yaml:"log_level" toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
}

// loadConfig reads a config file, choosing the format by extension: TOML for
// ".toml" and YAML otherwise. An empty path gives the zero config.
func loadConfig(path string, read func(string) ([]byte, error)) (*config, error) {
	cfg := new(config)
	if path == "" {
		return cfg, nil
	}
	data, err := read(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// merge applies the flags that were set on the command line.
func (cfg *config) merge(c *cli.Context) {
	for _, define := range c.StringSlice("define") {
		name, value, ok := strings.Cut(define, "=")
		if !ok {
			value = "1"
		}
		if cfg.Defines == nil {
			cfg.Defines = make(map[string]string)
		}
		cfg.Defines[name] = value
	}
	cfg.Undefine = append(cfg.Undefine, c.StringSlice("undefine")...)
	cfg.Features = append(cfg.Features, c.StringSlice("feature")...)
	cfg.Exclude = append(cfg.Exclude, c.StringSlice("exclude")...)
	cfg.Include = append(cfg.Include, c.StringSlice("include")...)

	if c.IsSet("passes") {
		cfg.Passes = c.Int("passes")
	}
	if c.IsSet("max-depth") {
		cfg.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("preserve-lines") {
		cfg.PreserveLines = c.Bool("preserve-lines")
	}
	if c.IsSet("format") || cfg.Format == "" {
		cfg.Format = c.String("format")
	}
	if c.IsSet("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = c.String("log-level")
	}
}

func (cfg *config) validate() error {
	return validator.New().Struct(cfg)
}

// options converts cfg into preprocessor options. Undefined names are
// removed from both the defines and the features.
func (cfg *config) options() preprocess.Options {
	defines := make(map[string]string, len(cfg.Defines))
	for head, value := range cfg.Defines {
		if !slices.Contains(cfg.Undefine, macroName(head)) {
			defines[head] = value
		}
	}
	features := slices.DeleteFunc(slices.Clone(cfg.Features), func(name string) bool {
		return slices.Contains(cfg.Undefine, name)
	})

	return preprocess.Options{
		Defines:       defines,
		Features:      features,
		Exclude:       cfg.Exclude,
		Passes:        cfg.Passes,
		MaxDepth:      cfg.MaxDepth,
		MaxSplices:    cfg.MaxSplices,
		PreserveLines: cfg.PreserveLines,
	}
}

// macroName returns the name part of a define key such as "MAX(a, b)".
func macroName(head string) string {
	name, _, _ := strings.Cut(head, "(")
	return strings.TrimSpace(name)
}
