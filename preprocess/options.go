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

package preprocess

import (
	"maps"
	"slices"

	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/lexer"
	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

// PredefinedPath is the file name given to macros defined through [Options].
const PredefinedPath = "<predefined>"

// Options configures a [Preprocessor].
type Options struct {
	// Macros to define before processing, as if by #define. Keys are either
	// a name or a function-like head such as "MAX(a, b)"; values are the
	// replacement list.
	Defines map[string]string
	// Feature flags, each defined to 1.
	Features []string
	// Names that are never expanded.
	Exclude []string

	// The most expansion passes per run of text lines. Zero means one. See
	// [expand.Expander.ExpandPasses].
	Passes int
	// Passed through to the [expand.Expander].
	MaxDepth, MaxSplices int

	// Emit a blank line for every directive and inactive line, so that
	// output line numbers match the input.
	PreserveLines bool
}

// seed defines the predefined macros in table, reporting any that are
// malformed.
func (o Options) seed(table *macro.Table, r *report.Report) {
	define := func(text string) {
		file := source.NewFile(PredefinedPath, text)
		toks := slices.DeleteFunc(lexer.LexAll(file, r), func(tok token.Token) bool {
			return tok.Kind == token.Newline
		})
		def, err := macro.Parse(toks, file.Span(0, len(text)))
		if err == nil {
			err = table.Define(def)
		}
		if err != nil {
			reportError(r, err)
		}
	}

	for _, head := range slices.Sorted(maps.Keys(o.Defines)) {
		define(head + " " + o.Defines[head])
	}
	for _, name := range o.Features {
		define(name + " 1")
	}
}

func (o Options) expander(table *macro.Table, r *report.Report) *expand.Expander {
	x := &expand.Expander{
		Table:      table,
		MaxDepth:   o.MaxDepth,
		MaxSplices: o.MaxSplices,
		Report:     r,
		Stats:      make(expand.Stats),
	}
	if len(o.Exclude) > 0 {
		x.Exclude = make(map[string]bool, len(o.Exclude))
		for _, name := range o.Exclude {
			x.Exclude[name] = true
		}
	}
	return x
}
