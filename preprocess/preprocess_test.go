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

package preprocess_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/macrocompile/cond"
	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/internal/golden"
	"github.com/bufbuild/macrocompile/lexer"
	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/preprocess"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

func tags(r *report.Report) []report.Tag {
	var out []report.Tag
	for d := range r.All() {
		out = append(out, d.Tag())
	}
	return out
}

func TestProcess(t *testing.T) {
	t.Parallel()

	const deferred = "#define EMPTY()\n#define DEFER(id) id EMPTY()\n#define A() 123\nDEFER(A)()\n"

	tests := []struct {
		name    string
		options preprocess.Options
		text    string
		want    string
		tags    []report.Tag
	}{
		{name: "define", text: "#define X 1\nX\n", want: "1\n"},
		{name: "undef", text: "#define X 1\n#undef X\nX\n", want: "X\n"},
		{name: "ifdef", text: "#define X\n#ifdef X\nyes\n#else\nno\n#endif\n", want: "yes\n"},
		{name: "ifndef", text: "#ifndef X\nyes\n#endif\n", want: "yes\n"},
		{
			name: "elif-chain",
			text: "#if 0\na\n#elif 0\nb\n#elif 1\nc\n#else\nd\n#endif\n",
			want: "c\n",
		},
		{
			name: "elif-after-taken-branch",
			text: "#if 1\na\n#elif 1 / 0\nb\n#endif\n",
			want: "a\n",
		},
		{
			name: "nested-inactive",
			text: "#if 0\n#if 1\na\n#else\nb\n#endif\n#endif\nc\n",
			want: "c\n",
		},
		{
			name: "defined-operator",
			text: "#define X\n#if defined X && !defined(Y)\nok\n#endif\n",
			want: "ok\n",
		},
		{name: "null-directive", text: "#\nx\n", want: "x\n"},
		{
			name: "passthrough",
			text: "#pragma once\n#line 10 \"a.h\"\n# 1 \"b.h\"\n#include <stdio.h>\n",
			want: "#pragma once\n#line 10 \"a.h\"\n# 1 \"b.h\"\n#include <stdio.h>\n",
		},
		{name: "passthrough-inactive", text: "#if 0\n#pragma once\n#endif\n"},
		{name: "error-inactive", text: "#if 0\n#error no\n#foo\n#endif\n"},
		{name: "error", text: "#error stop here\n", tags: []report.Tag{preprocess.TagUserError}},
		{name: "warning", text: "#warning careful\n", tags: []report.Tag{preprocess.TagUserWarning}},
		{
			name: "unknown-directive",
			text: "#foo bar\n",
			want: "#foo bar\n",
			tags: []report.Tag{preprocess.TagUnknownDirective},
		},
		{
			name: "redefinition",
			text: "#define X 1\n#define X 2\nX\n",
			want: "1\n",
			tags: []report.Tag{macro.TagRedefinitionConflict},
		},
		{
			name: "benign-redefinition",
			text: "#define X (1 + 2)\n#define X (1  +  2)\nX\n",
			want: "(1 + 2)\n",
		},
		{name: "undef-unknown", text: "#undef X\n", tags: []report.Tag{macro.TagUndefineUnknown}},
		{
			name: "ifdef-without-name",
			text: "#ifdef\nx\n#endif\n",
			tags: []report.Tag{macro.TagInvalidDirective},
		},
		{
			name: "extra-tokens",
			text: "#if 1\n#else junk\n#endif junk\n",
			tags: []report.Tag{macro.TagInvalidDirective, macro.TagInvalidDirective},
		},
		{name: "invalid-define", text: "#define 1 2\n", tags: []report.Tag{macro.TagInvalidDirective}},
		{
			name: "invalid-expression",
			text: "#if 1 +\nx\n#endif\n",
			tags: []report.Tag{cond.TagInvalidExpression},
		},
		{
			name: "divide-by-zero",
			text: "#if 1 / 0\nx\n#else\ny\n#endif\n",
			want: "y\n",
			tags: []report.Tag{cond.TagDivideByZero},
		},
		{name: "lex-error-inactive", text: "#if 0\n'x\n#endif\n"},
		{name: "lex-error", text: "'x\n", want: "'x\n", tags: []report.Tag{lexer.TagLexError}},
		{
			name: "multi-line-invocation",
			text: "#define F(a, b) a + b\nF(1,\n  2) x\ny\n",
			want: "1 + 2 x\n\ny\n",
		},
		{
			name:    "features",
			options: preprocess.Options{Features: []string{"FEAT"}},
			text:    "#ifdef FEAT\non\n#endif\nFEAT\n",
			want:    "on\n1\n",
		},
		{
			name: "defines",
			options: preprocess.Options{Defines: map[string]string{
				"MAX(a, b)": "((a) > (b) ? (a) : (b))",
				"N":         "3",
			}},
			text: "MAX(N, 2)\n",
			want: "((3) > (2) ? (3) : (2))\n",
		},
		{
			name:    "bad-define-option",
			options: preprocess.Options{Defines: map[string]string{"1": "x"}},
			text:    "x\n",
			want:    "x\n",
			tags:    []report.Tag{macro.TagInvalidDirective},
		},
		{
			name:    "exclude",
			options: preprocess.Options{Exclude: []string{"X"}},
			text:    "#define X 1\n#define Y X\nX Y\n",
			want:    "X X\n",
		},
		{name: "one-pass", text: deferred, want: "A ()\n"},
		{
			name:    "two-passes",
			options: preprocess.Options{Passes: 2},
			text:    deferred,
			want:    "123\n",
		},
		{
			name:    "preserve-lines",
			options: preprocess.Options{PreserveLines: true},
			text:    "#define X 1\n#if 0\nno\n#endif\nX\n",
			want:    "\n\n\n\n1\n",
		},
		{
			name:    "preserve-lines-splice",
			options: preprocess.Options{PreserveLines: true},
			text:    "#define X \\\n  1\nX\n",
			want:    "\n\n1\n",
		},
		{name: "no-trailing-newline", text: "#define X 1\nX", want: "1\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			result, err := preprocess.Process("test.h", test.text, test.options)
			require.NoError(t, err)
			assert.Equal(t, test.want, result.Text)
			if diff := cmp.Diff(test.tags, tags(result.Report)); diff != "" {
				t.Errorf("diagnostic tags (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnbalanced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text, want string
	}{
		{text: "#endif\nx\n"},
		{text: "#else\nx\n"},
		{text: "#elif 1\nx\n"},
		{text: "#if 1\nx\n", want: "x\n"},
		{text: "#if 1\nx\n#else\n#else\ny\n", want: "x\n"},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			t.Parallel()

			result, err := preprocess.Process("test.h", test.text, preprocess.Options{})
			var unbalanced *cond.UnbalancedError
			require.ErrorAs(t, err, &unbalanced)
			assert.Equal(t, test.want, result.Text)
			assert.Equal(t, []report.Tag{cond.TagUnbalancedConditional}, tags(result.Report))
		})
	}
}

func TestDepthIsFatal(t *testing.T) {
	t.Parallel()

	text := "#define A B\n#define B C\n#define C D\n#define D E\n#define E F\n#define F 1\nA\nafter\n"
	result, err := preprocess.Process("test.h", text, preprocess.Options{MaxDepth: 3})

	var depth *expand.DepthError
	require.ErrorAs(t, err, &depth)
	assert.False(t, depth.Budget)
	assert.True(t, result.Report.HasErrors())

	_, err = preprocess.Process("test.h", "#define A B\n#define B C\n#define C D\n#if A\n#endif\n", preprocess.Options{MaxDepth: 2})
	require.ErrorAs(t, err, &depth)
}

func TestSpliceBudgetPerInvocation(t *testing.T) {
	t.Parallel()

	text := "#define X 1\n" + strings.Repeat("X X\n", 10) + "#define Y 2\nY\n"
	result, err := preprocess.Process("test.h", text, preprocess.Options{MaxSplices: 4})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("1 1\n", 10)+"2\n", result.Text)
	assert.False(t, result.Report.HasErrors())
	assert.Equal(t, 21, result.Stats.Total())
}

func TestSharedTable(t *testing.T) {
	t.Parallel()

	p := &preprocess.Preprocessor{
		Options: preprocess.Options{Defines: map[string]string{"BASE": "10"}},
	}
	first, err := p.Process(source.NewFile("a.h", "#define X (BASE + 1)\nX X\n"))
	require.NoError(t, err)
	assert.Equal(t, "(10 + 1) (10 + 1)\n", first.Text)
	assert.Equal(t, 2, first.Stats["X"])
	assert.Equal(t, 2, first.Stats["BASE"])

	second, err := p.Process(source.NewFile("b.h", "X\n#undef X\nX\n"))
	require.NoError(t, err)
	assert.Equal(t, "(10 + 1)\nX\n", second.Text)
	assert.Same(t, first.Table, second.Table)
	assert.False(t, second.Table.IsDefined("X"))
	assert.True(t, second.Table.IsDefined("BASE"))
	assert.False(t, p.Report.HasErrors())
}

func TestDiagnosticSpans(t *testing.T) {
	t.Parallel()

	result, err := preprocess.Process("test.h", "#define X 1\n#define X 2\n", preprocess.Options{})
	require.NoError(t, err)

	var redef *macro.RedefinitionError
	d := slices.Collect(result.Report.Tagged(macro.TagRedefinitionConflict))
	require.Len(t, d, 1)
	require.True(t, errors.As(d[0].Err(), &redef))
	assert.Equal(t, "2", redef.New.Replacement())
	assert.Equal(t, "1", redef.Prev.Replacement())
	assert.Equal(t, 2, d[0].Primary().StartLoc().Line)
	assert.Equal(t, 9, d[0].Primary().StartLoc().Column)
	assert.Equal(t, []string{"previous definition was `1`"}, d[0].Notes())
	assert.Empty(t, d[0].Help())

	result, err = preprocess.Process("test.h", "#define F(a\n", preprocess.Options{})
	require.NoError(t, err)
	d = slices.Collect(result.Report.Tagged(macro.TagInvalidDirective))
	require.Len(t, d, 1)
	assert.Equal(t, "unterminated macro parameter list", d[0].Message())
	assert.Equal(t, []string{"add a closing `)`"}, d[0].Help())
	assert.Empty(t, d[0].Notes())
}

func TestGolden(t *testing.T) {
	t.Parallel()

	corpus := golden.Corpus{
		Root:       "testdata",
		Refresh:    "MACROCOMPILE_REFRESH",
		Extensions: []string{"h"},
		Outputs: []golden.Output{
			{Extension: "out"},
			{Extension: "stderr.txt"},
		},
	}

	corpus.Run(t, func(t *testing.T, path, text string, outputs []string) {
		var config struct {
			Defines       map[string]string `yaml:"defines"`
			Features      []string          `yaml:"features"`
			Exclude       []string          `yaml:"exclude"`
			Passes        int               `yaml:"passes"`
			MaxDepth      int               `yaml:"max_depth"`
			PreserveLines bool              `yaml:"preserve_lines"`
		}
		require.NoError(t, golden.Config(text, &config))

		result, err := preprocess.Process(path, text, preprocess.Options{
			Defines:       config.Defines,
			Features:      config.Features,
			Exclude:       config.Exclude,
			Passes:        config.Passes,
			MaxDepth:      config.MaxDepth,
			PreserveLines: config.PreserveLines,
		})
		if err != nil {
			t.Logf("stopped early: %v", err)
		}

		outputs[0] = result.Text
		outputs[1], _, _ = report.Renderer{Compact: true}.RenderString(result.Report)
	})
}
