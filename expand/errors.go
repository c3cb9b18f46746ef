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

package expand

import (
	"fmt"

	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

const (
	TagExpansionDepthExceeded report.Tag = "expansion-depth-exceeded"
	TagArgumentCountMismatch  report.Tag = "argument-count-mismatch"
	TagInvalidPaste           report.Tag = "invalid-paste"
	TagUnterminatedInvocation report.Tag = "unterminated-invocation"
	TagPassLimitExceeded      report.Tag = "pass-limit-exceeded"
)

// DepthError is returned when expansion nests deeper than
// [Expander.MaxDepth], or when one invocation in the input leads to more than
// [Expander.MaxSplices] replacements.
//
// This error is fatal: the expansion is abandoned.
type DepthError struct {
	Name  string
	Span  source.Span
	Limit int
	// Set if the replacement budget, rather than the depth limit, ran out.
	Budget bool
}

var _ report.Diagnose = (*DepthError)(nil)

// Error implements [error].
func (e *DepthError) Error() string {
	if e.Budget {
		return fmt.Sprintf("expanding `%s` exceeded the limit of %d macro replacements", e.Name, e.Limit)
	}
	return fmt.Sprintf("expanding `%s` exceeded the maximum expansion depth of %d", e.Name, e.Limit)
}

// Diagnose implements [report.Diagnose].
func (e *DepthError) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagExpansionDepthExceeded,
		report.Snippet(e.Span, "while expanding this"),
		report.Helpf("look for macros that re-invoke themselves through their arguments"),
	)
}

// ArgumentCountError is a function-like macro invocation with the wrong
// number of arguments. The invocation is left unexpanded.
type ArgumentCountError struct {
	Name     string
	Span     source.Span
	Want     int
	Got      int
	Variadic bool
}

var _ report.Diagnose = (*ArgumentCountError)(nil)

// Error implements [error].
func (e *ArgumentCountError) Error() string {
	quantifier := ""
	if e.Variadic {
		quantifier = "at least "
	}
	return fmt.Sprintf(
		"macro `%s` requires %s%d %s, but %d %s given",
		e.Name, quantifier, e.Want, plural(e.Want, "argument", "arguments"),
		e.Got, plural(e.Got, "was", "were"),
	)
}

// Diagnose implements [report.Diagnose].
func (e *ArgumentCountError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagArgumentCountMismatch, report.Snippet(e.Span))
}

// PasteError is a ## whose result is not a single token. The operands are
// kept as separate tokens.
type PasteError struct {
	Span        source.Span
	Left, Right string
}

var _ report.Diagnose = (*PasteError)(nil)

// Error implements [error].
func (e *PasteError) Error() string {
	return fmt.Sprintf("pasting `%s` and `%s` does not give a valid token", e.Left, e.Right)
}

// Diagnose implements [report.Diagnose].
func (e *PasteError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagInvalidPaste, report.Snippet(e.Span))
}

// UnterminatedError is a function-like macro invocation whose argument list
// is never closed. Its tokens are left as they are.
type UnterminatedError struct {
	Name string
	Span source.Span
}

var _ report.Diagnose = (*UnterminatedError)(nil)

// Error implements [error].
func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated invocation of macro `%s`", e.Name)
}

// Diagnose implements [report.Diagnose].
func (e *UnterminatedError) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagUnterminatedInvocation,
		report.Snippet(e.Span),
		report.Helpf("add a closing `)`"),
	)
}

// PassLimitError is reported when repeated expansion still has work to do
// after the last allowed pass.
type PassLimitError struct {
	Passes int
	Span   source.Span
}

var _ report.Diagnose = (*PassLimitError)(nil)

// Error implements [error].
func (e *PassLimitError) Error() string {
	return fmt.Sprintf("expansion did not settle after %d %s", e.Passes, plural(e.Passes, "pass", "passes"))
}

// Diagnose implements [report.Diagnose].
func (e *PassLimitError) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagPassLimitExceeded,
		report.Snippet(e.Span),
		report.Notef("the output still contains macro invocations that another pass would expand"),
	)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
