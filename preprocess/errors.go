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
	"fmt"

	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

const (
	TagUserError        report.Tag = "user-error"
	TagUserWarning      report.Tag = "user-warning"
	TagUnknownDirective report.Tag = "unknown-directive"
)

// DirectiveError is a malformed directive, other than #define (see
// [macro.DefineError]).
type DirectiveError struct {
	Span source.Span
	What string
}

var _ report.Diagnose = (*DirectiveError)(nil)

// Error implements [error].
func (e *DirectiveError) Error() string {
	return e.What
}

// Diagnose implements [report.Diagnose].
func (e *DirectiveError) Diagnose(d *report.Diagnostic) {
	d.Apply(macro.TagInvalidDirective, report.Snippet(e.Span))
}

// UserError is produced by #error and #warning.
type UserError struct {
	Span    source.Span
	Text    string
	Warning bool
}

var _ report.Diagnose = (*UserError)(nil)

// Error implements [error].
func (e *UserError) Error() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Warning {
		return "#warning"
	}
	return "#error"
}

// Diagnose implements [report.Diagnose].
func (e *UserError) Diagnose(d *report.Diagnostic) {
	tag := TagUserError
	if e.Warning {
		tag = TagUserWarning
	}
	d.Apply(tag, report.Snippet(e.Span))
}

// UnknownDirectiveError is a directive this package does not know. It is
// passed through to the output unchanged.
type UnknownDirectiveError struct {
	Span source.Span
	Name string
}

var _ report.Diagnose = (*UnknownDirectiveError)(nil)

// Error implements [error].
func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("unknown directive `#%s`", e.Name)
}

// Diagnose implements [report.Diagnose].
func (e *UnknownDirectiveError) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagUnknownDirective,
		report.Snippet(e.Span),
		report.Notef("the directive is copied to the output as-is"),
	)
}
