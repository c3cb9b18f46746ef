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

package macro

import (
	"fmt"

	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

const (
	TagRedefinitionConflict report.Tag = "redefinition-conflict"
	TagUndefineUnknown      report.Tag = "undefine-unknown"
	TagInvalidDirective     report.Tag = "invalid-directive"
)

// RedefinitionError is returned by [Table.Define] when a name is redefined
// with a different definition.
type RedefinitionError struct {
	Prev, New *Definition
}

var _ report.Diagnose = (*RedefinitionError)(nil)

// Error implements [error].
func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("macro `%s` redefined", e.New.Name)
}

// Diagnose implements [report.Diagnose].
func (e *RedefinitionError) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagRedefinitionConflict,
		report.Snippet(e.New.Span, "redefined here"),
		report.Snippet(e.Prev.Span, "previously defined here"),
		report.Notef("previous definition was `%s`", e.Prev.Replacement()),
	)
}

// UndefinedError is reported when #undef names a macro that is not defined.
type UndefinedError struct {
	Name string
	Span source.Span
}

var _ report.Diagnose = (*UndefinedError)(nil)

// Error implements [error].
func (e *UndefinedError) Error() string {
	return fmt.Sprintf("cannot undefine `%s`: not defined", e.Name)
}

// Diagnose implements [report.Diagnose].
func (e *UndefinedError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagUndefineUnknown, report.Snippet(e.Span))
}

// DefineError is a malformed #define directive.
type DefineError struct {
	Span source.Span
	What string
	Help string
}

var _ report.Diagnose = (*DefineError)(nil)

// Error implements [error].
func (e *DefineError) Error() string {
	return e.What
}

// Diagnose implements [report.Diagnose].
func (e *DefineError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagInvalidDirective, report.Snippet(e.Span))
	if e.Help != "" {
		d.Apply(report.Helpf("%s", e.Help))
	}
}
