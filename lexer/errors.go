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

package lexer

import (
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

// TagLexError is the diagnostic tag for malformed tokens.
const TagLexError report.Tag = "lex-error"

// Error is a lexical error, such as an unterminated string literal.
//
// Lexical errors are recoverable: the lexer produces a best-effort token and
// keeps going, and the caller decides whether to abort.
type Error struct {
	Span source.Span
	What string
}

var _ report.Diagnose = (*Error)(nil)

// Error implements [error].
func (e *Error) Error() string {
	return e.What
}

// Diagnose implements [report.Diagnose].
func (e *Error) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagLexError,
		report.Snippet(e.Span),
	)
}
