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

package cond

import (
	"fmt"

	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

const (
	TagUnbalancedConditional report.Tag = "unbalanced-conditional"
	TagDivideByZero          report.Tag = "divide-by-zero"
	TagInvalidExpression     report.Tag = "invalid-expression"
)

// UnbalancedError is a conditional directive with no matching #if, a
// misplaced #else or #elif, or an #if that is never closed.
//
// This error is fatal for the file being processed.
type UnbalancedError struct {
	What string
	Span source.Span
	// The directive that opened the affected conditional, if any.
	Open source.Span
}

var _ report.Diagnose = (*UnbalancedError)(nil)

// Error implements [error].
func (e *UnbalancedError) Error() string {
	return e.What
}

// Diagnose implements [report.Diagnose].
func (e *UnbalancedError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagUnbalancedConditional, report.Snippet(e.Span))
	if e.Open != e.Span {
		d.Apply(report.Snippet(e.Open, "conditional opened here"))
	}
}

// DivideByZeroError is a division or remainder by zero in an #if
// expression. The directive's condition is treated as false.
type DivideByZeroError struct {
	Span source.Span
	Op   string
}

var _ report.Diagnose = (*DivideByZeroError)(nil)

// Error implements [error].
func (e *DivideByZeroError) Error() string {
	if e.Op == "%" {
		return "remainder by zero in preprocessor expression"
	}
	return "division by zero in preprocessor expression"
}

// Diagnose implements [report.Diagnose].
func (e *DivideByZeroError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagDivideByZero, report.Snippet(e.Span))
}

// ExpressionError is a malformed #if expression. The directive's condition
// is treated as false.
type ExpressionError struct {
	Span source.Span
	What string
}

var _ report.Diagnose = (*ExpressionError)(nil)

// Error implements [error].
func (e *ExpressionError) Error() string {
	return e.What
}

// Diagnose implements [report.Diagnose].
func (e *ExpressionError) Diagnose(d *report.Diagnostic) {
	d.Apply(TagInvalidExpression, report.Snippet(e.Span))
}

func errorf(span source.Span, format string, args ...any) *ExpressionError {
	return &ExpressionError{Span: span, What: fmt.Sprintf(format, args...)}
}
