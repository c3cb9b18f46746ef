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

package report

import (
	"fmt"

	"github.com/bufbuild/macrocompile/source"
)

// Level represents the severity of a diagnostic message.
type Level int8

const (
	// Red. Indicates that the output of the preprocessor cannot be trusted.
	Error Level = 1 + iota
	// Yellow. Indicates something that probably should not be ignored.
	Warning
	// Cyan. This is the diagnostics version of "info".
	Remark
)

// String implements [fmt.Stringer].
func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Remark:
		return "remark"
	default:
		return fmt.Sprintf("report.Level(%d)", int(l))
	}
}

// Tag is a diagnostic tag: a machine-readable identification for a diagnostic.
//
// Tags should be lowercase identifiers separated by dashes, e.g. my-error-tag.
// Packages that emit tagged diagnostics expose their tags as constants.
type Tag string

// Apply implements [DiagnosticOption].
func (t Tag) Apply(d *Diagnostic) {
	if d.tag != "" {
		panic("macrocompile/report: set diagnostic tag more than once")
	}
	d.tag = t
}

// Diagnostic is a type of error that can be rendered as a rich diagnostic.
//
// Not all Diagnostics are "errors", even though Diagnostic carries an error;
// some represent warnings, or perhaps debugging remarks.
//
// To construct a diagnostic, create one using a function like [Report.Error].
// Then, call [Diagnostic.Apply] to apply options to it.
type Diagnostic struct {
	err     error
	tag     Tag
	message string
	level   Level

	// The file this diagnostic occurs in, if it has no associated annotations.
	inFile string

	annotations        []annotation
	notes, help, debug []string
}

// DiagnosticOption is an option that can be applied to a [Diagnostic].
//
// Nil values passed to [Diagnostic.Apply] are ignored.
type DiagnosticOption interface {
	Apply(*Diagnostic)
}

// Err returns the error that prompted this diagnostic.
func (d *Diagnostic) Err() error {
	return d.err
}

// Level returns this diagnostic's level.
func (d *Diagnostic) Level() Level {
	return d.level
}

// Tag returns this diagnostic's tag, if it has one.
func (d *Diagnostic) Tag() Tag {
	return d.tag
}

// Is checks whether this diagnostic has a particular tag.
func (d *Diagnostic) Is(tag Tag) bool {
	return d.tag == tag
}

// Message returns the main message for this diagnostic. If no message was
// set explicitly, this is the message of the underlying error.
func (d *Diagnostic) Message() string {
	if d.message == "" && d.err != nil {
		return d.err.Error()
	}
	return d.message
}

// InFile returns the path of the file this diagnostic is about.
func (d *Diagnostic) InFile() string {
	if span := d.Primary(); !span.IsZero() {
		return span.Path()
	}
	return d.inFile
}

// Primary returns this diagnostic's primary span, if it has one.
//
// If it doesn't have one, it returns the zero span.
func (d *Diagnostic) Primary() source.Span {
	for _, annotation := range d.annotations {
		if annotation.primary {
			return annotation.Span
		}
	}
	return source.Span{}
}

// Notes returns the notes attached to this diagnostic.
func (d *Diagnostic) Notes() []string { return d.notes }

// Help returns the help messages attached to this diagnostic.
func (d *Diagnostic) Help() []string { return d.help }

// Apply applies the given options to this diagnostic.
//
// Nil values are ignored.
func (d *Diagnostic) Apply(options ...DiagnosticOption) *Diagnostic {
	for _, option := range options {
		if option != nil {
			option.Apply(d)
		}
	}
	return d
}

// Message returns a DiagnosticOption that sets the main diagnostic message.
func Message(format string, args ...any) DiagnosticOption {
	return message(fmt.Sprintf(format, args...))
}

// InFile is a DiagnosticOption that causes a diagnostic without a primary
// span to mention the given file.
type InFile string

// Apply implements [DiagnosticOption].
func (f InFile) Apply(d *Diagnostic) {
	d.inFile = string(f)
}

// Snippet returns a DiagnosticOption that adds a new snippet to a diagnostic.
//
// Any additional arguments are passed to [fmt.Sprintf] to produce a message
// to go with the span.
//
// The first annotation added is the "primary" annotation, and will be rendered
// differently from the others. A nil Spanner or a zero span produces a nil
// option.
func Snippet(at source.Spanner, args ...any) DiagnosticOption {
	if at == nil {
		return nil
	}
	span := at.Span()
	if span.IsZero() {
		return nil
	}

	a := annotation{Span: span}
	if len(args) > 0 {
		format, ok := args[0].(string)
		if !ok {
			panic("macrocompile/report: expected string as first Snippet argument")
		}
		a.message = fmt.Sprintf(format, args[1:]...)
	}
	return a
}

// Notef returns a DiagnosticOption that provides the user with context about
// the diagnostic, after the annotations.
func Notef(format string, args ...any) DiagnosticOption {
	return note(fmt.Sprintf(format, args...))
}

// Helpf returns a DiagnosticOption that provides the user with a helpful prose
// suggestion for resolving the diagnostic.
func Helpf(format string, args ...any) DiagnosticOption {
	return help(fmt.Sprintf(format, args...))
}

// Debugf returns a DiagnosticOption that appends debugging information to a
// diagnostic that is not intended to be shown to normal users.
func Debugf(format string, args ...any) DiagnosticOption {
	return debug(fmt.Sprintf(format, args...))
}

// annotation is an annotated source code snippet within a [Diagnostic].
type annotation struct {
	source.Span

	// A message to show under this snippet. May be empty.
	message string

	// Whether this is the primary snippet.
	primary bool
}

func (a annotation) Apply(d *Diagnostic) {
	a.primary = len(d.annotations) == 0
	d.annotations = append(d.annotations, a)
}

type (
	message string
	note    string
	help    string
	debug   string
)

func (m message) Apply(d *Diagnostic) { d.message = string(m) }
func (n note) Apply(d *Diagnostic)    { d.notes = append(d.notes, string(n)) }
func (n help) Apply(d *Diagnostic)    { d.help = append(d.help, string(n)) }
func (n debug) Apply(d *Diagnostic)   { d.debug = append(d.debug, string(n)) }
