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
	"iter"
	"runtime"
	"strings"

	"github.com/xyproto/env/v2"
)

// Diagnose is an error that can be rendered as a diagnostic.
type Diagnose interface {
	error

	// Diagnose writes out this error to the given diagnostic.
	//
	// This function should not set the level; that is done by the [Report]
	// method the error is pushed with.
	Diagnose(*Diagnostic)
}

// Report is an ordered collection of diagnostics.
//
// The zero value is an empty report, ready to use. A Report is not safe for
// concurrent use; each unit of work gets its own.
type Report struct {
	Diagnostics []Diagnostic
}

// Error pushes an error diagnostic onto this report.
func (r *Report) Error(err Diagnose) *Diagnostic {
	d := r.push(1, err, Error)
	err.Diagnose(d)
	return d
}

// Warn pushes a warning diagnostic onto this report.
func (r *Report) Warn(err Diagnose) *Diagnostic {
	d := r.push(1, err, Warning)
	err.Diagnose(d)
	return d
}

// Remark pushes a remark diagnostic onto this report.
func (r *Report) Remark(err Diagnose) *Diagnostic {
	d := r.push(1, err, Remark)
	err.Diagnose(d)
	return d
}

// Errorf creates a new error diagnostic with an unspecified error type;
// analogous to [fmt.Errorf].
func (r *Report) Errorf(format string, args ...any) *Diagnostic {
	return r.push(1, fmt.Errorf(format, args...), Error)
}

// Warnf creates a new warning diagnostic with an unspecified error type;
// analogous to [fmt.Errorf].
func (r *Report) Warnf(format string, args ...any) *Diagnostic {
	return r.push(1, fmt.Errorf(format, args...), Warning)
}

// Remarkf creates a new remark diagnostic with an unspecified error type;
// analogous to [fmt.Errorf].
func (r *Report) Remarkf(format string, args ...any) *Diagnostic {
	return r.push(1, fmt.Errorf(format, args...), Remark)
}

// Len returns the number of diagnostics in this report.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// All returns an iterator over the diagnostics in this report, in the order
// they were reported.
func (r *Report) All() iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		if r == nil {
			return
		}
		for i := range r.Diagnostics {
			if !yield(&r.Diagnostics[i]) {
				return
			}
		}
	}
}

// Tagged returns an iterator over the diagnostics with the given tag.
func (r *Report) Tagged(tag Tag) iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		for d := range r.All() {
			if d.Is(tag) && !yield(d) {
				return
			}
		}
	}
}

// HasErrors returns whether this report contains any error-level
// diagnostics.
func (r *Report) HasErrors() bool {
	for d := range r.All() {
		if d.Level() == Error {
			return true
		}
	}
	return false
}

// Append appends all of the diagnostics in other to r.
func (r *Report) Append(other *Report) {
	if other == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// push is the core "make me a diagnostic" function.
func (r *Report) push(skip int, err error, level Level) *Diagnostic {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{err: err, level: level})
	d := &r.Diagnostics[len(r.Diagnostics)-1]

	if debugMode > debugOff {
		pc := make([]uintptr, 16)
		pc = pc[:runtime.Callers(skip+2, pc)]
		frames := runtime.CallersFrames(pc)
		for i := 0; ; i++ {
			frame, more := frames.Next()
			if frame.Function != "" {
				d.debug = append(d.debug, fmt.Sprintf("at %s (%s:%d)", frame.Function, frame.File, frame.Line))
			}
			if !more || (debugMode < debugFull && i > 0) {
				break
			}
		}
	}
	return d
}

const (
	debugOff int = iota
	debugMinimal
	debugFull
)

// debugMode is the status of the MACROCOMPILE_DEBUG environment variable at
// startup. When enabled, every diagnostic records where in the preprocessor
// it was emitted.
var debugMode = func() int {
	switch strings.ToLower(env.Str("MACROCOMPILE_DEBUG")) {
	case "", "0", "off", "false":
		return debugOff
	case "full":
		return debugFull
	default:
		return debugMinimal
	}
}()
