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

package source

import "fmt"

// Spanner is any type with a [Span].
type Spanner interface {
	// Should return the zero Span to indicate that it does not contribute
	// span information.
	Span() Span
}

// Span is a byte range within a [File].
type Span struct {
	*File

	// The start and end byte offsets for this span.
	Start, End int
}

// IsZero returns whether or not this is the zero span.
func (s Span) IsZero() bool {
	return s.File == nil
}

// Text returns the text corresponding to this span.
func (s Span) Text() string {
	if s.IsZero() {
		return ""
	}
	return s.File.Text()[s.Start:s.End]
}

// Len returns the length of this span, in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// StartLoc returns the start location for this span, with columns
// measured in runes.
func (s Span) StartLoc() Location {
	return s.Location(s.Start, Runes)
}

// EndLoc returns the end location for this span, with columns measured in
// runes.
func (s Span) EndLoc() Location {
	return s.Location(s.End, Runes)
}

// Span implements [Spanner].
func (s Span) Span() Span {
	return s
}

// String implements [fmt.Stringer].
//
// The format is the one used by compilers: path:line:col.
func (s Span) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	start := s.StartLoc()
	return fmt.Sprintf("%s:%d:%d", s.Path(), start.Line, start.Column)
}

// Join returns the smallest span containing both spans. Zero spans are
// ignored. The spans are assumed to be in the same file; if they are not,
// a is returned unchanged.
func Join(a, b Span) Span {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.File != b.File:
		return a
	}
	return Span{File: a.File, Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}
