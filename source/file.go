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

import (
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Unit is a unit of measurement for column numbers.
type Unit int

const (
	// Runes measures columns in Unicode code points.
	Runes Unit = iota
	// Bytes measures columns in UTF-8 bytes.
	Bytes
	// TermWidth measures columns in terminal cells, as rendered by a
	// monospace terminal. Tabs are expanded to TabstopWidth.
	TermWidth
)

// TabstopWidth is the width a tab is rendered as when measuring in
// [TermWidth].
const TabstopWidth = 4

// File is a named unit of source text.
//
// Files are immutable once created. A nil *File behaves like an empty file
// with the path name "".
type File struct {
	path, text string

	once sync.Once
	// The byte offset of the start of each line; lineIndex[0] is always zero.
	lineIndex []int
}

// NewFile constructs a new source file. The path is virtual: it only names
// the file in diagnostics.
func NewFile(path, text string) *File {
	return &File{path: path, text: text}
}

// Path returns this file's (virtual) path.
func (f *File) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Text returns this file's textual contents.
func (f *File) Text() string {
	if f == nil {
		return ""
	}
	return f.text
}

// Span is a shorthand for creating a new Span.
func (f *File) Span(start, end int) Span {
	if f == nil {
		return Span{}
	}
	return Span{File: f, Start: start, End: end}
}

// LineCount returns the number of lines in this file. An empty file has one
// (empty) line.
func (f *File) LineCount() int {
	return len(f.lines())
}

// Line returns the given 1-indexed line, without its trailing newline.
func (f *File) Line(line int) string {
	start, end := f.LineOffsets(line)
	return strings.TrimSuffix(strings.TrimSuffix(f.Text()[start:end], "\n"), "\r")
}

// LineOffsets returns the byte offsets for the given 1-indexed line,
// including its trailing newline.
func (f *File) LineOffsets(line int) (start, end int) {
	lines := f.lines()
	if line < 1 {
		line = 1
	}
	if line >= len(lines) {
		return lines[len(lines)-1], len(f.Text())
	}
	return lines[line-1], lines[line]
}

// Location resolves a byte offset into a full Location.
//
// This operation is O(log n) in the number of lines.
func (f *File) Location(offset int, unit Unit) Location {
	if f == nil || offset <= 0 {
		return Location{Offset: 0, Line: 1, Column: 1}
	}
	offset = min(offset, len(f.text))

	lines := f.lines()
	line, exact := slices.BinarySearch(lines, offset)
	if !exact {
		line--
	}

	chunk := f.text[lines[line]:offset]
	var column int
	switch unit {
	case Bytes:
		column = len(chunk)
	case Runes:
		column = utf8.RuneCountInString(chunk)
	case TermWidth:
		column = Width(chunk)
	}

	return Location{
		Offset: offset,
		Line:   line + 1,
		Column: column + 1,
	}
}

// Width returns the rendered terminal width of text starting at column
// zero, expanding tabs to the next multiple of [TabstopWidth].
func Width(text string) int {
	var column int
	for text != "" {
		next := text
		tab := strings.IndexByte(text, '\t')
		if tab >= 0 {
			next, text = text[:tab], text[tab+1:]
		} else {
			text = ""
		}

		column += uniseg.StringWidth(next)
		if tab >= 0 {
			column += TabstopWidth - column%TabstopWidth
		}
	}
	return column
}

func (f *File) lines() []int {
	if f == nil {
		return []int{0}
	}

	f.once.Do(func() {
		f.lineIndex = append(f.lineIndex, 0)
		for i := range len(f.text) {
			if f.text[i] == '\n' {
				f.lineIndex = append(f.lineIndex, i+1)
			}
		}
	})
	return f.lineIndex
}

// Location is a user-displayable location within a source code file.
type Location struct {
	// The byte offset for this location.
	Offset int

	// The line and column for this location, 1-indexed.
	Line, Column int
}
