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
	"io"
	"strconv"
	"strings"

	"github.com/bufbuild/macrocompile/source"
)

// Renderer configures a diagnostic rendering operation.
type Renderer struct {
	// If set, uses a compact one-line format for each diagnostic.
	Compact bool

	// If set, rendering results are enriched with ANSI color escapes.
	Colorize bool

	// Upgrades all warnings to errors.
	WarningsAreErrors bool

	// If set, remark diagnostics will be printed.
	ShowRemarks bool

	// If set, rendering a diagnostic will show the debug footer.
	ShowDebug bool
}

// Render renders a diagnostic report.
//
// In addition to returning the rendering result, returns the number of errors
// and warnings rendered. The error return is only for failures writing to out.
func (r Renderer) Render(report *Report, out io.Writer) (errorCount, warningCount int, err error) {
	for d := range report.All() {
		if !r.ShowRemarks && d.Level() == Remark {
			continue
		}

		if _, err = fmt.Fprintln(out, r.Diagnostic(d)); err != nil {
			return errorCount, warningCount, err
		}

		switch {
		case d.Level() == Error, d.Level() == Warning && r.WarningsAreErrors:
			errorCount++
		case d.Level() == Warning:
			warningCount++
		}
	}
	if r.Compact || errorCount+warningCount == 0 {
		return errorCount, warningCount, nil
	}

	c := r.colors()
	pluralize := func(count int, what string) string {
		if count == 1 {
			return "1 " + what
		}
		return fmt.Sprint(count, " ", what, "s")
	}

	switch {
	case errorCount > 0 && warningCount > 0:
		_, err = fmt.Fprint(out, c.bold(Error), "encountered ", pluralize(errorCount, "error"),
			" and ", pluralize(warningCount, "warning"), c.reset, "\n")
	case errorCount > 0:
		_, err = fmt.Fprint(out, c.bold(Error), "encountered ", pluralize(errorCount, "error"), c.reset, "\n")
	default:
		_, err = fmt.Fprint(out, c.bold(Warning), "encountered ", pluralize(warningCount, "warning"), c.reset, "\n")
	}
	return errorCount, warningCount, err
}

// RenderString is a helper for calling [Renderer.Render] with a
// [strings.Builder].
func (r Renderer) RenderString(report *Report) (text string, errorCount, warningCount int) {
	var buf strings.Builder
	e, w, _ := r.Render(report, &buf)
	return buf.String(), e, w
}

// Diagnostic renders a single diagnostic to a string.
func (r Renderer) Diagnostic(d *Diagnostic) string {
	level := d.Level()
	if level == Warning && r.WarningsAreErrors {
		level = Error
	}
	c := r.colors()

	// For the compact style, we imitate the Go compiler.
	if r.Compact {
		primary := d.Primary()
		switch {
		case !primary.IsZero():
			start := primary.StartLoc()
			return fmt.Sprintf("%s%s: %s:%d:%d: %s%s",
				c.color(level), level, primary.Path(), start.Line, start.Column, d.Message(), c.reset)
		case d.InFile() != "":
			return fmt.Sprintf("%s%s: %s: %s%s", c.color(level), level, d.InFile(), d.Message(), c.reset)
		default:
			return fmt.Sprintf("%s%s: %s%s", c.color(level), level, d.Message(), c.reset)
		}
	}

	// Otherwise, imitate the Rust compiler.
	var out strings.Builder
	fmt.Fprint(&out, c.bold(level), level, ": ", d.Message(), c.reset)
	if d.tag != "" {
		fmt.Fprint(&out, c.dim, " [", d.tag, "]", c.reset)
	}

	var greatestLine int
	for _, a := range d.annotations {
		greatestLine = max(greatestLine, a.EndLoc().Line)
	}
	gutter := len(strconv.Itoa(greatestLine))
	pad := strings.Repeat(" ", gutter)

	if primary := d.Primary(); !primary.IsZero() {
		fmt.Fprintf(&out, "\n%s%s--> %s%s", pad, c.gutter, primary, c.reset)
	} else if d.inFile != "" {
		fmt.Fprintf(&out, "\n%s%s--> %s%s", pad, c.gutter, d.inFile, c.reset)
	}

	for _, a := range d.annotations {
		r.snippet(&out, a, level, gutter, c)
	}

	footer := func(kind string, lines []string) {
		for _, line := range lines {
			fmt.Fprintf(&out, "\n%s %s= %s%s: %s", pad, c.gutter, kind, c.reset, line)
		}
	}
	footer("note", d.Notes())
	footer("help", d.Help())
	if r.ShowDebug {
		footer("debug", d.debug)
	}
	return out.String()
}

// snippet renders one annotation: the first line it covers, with a run of
// carets underneath the annotated columns.
func (r Renderer) snippet(out *strings.Builder, a annotation, level Level, gutter int, c colors) {
	start, end := a.StartLoc(), a.EndLoc()
	text := a.File.Line(start.Line)
	lineStart, _ := a.File.LineOffsets(start.Line)

	// Measure in terminal cells, so that wide characters and tabs line up.
	before := source.Width(text[:min(a.Start-lineStart, len(text))])
	underline := 1
	if end.Line == start.Line && a.End > a.Start {
		underline = max(1, source.Width(text[:min(a.End-lineStart, len(text))])-before)
	} else if end.Line > start.Line {
		underline = max(1, source.Width(text)-before)
	}

	mark := "^"
	color := c.color(level)
	if !a.primary {
		mark = "-"
		color = c.gutter
	}

	pad := strings.Repeat(" ", gutter)
	fmt.Fprintf(out, "\n%s %s|%s", pad, c.gutter, c.reset)
	fmt.Fprintf(out, "\n%s%*d |%s %s", c.gutter, gutter, start.Line, c.reset, expandTabs(text))
	fmt.Fprintf(out, "\n%s %s|%s %s%s%s", pad, c.gutter, c.reset,
		strings.Repeat(" ", before), color, strings.Repeat(mark, underline))
	if a.message != "" {
		fmt.Fprint(out, " ", a.message)
	}
	fmt.Fprint(out, c.reset)
}

func expandTabs(text string) string {
	if !strings.Contains(text, "\t") {
		return text
	}
	var out strings.Builder
	for _, r := range text {
		if r == '\t' {
			out.WriteString(strings.Repeat(" ", source.TabstopWidth-source.Width(out.String())%source.TabstopWidth))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

type colors struct {
	reset, dim, gutter string
	err, warn, remark  string
}

func (r Renderer) colors() colors {
	if !r.Colorize {
		return colors{}
	}
	return colors{
		reset:  "\033[0m",
		dim:    "\033[2m",
		gutter: "\033[1;94m",
		err:    "\033[91m",
		warn:   "\033[93m",
		remark: "\033[96m",
	}
}

func (c colors) color(level Level) string {
	switch level {
	case Error:
		return c.err
	case Warning:
		return c.warn
	case Remark:
		return c.remark
	default:
		return ""
	}
}

func (c colors) bold(level Level) string {
	color := c.color(level)
	if color == "" {
		return ""
	}
	return strings.Replace(color, "[", "[1;", 1)
}
