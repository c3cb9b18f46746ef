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
	"errors"
	"iter"
	"strings"

	"github.com/bufbuild/macrocompile/cond"
	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/lexer"
	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

// Preprocessor processes a single compilation unit.
type Preprocessor struct {
	// The macros visible at the start of the file. If nil, a new table is
	// created. The table is modified by #define and #undef.
	Table *macro.Table
	// Where diagnostics are reported. If nil, a new report is created.
	Report *report.Report

	Options Options
}

// Result is the outcome of processing one file.
type Result struct {
	// The expanded text.
	Text string
	// The macro table as of the end of the file.
	Table *macro.Table
	// How many times each macro was replaced.
	Stats expand.Stats
	// Every diagnostic produced, in order.
	Report *report.Report
}

// Process is a shorthand for running a new [Preprocessor] over text.
func Process(path, text string, options Options) (Result, error) {
	p := &Preprocessor{Options: options}
	return p.Process(source.NewFile(path, text))
}

// Process preprocesses file.
//
// The returned error is non-nil only for problems that stop processing: a
// [*cond.UnbalancedError] or an [*expand.DepthError]. It has already been
// added to the report. The partial output is returned either way.
func (p *Preprocessor) Process(file *source.File) (Result, error) {
	if p.Table == nil {
		p.Table = new(macro.Table)
	}
	if p.Report == nil {
		p.Report = new(report.Report)
	}
	p.Options.seed(p.Table, p.Report)

	u := &unit{
		file:    file,
		options: p.Options,
		report:  p.Report,
		table:   p.Table,
		x:       p.Options.expander(p.Table, p.Report),
	}
	err := u.process()
	return Result{
		Text:   u.out.String(),
		Table:  u.table,
		Stats:  u.x.Stats,
		Report: u.report,
	}, err
}

// unit is the state of processing one file.
type unit struct {
	file    *source.File
	options Options
	report  *report.Report
	table   *macro.Table
	x       *expand.Expander
	stack   cond.Stack

	out strings.Builder

	// Active text lines waiting to be expanded, and the lexical errors
	// found in them.
	run     []token.Token
	runErrs []report.Diagnostic
}

func (u *unit) process() error {
	// The lexer reports into a scratch report so that errors in inactive
	// lines can be dropped.
	scratch := new(report.Report)
	next, stop := iter.Pull(lexer.Lex(u.file, scratch))
	defer stop()

	for {
		line := readLine(next)
		if len(line) == 0 {
			break
		}
		lexErrs := scratch.Diagnostics
		scratch.Diagnostics = nil

		if line[0].IsPunct("#") {
			if err := u.flush(); err != nil {
				return err
			}
			if u.stack.Active() {
				u.report.Diagnostics = append(u.report.Diagnostics, lexErrs...)
			}
			if err := u.directive(line); err != nil {
				return err
			}
			continue
		}

		if !u.stack.Active() {
			u.blank(line)
			continue
		}
		u.run = append(u.run, line...)
		u.runErrs = append(u.runErrs, lexErrs...)
	}

	if err := u.flush(); err != nil {
		return err
	}
	u.report.Diagnostics = append(u.report.Diagnostics, scratch.Diagnostics...)
	if err := u.stack.Close(); err != nil {
		reportError(u.report, err)
		return err
	}
	return nil
}

// flush expands and prints the pending run of text lines.
func (u *unit) flush() error {
	if len(u.run) == 0 {
		return nil
	}
	u.report.Diagnostics = append(u.report.Diagnostics, u.runErrs...)
	out, _, err := u.x.ExpandPasses(u.run, u.options.Passes)
	u.out.WriteString(token.Print(out))
	u.run, u.runErrs = nil, nil
	return err
}

// blank prints the line breaks for a line that produces no output, if line
// numbers are being preserved.
func (u *unit) blank(line []token.Token) {
	if !u.options.PreserveLines {
		return
	}
	start := line[0].Span.StartLoc().Line
	end := line[len(line)-1].Span.StartLoc().Line
	u.out.WriteString(strings.Repeat("\n", max(end-start+1, 1)))
}

// directive executes a directive line.
func (u *unit) directive(line []token.Token) error {
	toks := line
	if toks[len(toks)-1].Kind == token.Newline {
		toks = toks[:len(toks)-1]
	}
	span := toks[0].Span
	if len(toks) > 1 {
		span = source.Join(span, toks[len(toks)-1].Span)
	}
	if len(toks) == 1 {
		// The null directive.
		u.blank(line)
		return nil
	}

	name, args := toks[1], toks[2:]
	active := u.stack.Active()
	top, nested := u.stack.Top()
	parentActive := !nested || top.ParentActive

	var err error
	switch {
	case name.IsIdent("if"):
		if !active {
			u.stack.PushSkipped(span)
			break
		}
		ok, evalErr := u.evaluate(args, span)
		if evalErr != nil {
			return evalErr
		}
		u.stack.Push(ok, span)
	case name.IsIdent("ifdef"), name.IsIdent("ifndef"):
		if !active {
			u.stack.PushSkipped(span)
			break
		}
		defined, ok := u.macroName(name, args)
		u.stack.Push(ok && defined == name.IsIdent("ifdef"), span)
	case name.IsIdent("elif"):
		ok := false
		if u.stack.NeedsElif() {
			var evalErr error
			if ok, evalErr = u.evaluate(args, span); evalErr != nil {
				return evalErr
			}
		}
		err = u.stack.Elif(ok, span)
	case name.IsIdent("else"):
		u.extraTokens(name, args, parentActive)
		err = u.stack.Else(span)
	case name.IsIdent("endif"):
		u.extraTokens(name, args, parentActive)
		err = u.stack.Pop(span)

	case !active:
		// Everything else is ignored in an inactive region.

	case name.IsIdent("define"):
		def, err := macro.Parse(args, name.Span)
		if err == nil {
			err = u.table.Define(def)
		}
		if err != nil {
			reportError(u.report, err)
		}
	case name.IsIdent("undef"):
		if _, ok := u.macroName(name, args); ok {
			if _, ok := u.table.Undefine(args[0].Text); !ok {
				u.report.Warn(&macro.UndefinedError{Name: args[0].Text, Span: args[0].Span})
			}
		}
	case name.IsIdent("error"), name.IsIdent("warning"):
		e := &UserError{
			Span:    span,
			Text:    strings.TrimSpace(token.Print(args)),
			Warning: name.IsIdent("warning"),
		}
		if e.Warning {
			u.report.Warn(e)
		} else {
			u.report.Error(e)
		}

	case name.IsIdent("include"), name.IsIdent("pragma"), name.IsIdent("line"), name.Kind == token.Number:
		u.out.WriteString(token.Print(line))
		return nil
	default:
		u.report.Warn(&UnknownDirectiveError{Span: span, Name: name.Text})
		u.out.WriteString(token.Print(line))
		return nil
	}

	if err != nil {
		reportError(u.report, err)
		return err
	}
	u.blank(line)
	return nil
}

// evaluate evaluates an #if or #elif condition. Problems with the
// expression are reported and make the condition false; only an
// [*expand.DepthError] is returned.
func (u *unit) evaluate(args []token.Token, span source.Span) (bool, error) {
	ok, err := cond.Evaluate(args, u.x)
	if err == nil {
		return ok, nil
	}

	var depth *expand.DepthError
	if errors.As(err, &depth) {
		// Already reported by the expander.
		return false, err
	}
	var expr *cond.ExpressionError
	if errors.As(err, &expr) && expr.Span.IsZero() {
		expr.Span = span
	}
	reportError(u.report, err)
	return false, nil
}

// macroName checks that args is a single macro name, for #ifdef, #ifndef and
// #undef. It returns whether the name is defined.
func (u *unit) macroName(directive token.Token, args []token.Token) (defined, ok bool) {
	if len(args) == 0 || args[0].Kind != token.Ident {
		at := directive.Span
		if len(args) > 0 {
			at = args[0].Span
		}
		u.report.Error(&DirectiveError{Span: at, What: "`#" + directive.Text + "` requires a macro name"})
		return false, false
	}
	u.extraTokens(directive, args[1:], true)
	return u.table.IsDefined(args[0].Text), true
}

// extraTokens warns about tokens after a directive that takes no more.
func (u *unit) extraTokens(directive token.Token, extra []token.Token, active bool) {
	if len(extra) == 0 || !active {
		return
	}
	u.report.Warn(&DirectiveError{
		Span: source.Join(extra[0].Span, extra[len(extra)-1].Span),
		What: "extra tokens at end of `#" + directive.Text + "` directive",
	})
}

// readLine reads tokens up to and including the next line boundary.
func readLine(next func() (token.Token, bool)) []token.Token {
	var line []token.Token
	for {
		tok, ok := next()
		if !ok {
			return line
		}
		line = append(line, tok)
		if tok.Kind == token.Newline {
			return line
		}
	}
}

// reportError reports err as an error diagnostic.
func reportError(r *report.Report, err error) {
	var d report.Diagnose
	if errors.As(err, &d) {
		r.Error(d)
		return
	}
	r.Errorf("%v", err)
}
