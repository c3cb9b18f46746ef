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

package expand

import (
	"fmt"
	"slices"

	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

const (
	DefaultMaxDepth   = 256
	DefaultMaxSplices = 1 << 16
)

// Expander expands macro invocations using the definitions in a table.
//
// An Expander may be reused for any number of calls, but not concurrently.
type Expander struct {
	Table *macro.Table

	// The deepest replacement nesting allowed in one call. Zero means
	// [DefaultMaxDepth].
	MaxDepth int
	// The most replacements allowed for one invocation in the input,
	// counting everything its replacement and arguments expand to. Zero
	// means [DefaultMaxSplices].
	MaxSplices int

	// Names that are never expanded, even if defined.
	Exclude map[string]bool

	// Where non-fatal problems are reported. May be nil, in which case they
	// are discarded.
	Report *report.Report

	// If not nil, counts how many times each macro is replaced.
	Stats Stats
}

// Stats counts replacements per macro name.
type Stats map[string]int

// Total returns the total number of replacements.
func (s Stats) Total() int {
	var n int
	for _, v := range s {
		n += v
	}
	return n
}

// Expand fully expands tokens.
//
// Paint and origin information on the input is discarded, so the output of a
// previous call may be fed back in for another pass.
//
// A non-nil error is always a [*DepthError]; the returned tokens are then the
// partially expanded input.
func (e *Expander) Expand(tokens []token.Token) ([]token.Token, error) {
	return e.start(e.Report, true).expand(fresh(tokens), 0)
}

// ExpandPasses calls [Expander.Expand] repeatedly, each time on the previous
// output, until the spelling of the output stops changing or maxPasses passes
// have run. It returns the final output and how many passes ran.
//
// If maxPasses is greater than one and another pass would still change the
// output, a [*PassLimitError] warning is reported. Diagnostics repeated by
// later passes are reported only once.
func (e *Expander) ExpandPasses(tokens []token.Token, maxPasses int) ([]token.Token, int, error) {
	maxPasses = max(maxPasses, 1)
	seen := make(map[string]struct{})

	current := tokens
	for pass := 1; pass <= maxPasses; pass++ {
		scratch := new(report.Report)
		out, err := e.start(scratch, true).expand(fresh(current), 0)
		e.merge(scratch, seen)
		if err != nil || slices.Equal(token.Spellings(out), token.Spellings(current)) {
			return out, pass, err
		}
		current = out
	}

	if maxPasses > 1 {
		probe, err := e.start(nil, false).expand(fresh(current), 0)
		if err == nil && !slices.Equal(token.Spellings(probe), token.Spellings(current)) && e.Report != nil {
			e.Report.Warn(&PassLimitError{Passes: maxPasses, Span: firstSpan(current)})
		}
	}
	return current, maxPasses, nil
}

// ContainsInvocation returns whether tokens contain something that
// [Expander.Expand] would replace: an object-like macro name, or a
// function-like macro name followed by "(".
//
// If name is not empty, only invocations of that macro are considered.
func (e *Expander) ContainsInvocation(tokens []token.Token, name string) bool {
	for i, tok := range tokens {
		if tok.Kind != token.Ident || (name != "" && tok.Text != name) || e.Exclude[tok.Text] {
			continue
		}
		def, ok := e.lookup(tok.Text)
		if !ok {
			continue
		}
		if !def.IsFunctionLike() {
			return true
		}
		if newStream(tokens[i+1:]).openParen() {
			return true
		}
	}
	return false
}

func (e *Expander) lookup(name string) (*macro.Definition, bool) {
	if e.Table == nil {
		return nil, false
	}
	return e.Table.Lookup(name)
}

// merge copies diagnostics from r into e.Report, skipping ones that were
// already merged.
func (e *Expander) merge(r *report.Report, seen map[string]struct{}) {
	if e.Report == nil {
		return
	}
	for d := range r.All() {
		key := fmt.Sprintf("%s|%s|%s", d.Tag(), d.Primary(), d.Message())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		e.Report.Diagnostics = append(e.Report.Diagnostics, *d)
	}
}

func (e *Expander) start(r *report.Report, count bool) *expansion {
	if r == nil {
		r = new(report.Report)
	}
	x := &expansion{Expander: e, report: r, maxDepth: e.MaxDepth, maxSplices: e.MaxSplices}
	if x.maxDepth <= 0 {
		x.maxDepth = DefaultMaxDepth
	}
	if x.maxSplices <= 0 {
		x.maxSplices = DefaultMaxSplices
	}
	if count {
		x.stats = e.Stats
	}
	return x
}

// expansion is the state of one top-level expansion call.
type expansion struct {
	*Expander
	report *report.Report
	stats  Stats

	maxDepth, maxSplices int
	// Replacements made for the current invocation from the input.
	splices int
}

// expand expands input. depth is how many macro arguments deep this call is.
func (x *expansion) expand(input []token.Token, depth int) ([]token.Token, error) {
	out := make([]token.Token, 0, len(input))
	s := newStream(input)

	// Line boundaries swallowed by a multi-line invocation are emitted after
	// the next one, so the output has as many lines as the input.
	var held []token.Token
	for {
		tok, ok := s.next()
		if !ok {
			return append(out, held...), nil
		}

		def := x.eligible(tok)
		if def == nil {
			out = append(out, tok)
			if tok.Kind == token.Newline {
				out = append(out, held...)
				held = nil
			}
			continue
		}

		var (
			args     [][]token.Token
			newlines []token.Token
		)
		if def.IsFunctionLike() {
			if !s.openParen() {
				out = append(out, tok)
				continue
			}

			inv, ok := s.collect()
			if !ok {
				x.report.Error(&UnterminatedError{Name: def.Name, Span: tok.Span})
				out = append(out, tok)
				out = append(out, inv.consumed...)
				continue
			}

			args, ok = x.bind(def, tok, inv)
			if !ok {
				out = append(out, tok)
				s.push(inv.consumed)
				continue
			}
			newlines = inv.newlines
		}

		if depth == 0 && tok.Paint.Len() == 0 {
			// An invocation written in the input, rather than produced by
			// another replacement, starts a fresh replacement budget.
			x.splices = 0
		}
		if err := x.enter(def, tok, depth); err != nil {
			out = append(out, tok)
			out = append(out, s.drain()...)
			return append(out, held...), err
		}

		repl, err := x.substitute(def, tok, args, depth)
		if err != nil {
			out = append(out, tok)
			out = append(out, s.drain()...)
			return append(out, held...), err
		}

		// The replacement inherits the invocation's leading whitespace. If
		// there is no replacement, the whitespace moves to the next token.
		switch {
		case len(repl) > 0:
			repl[0].Space = tok.Space
		case tok.HasSpace():
			if next, ok := s.peek(0); ok && !next.HasSpace() && len(newlines) == 0 {
				next, _ = s.next()
				s.push([]token.Token{next.WithSpace(tok.Space)})
			}
		}

		held = append(held, newlines...)
		s.push(repl)
	}
}

// eligible returns the macro that tok invokes, if it should be expanded.
func (x *expansion) eligible(tok token.Token) *macro.Definition {
	if tok.Kind != token.Ident || tok.Painted(tok.Text) || x.Exclude[tok.Text] {
		return nil
	}
	def, ok := x.lookup(tok.Text)
	if !ok {
		return nil
	}
	// An argument has already been fully expanded. The only new invocations
	// that can appear in it are function-like names that now have a "(".
	if tok.Origin == token.Argument && !def.IsFunctionLike() {
		return nil
	}
	return def
}

// enter checks the depth and replacement budgets before replacing tok.
func (x *expansion) enter(def *macro.Definition, tok token.Token, depth int) error {
	var err *DepthError
	switch {
	case tok.Paint.Len()+depth >= x.maxDepth:
		err = &DepthError{Name: def.Name, Span: tok.Span, Limit: x.maxDepth}
	case x.splices >= x.maxSplices:
		err = &DepthError{Name: def.Name, Span: tok.Span, Limit: x.maxSplices, Budget: true}
	}
	if err != nil {
		x.report.Error(err)
		return err
	}

	x.splices++
	if x.stats != nil {
		x.stats[def.Name]++
	}
	return nil
}

// bind matches the arguments of an invocation to def's parameters. The
// variadic arguments, if any, are joined into one final argument.
func (x *expansion) bind(def *macro.Definition, tok token.Token, inv invocation) ([][]token.Token, bool) {
	groups := inv.groups
	got := len(groups)
	if got == 1 && len(groups[0]) == 0 && (def.Arity() == 0 || def.Variadic) {
		// F() passes no arguments to F(), and an empty one to F(x).
		got = 0
	}

	arity := def.Arity()
	ok := got == arity || (arity == 1 && got == 0)
	if def.Variadic {
		ok = got >= arity || (arity == 1 && got == 0)
	}
	if !ok {
		x.report.Error(&ArgumentCountError{
			Name:     def.Name,
			Span:     tok.Span,
			Want:     arity,
			Got:      got,
			Variadic: def.Variadic,
		})
		return nil, false
	}

	args := make([][]token.Token, arity, arity+1)
	for i := range arity {
		if i < len(groups) {
			args[i] = groups[i]
		}
	}
	if def.Variadic {
		var va []token.Token
		for i := arity; i < len(groups); i++ {
			if i > arity {
				va = append(va, inv.commas[i-1])
			}
			va = append(va, groups[i]...)
		}
		args = append(args, va)
	}
	return args, true
}

// fresh strips the expansion history off of tokens.
func fresh(tokens []token.Token) []token.Token {
	out := make([]token.Token, len(tokens))
	for i, tok := range tokens {
		tok.Paint = token.Paint{}
		tok.Origin = token.Source
		out[i] = tok
	}
	return out
}

func firstSpan(tokens []token.Token) source.Span {
	for _, tok := range tokens {
		if !tok.Span.IsZero() {
			return tok.Span
		}
	}
	return source.Span{}
}
