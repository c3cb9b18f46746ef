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
	"slices"
	"strings"

	"github.com/bufbuild/macrocompile/lexer"
	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/token"
)

// substitute instantiates def's replacement list for one invocation, whose
// name token is inv. args are the bound arguments, unexpanded.
//
// Every resulting token is painted with inv's paint plus def's name.
func (x *expansion) substitute(def *macro.Definition, inv token.Token, args [][]token.Token, depth int) ([]token.Token, error) {
	s := &substitution{
		expansion: x,
		def:       def,
		args:      args,
		expanded:  make([][]token.Token, len(args)),
		done:      make([]bool, len(args)),
		paint:     inv.Paint.With(def.Name),
		depth:     depth,
	}
	out, err := s.run(0, len(def.Body))
	return slices.DeleteFunc(out, isPlacemarker), err
}

type substitution struct {
	*expansion
	def   *macro.Definition
	args  [][]token.Token
	paint token.Paint
	depth int

	// Fully expanded arguments, computed on first use.
	expanded [][]token.Token
	done     []bool
}

// run substitutes Body[lo:hi].
func (s *substitution) run(lo, hi int) ([]token.Token, error) {
	var out []token.Token
	for i := lo; i < hi; i++ {
		pasting := s.def.Body[i].IsPunct("##")
		if pasting {
			i++
		}

		operand, n, err := s.operand(i, hi, pasting)
		if err != nil {
			return nil, err
		}
		i += n - 1

		if pasting {
			out = s.paste(out, operand)
		} else {
			out = append(out, operand...)
		}
	}
	return out, nil
}

// operand substitutes the replacement-list element at Body[i], returning
// the tokens it becomes and how many body tokens it spans.
//
// An element next to a ## is substituted without expanding its argument, and
// becomes a placemarker if it would otherwise be empty.
func (s *substitution) operand(i, hi int, pasted bool) ([]token.Token, int, error) {
	body := s.def.Body
	tok := body[i]
	pastes := func(n int) bool {
		return pasted || (i+n < hi && body[i+n].IsPunct("##"))
	}
	placemarker := token.Token{Kind: token.Placemarker, Space: tok.Space, Span: tok.Span}

	switch {
	case s.def.IsFunctionLike() && tok.IsPunct("#") && i+1 < hi && s.def.Ref(i+1) >= 0:
		str := token.Token{
			Kind:   token.String,
			Text:   stringize(s.args[s.def.Ref(i+1)]),
			Space:  tok.Space,
			Span:   tok.Span,
			Paint:  s.paint,
			Origin: token.Synthesized,
		}
		return []token.Token{str}, 2, nil

	case s.def.Variadic && tok.IsIdent(macro.VAOpt):
		end, ok := macro.VAOptEnd(body, i)
		if !ok {
			end = i
		}
		n := end - i + 1

		var content []token.Token
		if len(s.args[len(s.args)-1]) > 0 && end > i {
			var err error
			content, err = s.run(i+2, end)
			if err != nil {
				return nil, 0, err
			}
			content = slices.DeleteFunc(content, isPlacemarker)
		}
		if len(content) == 0 {
			if pastes(n) {
				return []token.Token{placemarker}, n, nil
			}
			return nil, n, nil
		}
		content[0].Space = tok.Space
		return content, n, nil
	}

	ref := s.def.Ref(i)
	if ref < 0 {
		tok.Paint = tok.Paint.Union(s.paint)
		tok.Origin = token.Replacement
		return []token.Token{tok}, 1, nil
	}

	var arg []token.Token
	origin := token.Argument
	if pastes(1) {
		arg = s.args[ref]
		origin = token.Replacement
		if len(arg) == 0 {
			return []token.Token{placemarker}, 1, nil
		}
	} else {
		var err error
		arg, err = s.expandArg(ref)
		if err != nil {
			return nil, 0, err
		}
	}

	out := make([]token.Token, len(arg))
	for j, a := range arg {
		a.Paint = a.Paint.Union(s.paint)
		a.Origin = origin
		out[j] = a
	}
	if len(out) > 0 {
		out[0].Space = tok.Space
	}
	return out, 1, nil
}

// expandArg returns the nth argument, fully expanded on its own.
func (s *substitution) expandArg(n int) ([]token.Token, error) {
	if !s.done[n] {
		out, err := s.expand(s.args[n], s.depth+1)
		if err != nil {
			return nil, err
		}
		s.expanded[n] = out
		s.done[n] = true
	}
	return s.expanded[n], nil
}

// paste glues the first of rhs onto the last token of out, per ##.
func (s *substitution) paste(out, rhs []token.Token) []token.Token {
	if len(out) == 0 || len(rhs) == 0 {
		return append(out, rhs...)
	}

	lhs, r := out[len(out)-1], rhs[0]
	var glued token.Token
	switch {
	case lhs.Kind == token.Placemarker:
		glued = r.WithSpace(lhs.Space)
	case r.Kind == token.Placemarker:
		glued = lhs
	default:
		relexed, ok := lexer.Relex(lhs.Text + r.Text)
		if !ok {
			s.report.Error(&PasteError{Span: lhs.Span, Left: lhs.Text, Right: r.Text})
			return append(out, rhs...)
		}
		glued = token.Token{
			Kind:   relexed.Kind,
			Text:   relexed.Text,
			Space:  lhs.Space,
			Span:   lhs.Span,
			Paint:  lhs.Paint.Union(r.Paint),
			Origin: token.Synthesized,
		}
	}

	out[len(out)-1] = glued
	return append(out, rhs[1:]...)
}

// stringize spells arg as a string literal, per #.
//
// Whitespace between tokens becomes a single space, and leading whitespace
// is dropped. Quotes and backslashes are escaped only inside string and
// character literals.
func stringize(arg []token.Token) string {
	var out strings.Builder
	out.WriteByte('"')
	first := true
	for _, tok := range arg {
		if tok.Kind == token.Placemarker || tok.Kind == token.Newline {
			continue
		}
		if !first && tok.HasSpace() {
			out.WriteByte(' ')
		}
		first = false

		if tok.Kind != token.String && tok.Kind != token.Char {
			out.WriteString(tok.Text)
			continue
		}
		for _, c := range []byte(tok.Text) {
			if c == '"' || c == '\\' {
				out.WriteByte('\\')
			}
			out.WriteByte(c)
		}
	}
	out.WriteByte('"')
	return out.String()
}

func isPlacemarker(tok token.Token) bool {
	return tok.Kind == token.Placemarker
}
