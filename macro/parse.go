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

package macro

import (
	"fmt"
	"slices"

	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

// Parse builds a definition out of the tokens of a #define directive,
// starting at the macro name. at is the span of the directive itself, used
// when there is no name to point at.
//
// A function-like macro is one whose name is immediately followed by a "(",
// with no whitespace in between.
func Parse(tokens []token.Token, at source.Span) (*Definition, error) {
	if len(tokens) == 0 {
		return nil, &DefineError{Span: at, What: "missing macro name"}
	}
	name := tokens[0]
	if name.Kind != token.Ident {
		return nil, &DefineError{
			Span: name.Span,
			What: fmt.Sprintf("macro names must be identifiers, found `%s`", name.Text),
		}
	}
	if name.Text == "defined" {
		return nil, &DefineError{Span: name.Span, What: "`defined` cannot be used as a macro name"}
	}

	rest := tokens[1:]
	var def *Definition
	if len(rest) > 0 && rest[0].IsPunct("(") && !rest[0].HasSpace() {
		params, variadic, n, err := parseParams(rest)
		if err != nil {
			return nil, err
		}
		def = NewFunction(name.Text, params, variadic, slices.Clone(rest[n:]))
	} else {
		def = NewObject(name.Text, slices.Clone(rest))
	}
	def.Span = name.Span
	for i := range def.Body {
		// Whitespace inside a replacement list, including line splices,
		// prints as a single space.
		if def.Body[i].HasSpace() {
			def.Body[i].Space = " "
		}
	}

	if err := validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

// parseParams parses a parenthesized parameter list at the start of tokens,
// returning the number of tokens consumed.
func parseParams(tokens []token.Token) (params []string, variadic bool, n int, err error) {
	open := tokens[0]
	expectName := true
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok.IsPunct(")"):
			if expectName && len(params) > 0 {
				return nil, false, 0, &DefineError{Span: tok.Span, What: "expected parameter name, found `)`"}
			}
			return params, variadic, i + 1, nil

		case !expectName && tok.IsPunct(","):
			if variadic {
				return nil, false, 0, &DefineError{
					Span: tok.Span,
					What: "`...` must be the last parameter",
				}
			}
			expectName = true

		case expectName && tok.IsPunct("..."):
			variadic = true
			expectName = false

		case expectName && tok.Kind == token.Ident:
			switch {
			case tok.Text == VAArgs || tok.Text == VAOpt:
				return nil, false, 0, &DefineError{
					Span: tok.Span,
					What: fmt.Sprintf("`%s` cannot be used as a parameter name", tok.Text),
				}
			case slices.Contains(params, tok.Text):
				return nil, false, 0, &DefineError{
					Span: tok.Span,
					What: fmt.Sprintf("duplicate macro parameter `%s`", tok.Text),
				}
			}
			params = append(params, tok.Text)
			expectName = false

		default:
			want := "`,` or `)`"
			if expectName {
				want = "parameter name"
			}
			return nil, false, 0, &DefineError{
				Span: tok.Span,
				What: fmt.Sprintf("expected %s, found `%s`", want, tok.Text),
			}
		}
	}
	return nil, false, 0, &DefineError{
		Span: open.Span,
		What: "unterminated macro parameter list",
		Help: "add a closing `)`",
	}
}

func validate(def *Definition) error {
	body := def.Body
	if len(body) > 0 {
		if tok := body[0]; tok.IsPunct("##") {
			return &DefineError{Span: tok.Span, What: "`##` cannot appear at the start of a replacement list"}
		}
		if tok := body[len(body)-1]; tok.IsPunct("##") {
			return &DefineError{Span: tok.Span, What: "`##` cannot appear at the end of a replacement list"}
		}
	}

	for i := 0; i < len(body); i++ {
		tok := body[i]
		switch {
		case (tok.IsIdent(VAArgs) || tok.IsIdent(VAOpt)) && !def.Variadic:
			return &DefineError{
				Span: tok.Span,
				What: fmt.Sprintf("`%s` can only appear in a variadic macro", tok.Text),
			}

		case tok.IsIdent(VAOpt):
			end, err := vaOptEnd(body, i)
			if err != nil {
				return err
			}
			for _, inner := range body[i+2 : end] {
				if inner.IsIdent(VAOpt) {
					return &DefineError{Span: inner.Span, What: "`__VA_OPT__` cannot be nested"}
				}
			}

		case tok.IsPunct("#") && def.IsFunctionLike():
			if i+1 >= len(body) || def.Ref(i+1) < 0 {
				return &DefineError{
					Span: tok.Span,
					What: "`#` is not followed by a macro parameter",
				}
			}
		}
	}
	return nil
}

// VAOptEnd returns the index of the ")" that closes the __VA_OPT__ at
// body[i].
func VAOptEnd(body []token.Token, i int) (int, bool) {
	if i+1 >= len(body) || !body[i+1].IsPunct("(") {
		return 0, false
	}
	depth := 0
	for j := i + 1; j < len(body); j++ {
		switch {
		case body[j].IsPunct("("):
			depth++
		case body[j].IsPunct(")"):
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

func vaOptEnd(body []token.Token, i int) (int, error) {
	end, ok := VAOptEnd(body, i)
	if !ok {
		return 0, &DefineError{
			Span: body[i].Span,
			What: "`__VA_OPT__` must be followed by a parenthesized replacement",
		}
	}
	return end, nil
}
