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
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

// Evaluate evaluates the expression of an #if or #elif directive, returning
// whether it is non-zero. See [Value].
func Evaluate(expr []token.Token, x *expand.Expander) (bool, error) {
	v, err := Value(expr, x)
	return v != 0, err
}

// Value evaluates an #if expression.
//
// defined(NAME) and defined NAME are resolved first, then macros are
// expanded with x, which may be nil. Identifiers that remain afterwards are
// 0, except for true, which is 1.
//
// Arithmetic is on signed 64-bit integers and wraps on overflow. Division by
// zero is an error only in operands that are actually evaluated, so
// 0 && 1/0 is fine.
//
// Returned errors are an [*expand.DepthError] from expansion, a [*DivideByZeroError]
// or an [*ExpressionError].
func Value(expr []token.Token, x *expand.Expander) (int64, error) {
	toks := slices.DeleteFunc(slices.Clone(expr), func(tok token.Token) bool {
		return tok.Kind == token.Newline
	})

	toks, err := resolveDefined(toks, x)
	if err != nil {
		return 0, err
	}
	if x != nil {
		if toks, err = x.Expand(toks); err != nil {
			return 0, err
		}
		// A macro may have expanded to defined.
		if toks, err = resolveDefined(toks, x); err != nil {
			return 0, err
		}
	}

	if len(toks) == 0 {
		return 0, &ExpressionError{What: "expected expression"}
	}
	p := &parser{toks: toks}
	v, err := p.ternary(false)
	if err != nil {
		return 0, err
	}
	if tok, ok := p.peek(); ok {
		return 0, errorf(tok.Span, "unexpected `%s` in preprocessor expression", tok.Text)
	}
	return v, nil
}

// resolveDefined replaces every use of the defined operator with 0 or 1.
func resolveDefined(toks []token.Token, x *expand.Expander) ([]token.Token, error) {
	if !slices.ContainsFunc(toks, func(tok token.Token) bool { return tok.IsIdent("defined") }) {
		return toks, nil
	}

	out := make([]token.Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if !tok.IsIdent("defined") {
			out = append(out, tok)
			continue
		}

		j := i + 1
		paren := j < len(toks) && toks[j].IsPunct("(")
		if paren {
			j++
		}
		if j >= len(toks) || toks[j].Kind != token.Ident {
			return nil, errorf(tok.Span, "`defined` requires a macro name")
		}
		name := toks[j]
		if paren {
			j++
			if j >= len(toks) || !toks[j].IsPunct(")") {
				return nil, errorf(name.Span, "missing `)` after `defined(%s`", name.Text)
			}
		}

		value := "0"
		if x != nil && x.Table != nil && x.Table.IsDefined(name.Text) {
			value = "1"
		}
		out = append(out, token.Token{
			Kind:  token.Number,
			Text:  value,
			Space: tok.Space,
			Span:  source.Join(tok.Span, toks[j].Span),
		})
		i = j
	}
	return out, nil
}

// binaryOps lists binary operators from lowest to highest precedence.
var binaryOps = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

// parser is a recursive descent evaluator. Operands under skip are parsed
// but cannot fail on division by zero, since C does not evaluate them.
type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) peek() (token.Token, bool) {
	if p.pos >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) punct(text string) bool {
	tok, ok := p.peek()
	return ok && tok.IsPunct(text)
}

func (p *parser) ternary(skip bool) (int64, error) {
	c, err := p.binary(0, skip)
	if err != nil || !p.punct("?") {
		return c, err
	}
	question := p.toks[p.pos]
	p.pos++

	a, err := p.ternary(skip || c == 0)
	if err != nil {
		return 0, err
	}
	if !p.punct(":") {
		return 0, errorf(question.Span, "expected `:` to match this `?`")
	}
	p.pos++
	b, err := p.ternary(skip || c != 0)
	if err != nil {
		return 0, err
	}

	if c != 0 {
		return a, nil
	}
	return b, nil
}

func (p *parser) binary(level int, skip bool) (int64, error) {
	if level == len(binaryOps) {
		return p.unary(skip)
	}

	lhs, err := p.binary(level+1, skip)
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || op.Kind != token.Punct || !slices.Contains(binaryOps[level], op.Text) {
			return lhs, nil
		}
		p.pos++

		rskip := skip ||
			(op.Text == "&&" && lhs == 0) ||
			(op.Text == "||" && lhs != 0)
		rhs, err := p.binary(level+1, rskip)
		if err != nil {
			return 0, err
		}
		if lhs, err = apply(op, lhs, rhs, rskip); err != nil {
			return 0, err
		}
	}
}

func (p *parser) unary(skip bool) (int64, error) {
	tok, ok := p.peek()
	if !ok {
		return 0, errorf(p.toks[len(p.toks)-1].Span, "expected expression")
	}
	p.pos++

	switch {
	case tok.IsPunct("!"), tok.IsPunct("-"), tok.IsPunct("+"), tok.IsPunct("~"):
		v, err := p.unary(skip)
		if err != nil {
			return 0, err
		}
		switch tok.Text {
		case "!":
			return b2i(v == 0), nil
		case "-":
			return -v, nil
		case "~":
			return ^v, nil
		}
		return v, nil

	case tok.IsPunct("("):
		v, err := p.ternary(skip)
		if err != nil {
			return 0, err
		}
		if !p.punct(")") {
			return 0, errorf(tok.Span, "missing `)` to match this `(`")
		}
		p.pos++
		return v, nil

	case tok.Kind == token.Number:
		return intValue(tok)
	case tok.Kind == token.Char:
		return charValue(tok)
	case tok.Kind == token.Ident:
		return b2i(tok.Text == "true"), nil
	}
	return 0, errorf(tok.Span, "unexpected `%s` in preprocessor expression", tok.Text)
}

func apply(op token.Token, a, b int64, skip bool) (int64, error) {
	switch op.Text {
	case "||":
		return b2i(a != 0 || b != 0), nil
	case "&&":
		return b2i(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return b2i(a == b), nil
	case "!=":
		return b2i(a != b), nil
	case "<":
		return b2i(a < b), nil
	case ">":
		return b2i(a > b), nil
	case "<=":
		return b2i(a <= b), nil
	case ">=":
		return b2i(a >= b), nil
	case "<<":
		return shift(a, b), nil
	case ">>":
		return shift(a, -b), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	}

	// Division and remainder.
	if b == 0 {
		if skip {
			return 0, nil
		}
		return 0, &DivideByZeroError{Span: op.Span, Op: op.Text}
	}
	if op.Text == "%" {
		return a % b, nil
	}
	return a / b, nil
}

// shift shifts a left by n, or right by -n if n is negative. Right shifts
// are arithmetic.
func shift(a, n int64) int64 {
	switch {
	case n >= 64:
		return 0
	case n >= 0:
		return a << n
	case n <= -64:
		return a >> 63
	default:
		return a >> -n
	}
}

func intValue(tok token.Token) (int64, error) {
	text := strings.ReplaceAll(tok.Text, "'", "")
	text = strings.TrimRight(text, "uUlLzZ")

	base := 10
	switch {
	case len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X"):
		base, text = 16, text[2:]
	case len(text) > 2 && (text[:2] == "0b" || text[:2] == "0B"):
		base, text = 2, text[2:]
	case len(text) > 1 && text[0] == '0':
		base, text = 8, text[1:]
	}

	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, errorf(tok.Span, "invalid integer constant `%s` in preprocessor expression", tok.Text)
	}
	return int64(v), nil //nolint:gosec // Wrapping is intended.
}

func charValue(tok token.Token) (int64, error) {
	text := tok.Text
	open := strings.IndexByte(text, '\'')
	if open < 0 || len(text) < open+2 || text[len(text)-1] != '\'' {
		return 0, errorf(tok.Span, "invalid character constant `%s`", text)
	}
	body := text[open+1 : len(text)-1]

	var value int64
	n := 0
	for i := 0; i < len(body); n++ {
		var c int64
		if body[i] != '\\' || i+1 == len(body) {
			r, size := utf8.DecodeRuneInString(body[i:])
			c, i = int64(r), i+size
		} else {
			c, i = escape(body, i+1)
		}

		if n == 0 {
			value = c
		} else {
			value = value<<8 | c&0xff
		}
	}
	if n == 0 {
		return 0, errorf(tok.Span, "empty character constant")
	}
	return value, nil
}

// escape decodes the escape sequence whose body starts at s[i], returning
// its value and the index after it.
func escape(s string, i int) (int64, int) {
	c := s[i]
	i++
	switch c {
	case 'n':
		return '\n', i
	case 't':
		return '\t', i
	case 'r':
		return '\r', i
	case 'a':
		return '\a', i
	case 'b':
		return '\b', i
	case 'f':
		return '\f', i
	case 'v':
		return '\v', i
	case 'x':
		var v int64
		for i < len(s) && isHex(s[i]) {
			d, _ := strconv.ParseInt(s[i:i+1], 16, 64)
			v = v<<4 | d
			i++
		}
		return v, i
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int64(c - '0')
		for n := 1; n < 3 && i < len(s) && s[i] >= '0' && s[i] <= '7'; n++ {
			v = v<<3 | int64(s[i]-'0')
			i++
		}
		return v, i
	}
	return int64(c), i
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
