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

package lexer

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

// Lex returns a lazy sequence of the tokens in file.
//
// The sequence is restartable: each range over it lexes the file from the
// beginning. Lexical errors are reported to r as they are encountered, so
// ranging over the sequence twice reports them twice. r may be nil, in which
// case errors are dropped.
//
// Every line, including the last one, ends in a [token.Newline].
func Lex(file *source.File, r *report.Report) iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		l := &lexer{file: file, text: file.Text(), report: r}
		l.run(yield)
	}
}

// LexAll lexes file eagerly.
func LexAll(file *source.File, r *report.Report) []token.Token {
	return slices.Collect(Lex(file, r))
}

// Relex checks whether text spells exactly one token, and returns it.
//
// This is used to validate the result of token pasting.
func Relex(text string) (token.Token, bool) {
	var (
		tok   token.Token
		count int
		bad   bool
	)
	l := &lexer{file: source.NewFile("", text), text: text, onError: func() { bad = true }}
	l.run(func(t token.Token) bool {
		if t.Kind == token.Newline {
			return true
		}
		tok = t
		count++
		return count == 1
	})
	if bad || count != 1 || tok.HasSpace() || len(tok.Text) != len(text) {
		return token.Token{}, false
	}
	tok.Span = source.Span{}
	return tok, true
}

// lexer is the lexer book-keeping for a single run.
type lexer struct {
	file   *source.File
	text   string
	report *report.Report
	// Called in addition to reporting, for Relex.
	onError func()

	cursor int
	space  strings.Builder
	// Whether anything other than whitespace has been emitted on the
	// current line.
	content bool
}

func (l *lexer) rest() string {
	return l.text[l.cursor:]
}

func (l *lexer) peek(n int) byte {
	if l.cursor+n >= len(l.text) {
		return 0
	}
	return l.text[l.cursor+n]
}

// run is the main loop of the lexer.
func (l *lexer) run(yield func(token.Token) bool) {
	for l.cursor < len(l.text) {
		start := l.cursor
		rest := l.rest()
		c := rest[0]

		switch {
		case c == '\\' && (strings.HasPrefix(rest, "\\\n") || strings.HasPrefix(rest, "\\\r\n")):
			// Line splice: the next physical line continues this one.
			l.cursor += strings.IndexByte(rest, '\n') + 1
			l.space.WriteByte(' ')
			continue

		case c == '\n':
			l.cursor++
			if !l.emit(yield, token.Newline, start) {
				return
			}
			continue

		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.cursor++
			l.space.WriteByte(c)
			continue

		case strings.HasPrefix(rest, "//"):
			// Stop before the newline (or a splice followed by one) so the
			// line boundary is still produced.
			end := len(rest)
			for i := 2; i < len(rest); i++ {
				if rest[i] == '\n' && (i == 0 || rest[i-1] != '\\') {
					end = i
					break
				}
			}
			l.cursor += end
			l.space.WriteByte(' ')
			continue

		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				l.cursor = len(l.text)
				l.error(start, start+2, "unterminated block comment")
			} else {
				l.cursor += end + 4
			}
			l.space.WriteByte(' ')
			continue

		case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
			l.lexNumber()
			if !l.emit(yield, token.Number, start) {
				return
			}
			continue

		case c == '"' || c == '\'':
			kind := l.lexQuoted(start, c)
			if !l.emit(yield, kind, start) {
				return
			}
			continue
		}

		if r, n := utf8.DecodeRuneInString(rest); isIdentStart(r) {
			l.cursor += n
			l.takeWhile(isIdentContinue)
			prefix := l.text[start:l.cursor]

			// Encoding prefixes glue onto the literal that follows them.
			kind := token.Ident
			switch q := l.peek(0); {
			case q == '"' && strings.HasSuffix(prefix, "R") && isStringPrefix(prefix[:len(prefix)-1]):
				l.lexRaw(start)
				kind = token.String
			case (q == '"' || q == '\'') && isStringPrefix(prefix):
				kind = l.lexQuoted(start, q)
			}

			if !l.emit(yield, kind, start) {
				return
			}
			continue
		}

		if punct := longestPunct(rest); punct != "" {
			l.cursor += len(punct)
			if !l.emit(yield, token.Punct, start) {
				return
			}
			continue
		}

		// Garbage: take a single rune.
		_, n := utf8.DecodeRuneInString(rest)
		l.cursor += n
		if !l.emit(yield, token.Unrecognized, start) {
			return
		}
	}

	// Make sure the last line is terminated.
	if l.content || l.space.Len() > 0 {
		l.emit(yield, token.Newline, l.cursor)
	}
}

// emit yields the token from start to the cursor.
func (l *lexer) emit(yield func(token.Token) bool, kind token.Kind, start int) bool {
	tok := token.Token{
		Kind:  kind,
		Text:  l.text[start:l.cursor],
		Space: l.space.String(),
		Span:  l.file.Span(start, l.cursor),
	}
	if kind == token.Newline {
		tok.Text = "\n"
	}
	l.content = kind != token.Newline
	l.space.Reset()
	return yield(tok)
}

func (l *lexer) takeWhile(p func(rune) bool) {
	for l.cursor < len(l.text) {
		r, n := utf8.DecodeRuneInString(l.rest())
		if !p(r) {
			return
		}
		l.cursor += n
	}
}

// lexNumber consumes a preprocessing number.
func (l *lexer) lexNumber() {
	for l.cursor < len(l.text) {
		c := l.peek(0)
		switch {
		case (c == 'e' || c == 'E' || c == 'p' || c == 'P') && (l.peek(1) == '+' || l.peek(1) == '-'):
			l.cursor += 2
		case isDigit(c) || isAlpha(c) || c == '_' || c == '.':
			l.cursor++
		case c == '\'' && (isDigit(l.peek(1)) || isAlpha(l.peek(1))):
			// C++14 digit separator.
			l.cursor++
		default:
			return
		}
	}
}

// lexQuoted consumes a string or character literal whose opening quote is at
// the cursor. An unterminated literal is reported and runs to the end of the
// line.
func (l *lexer) lexQuoted(start int, quote byte) token.Kind {
	kind := token.String
	what := "string"
	if quote == '\'' {
		kind = token.Char
		what = "character"
	}

	l.cursor++
	for l.cursor < len(l.text) {
		switch c := l.peek(0); {
		case c == quote:
			l.cursor++
			return kind
		case c == '\\' && l.cursor+1 < len(l.text):
			// Escapes, including an escaped newline (a line splice).
			l.cursor += 2
		case c == '\n':
			l.error(start, l.cursor, "unterminated %s literal", what)
			return kind
		default:
			l.cursor++
		}
	}
	l.error(start, l.cursor, "unterminated %s literal", what)
	return kind
}

// lexRaw consumes a C++11 raw string literal, R"delim( ... )delim". The
// cursor is at the opening quote.
func (l *lexer) lexRaw(start int) {
	open := strings.IndexByte(l.rest(), '(')
	if open < 0 || strings.ContainsAny(l.rest()[:open], " \\)\n") {
		l.lexQuoted(start, '"')
		return
	}
	closing := ")" + l.rest()[1:open] + `"`
	end := strings.Index(l.rest()[open:], closing)
	if end < 0 {
		l.cursor = len(l.text)
		l.error(start, l.cursor, "unterminated raw string literal")
		return
	}
	l.cursor += open + end + len(closing)
}

// error reports a lexical error spanning start to end.
func (l *lexer) error(start, end int, format string, args ...any) {
	if l.onError != nil {
		l.onError()
	}
	if l.report == nil {
		return
	}
	l.report.Error(&Error{
		Span: l.file.Span(start, end),
		What: fmt.Sprintf(format, args...),
	})
}

// puncts is every punctuator, longest first within each leading byte.
var puncts = func() []string {
	p := []string{
		"...", "<<=", ">>=", "->*", "<=>",
		"##", "->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
		"*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=", "::", ".*",
		"#", "(", ")", "[", "]", "{", "}", ".", ",", ";", ":", "?", "~", "!",
		"+", "-", "*", "/", "%", "^", "&", "|", "=", "<", ">",
	}
	slices.SortStableFunc(p, func(a, b string) int { return len(b) - len(a) })
	return p
}()

func longestPunct(s string) string {
	for _, p := range puncts {
		if strings.HasPrefix(s, p) {
			return p
		}
	}
	return ""
}

func isStringPrefix(s string) bool {
	switch s {
	case "", "L", "u", "U", "u8":
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r < utf8.RuneSelf && isAlpha(byte(r))) ||
		(r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) ||
		(r >= utf8.RuneSelf && unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc))
}
