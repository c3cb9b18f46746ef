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

package token

import (
	"strings"

	"github.com/bufbuild/macrocompile/source"
)

// Token is a single lexical token.
type Token struct {
	Kind Kind
	// The token's spelling.
	Text string
	// The whitespace that preceded this token on its line. Comments count
	// as a single space.
	Space string
	// Where this token was read from. Tokens created during expansion carry
	// the span of the token they were derived from.
	Span source.Span
	// The macros whose expansion produced this token.
	Paint Paint
	// Where this token came from during expansion.
	Origin Origin
}

// IsIdent returns whether this is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Kind == Ident && t.Text == name
}

// IsPunct returns whether this is the punctuator punct.
func (t Token) IsPunct(punct string) bool {
	return t.Kind == Punct && t.Text == punct
}

// HasSpace returns whether this token was preceded by whitespace.
func (t Token) HasSpace() bool {
	return t.Space != ""
}

// Painted returns whether this token's painted set includes name.
func (t Token) Painted(name string) bool {
	return t.Paint.Has(name)
}

// WithSpace returns a copy of t with its leading whitespace replaced.
func (t Token) WithSpace(space string) Token {
	t.Space = space
	return t
}

// String implements [fmt.Stringer].
func (t Token) String() string {
	return t.Text
}

// Equivalent returns whether a and b spell the same tokens with the same
// whitespace separation. Only the presence of whitespace matters, not its
// amount: this is the comparison C uses for macro redefinition.
func Equivalent(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Text != b[i].Text {
			return false
		}
		if i > 0 && a[i].HasSpace() != b[i].HasSpace() {
			return false
		}
	}
	return true
}

// Print renders a token sequence back into text.
//
// Every token is printed after its leading whitespace, except that the
// whitespace before a [Newline] (that is, trailing whitespace) is dropped.
// Placemarkers print as nothing.
func Print(tokens []Token) string {
	var out strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case Newline:
			out.WriteByte('\n')
		case Placemarker:
		default:
			out.WriteString(tok.Space)
			out.WriteString(tok.Text)
		}
	}
	return out.String()
}

// Spellings returns the spelling of each token, skipping newlines and
// placemarkers. It is mostly useful in tests.
func Spellings(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == Newline || tok.Kind == Placemarker {
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}
