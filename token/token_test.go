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

package token_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufbuild/macrocompile/token"
)

func TestPaint(t *testing.T) {
	t.Parallel()

	var empty token.Paint
	assert.False(t, empty.Has("A"))

	a := empty.With("B").With("A")
	assert.Equal(t, []string{"A", "B"}, slices.Collect(a.Names()))
	assert.True(t, a.Has("A"))
	assert.Equal(t, 0, empty.Len(), "With must not mutate its receiver")

	b := a.With("C")
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, a, a.With("A"))

	u := token.NewPaint("X", "A").Union(token.NewPaint("B", "X", "Z"))
	assert.Equal(t, "{A, B, X, Z}", u.String())
	assert.Equal(t, a, a.Union(empty))
	assert.Equal(t, a, empty.Union(a))
}

func TestPrint(t *testing.T) {
	t.Parallel()

	toks := []token.Token{
		{Kind: token.Ident, Text: "int", Space: "  "},
		{Kind: token.Ident, Text: "x", Space: " "},
		{Kind: token.Punct, Text: ";"},
		{Kind: token.Newline, Space: "   "},
		{Kind: token.Placemarker, Space: " "},
		{Kind: token.Number, Text: "1", Space: "\t"},
		{Kind: token.Newline},
	}
	assert.Equal(t, "  int x;\n\t1\n", token.Print(toks))
	assert.Equal(t, []string{"int", "x", ";", "1"}, token.Spellings(toks))
}

func TestEquivalent(t *testing.T) {
	t.Parallel()

	mk := func(spaces ...string) []token.Token {
		texts := []string{"a", "+", "b"}
		out := make([]token.Token, len(spaces))
		for i, s := range spaces {
			kind := token.Ident
			if texts[i] == "+" {
				kind = token.Punct
			}
			out[i] = token.Token{Kind: kind, Text: texts[i], Space: s}
		}
		return out
	}

	assert.True(t, token.Equivalent(mk(" ", " ", " "), mk("", "  ", "\t")))
	assert.False(t, token.Equivalent(mk("", " ", " "), mk("", "", " ")))
	assert.False(t, token.Equivalent(mk("", " "), mk("", " ", " ")))
}
