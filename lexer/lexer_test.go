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

package lexer_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/macrocompile/lexer"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

// dump renders tokens as Kind:Text, prefixed by a dot for tokens preceded by
// whitespace.
func dump(toks []token.Token) []string {
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		space := ""
		if tok.HasSpace() && tok.Kind != token.Newline {
			space = "."
		}
		text := tok.Text
		if tok.Kind == token.Newline {
			text = `\n`
		}
		out = append(out, fmt.Sprintf("%s%v:%s", space, tok.Kind, text))
	}
	return out
}

func TestLex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, input string
		want        []string
	}{
		{
			name:  "empty",
			input: "",
			want:  []string{},
		},
		{
			name:  "comment",
			input: "int x = 42; // hi\n",
			want: []string{
				"Ident:int", ".Ident:x", ".Punct:=", ".Number:42", "Punct:;", `Newline:\n`,
			},
		},
		{
			name:  "operators",
			input: "a<<=b->*c...##d<=>e",
			want: []string{
				"Ident:a", "Punct:<<=", "Ident:b", "Punct:->*", "Ident:c", "Punct:...",
				"Punct:##", "Ident:d", "Punct:<=>", "Ident:e", `Newline:\n`,
			},
		},
		{
			name:  "literals",
			input: `L"wide" u8"x" 'c' R"x(a")x" "esc\"aped"`,
			want: []string{
				`String:L"wide"`, `.String:u8"x"`, `.Char:'c'`, `.String:R"x(a")x"`, `.String:"esc\"aped"`, `Newline:\n`,
			},
		},
		{
			name:  "numbers",
			input: "0x1Fu 1.5e+3f .5 1'000 9abc",
			want: []string{
				"Number:0x1Fu", ".Number:1.5e+3f", ".Number:.5", ".Number:1'000", ".Number:9abc", `Newline:\n`,
			},
		},
		{
			name:  "block comment",
			input: "a/*x\ny*/b\n",
			want:  []string{"Ident:a", ".Ident:b", `Newline:\n`},
		},
		{
			name:  "splice",
			input: "#define X \\\n 1\nX",
			want: []string{
				"Punct:#", "Ident:define", ".Ident:X", ".Number:1", `Newline:\n`, "Ident:X", `Newline:\n`,
			},
		},
		{
			name:  "garbage",
			input: "a @ \\ b",
			want:  []string{"Ident:a", ".Unrecognized:@", ".Unrecognized:\\", ".Ident:b", `Newline:\n`},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			r := new(report.Report)
			got := dump(lexer.LexAll(source.NewFile(test.name, test.input), r))
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestLexSpacing(t *testing.T) {
	t.Parallel()

	toks := lexer.LexAll(source.NewFile("test.h", "  a\t b /* c */ d  \n"), nil)
	require.Len(t, toks, 4)
	assert.Equal(t, "  ", toks[0].Space)
	assert.Equal(t, "\t ", toks[1].Space)
	assert.Equal(t, "   ", toks[2].Space)
	assert.Equal(t, "  a\t b   d\n", token.Print(toks))
}

func TestUnterminated(t *testing.T) {
	t.Parallel()

	file := source.NewFile("test.h", "x = \"abc\ny = 'q")
	r := new(report.Report)
	got := dump(lexer.LexAll(file, r))
	assert.Equal(t, []string{
		"Ident:x", ".Punct:=", `.String:"abc`, `Newline:\n`,
		"Ident:y", ".Punct:=", ".Char:'q", `Newline:\n`,
	}, got)

	require.Equal(t, 2, r.Len())
	d := &r.Diagnostics[0]
	assert.True(t, d.Is(lexer.TagLexError))
	assert.Equal(t, "unterminated string literal", d.Message())
	assert.Equal(t, "test.h:1:5", d.Primary().String())
	assert.Equal(t, "unterminated character literal", r.Diagnostics[1].Message())
}

func TestRestartable(t *testing.T) {
	t.Parallel()

	seq := lexer.Lex(source.NewFile("test.h", "a b\nc"), nil)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, dump(first), dump(second))

	// Stopping early must not break a later full run.
	for range seq {
		break
	}
	assert.Len(t, slices.Collect(seq), 5)
}

func TestPositions(t *testing.T) {
	t.Parallel()

	toks := lexer.LexAll(source.NewFile("test.h", "a\n  bc"), nil)
	require.Len(t, toks, 4)
	assert.Equal(t, "test.h:2:3", toks[2].Span.String())
	assert.Equal(t, "bc", toks[2].Span.Text())
	assert.Equal(t, token.Source, toks[2].Origin)
}

func TestRelex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		kind token.Kind
		ok   bool
	}{
		{text: "foobar", kind: token.Ident, ok: true},
		{text: "+=", kind: token.Punct, ok: true},
		{text: "x1", kind: token.Ident, ok: true},
		{text: "12e", kind: token.Number, ok: true},
		{text: `L"s"`, kind: token.String, ok: true},
		{text: "+-"},
		{text: "//"},
		{text: `"a`},
		{text: "a b"},
		{text: ""},
	}

	for _, test := range tests {
		tok, ok := lexer.Relex(test.text)
		assert.Equal(t, test.ok, ok, "%q", test.text)
		if ok {
			assert.Equal(t, test.kind, tok.Kind, "%q", test.text)
			assert.Equal(t, test.text, tok.Text)
		}
	}
}
