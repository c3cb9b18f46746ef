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

import "github.com/bufbuild/macrocompile/token"

// stream is the queue of tokens waiting to be scanned.
//
// Replacements are pushed onto the front so they are rescanned before
// whatever followed the invocation. Each push is its own frame, which keeps
// a splice from copying the rest of the line.
type stream struct {
	frames [][]token.Token // The last frame is the front of the queue.
}

func newStream(tokens []token.Token) *stream {
	s := new(stream)
	s.push(tokens)
	return s
}

// push places tokens at the front of the stream.
func (s *stream) push(tokens []token.Token) {
	if len(tokens) > 0 {
		s.frames = append(s.frames, tokens)
	}
}

// next removes and returns the front token.
func (s *stream) next() (token.Token, bool) {
	for len(s.frames) > 0 {
		top := &s.frames[len(s.frames)-1]
		if len(*top) == 0 {
			s.frames = s.frames[:len(s.frames)-1]
			continue
		}
		tok := (*top)[0]
		*top = (*top)[1:]
		return tok, true
	}
	return token.Token{}, false
}

// peek returns the nth token from the front without consuming anything.
func (s *stream) peek(n int) (token.Token, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if n < len(s.frames[i]) {
			return s.frames[i][n], true
		}
		n -= len(s.frames[i])
	}
	return token.Token{}, false
}

// drain removes and returns everything left in the stream.
func (s *stream) drain() []token.Token {
	var out []token.Token
	for i := len(s.frames) - 1; i >= 0; i-- {
		out = append(out, s.frames[i]...)
	}
	s.frames = nil
	return out
}

// invocation is the argument list of a function-like macro invocation, as
// read off of a stream.
type invocation struct {
	groups [][]token.Token // Raw arguments, split on top-level commas.
	commas []token.Token   // The commas between groups.

	consumed []token.Token // Everything read after the macro name.
	newlines []token.Token // Line boundaries crossed while reading.
}

// openParen returns whether the stream begins with a "(", possibly after
// some line boundaries.
func (s *stream) openParen() bool {
	for i := 0; ; i++ {
		tok, ok := s.peek(i)
		switch {
		case !ok:
			return false
		case tok.Kind == token.Newline:
			continue
		default:
			return tok.IsPunct("(")
		}
	}
}

// collect reads a parenthesized argument list off the front of the stream.
// The caller must have checked [stream.openParen].
//
// Returns false if the stream runs out before the list is closed; in that
// case every token read is in consumed.
//
// Line boundaries inside the list are dropped from the arguments; the token
// after one is given a leading space if it had none.
func (s *stream) collect() (inv invocation, ok bool) {
	depth := 0
	var group []token.Token
	sawNewline := false
	for {
		tok, more := s.next()
		if !more {
			return inv, false
		}
		inv.consumed = append(inv.consumed, tok)

		if tok.Kind == token.Newline {
			inv.newlines = append(inv.newlines, tok)
			sawNewline = true
			continue
		}
		if sawNewline && !tok.HasSpace() {
			tok.Space = " "
		}
		sawNewline = false

		switch {
		case tok.IsPunct("("):
			depth++
			if depth == 1 {
				continue
			}
		case tok.IsPunct(")"):
			depth--
			if depth == 0 {
				inv.groups = append(inv.groups, group)
				return inv, true
			}
		case tok.IsPunct(",") && depth == 1:
			inv.groups = append(inv.groups, group)
			inv.commas = append(inv.commas, tok)
			group = nil
			continue
		}
		group = append(group, tok)
	}
}
