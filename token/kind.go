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

import "fmt"

const (
	Unrecognized Kind = iota // Unrecognized garbage in the input, such as a stray backslash.

	Ident       // An identifier or keyword.
	Punct       // An operator or punctuator, e.g. ## or <<=.
	Number      // A preprocessing number, e.g. 42, 0x1f, 1.5e+3f.
	String      // A string literal, including any encoding prefix.
	Char        // A character literal, including any encoding prefix.
	Newline     // The end of a logical source line.
	Placemarker // An empty paste operand. Never appears in expansion output.
)

// Kind identifies what kind of token a particular [Token] is.
type Kind int8

// IsLiteral returns whether this is a number, string or character literal.
func (k Kind) IsLiteral() bool {
	return k == Number || k == String || k == Char
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case Unrecognized:
		return "Unrecognized"
	case Ident:
		return "Ident"
	case Punct:
		return "Punct"
	case Number:
		return "Number"
	case String:
		return "String"
	case Char:
		return "Char"
	case Newline:
		return "Newline"
	case Placemarker:
		return "Placemarker"
	default:
		return fmt.Sprintf("token.Kind(%d)", int(k))
	}
}

const (
	Source      Origin = iota // Read directly from the input.
	Replacement               // Copied out of a macro's replacement list.
	Argument                  // Produced by fully expanding a macro argument.
	Synthesized               // Created by ## or #.
)

// Origin records where a token came from during expansion.
//
// Tokens with origin [Argument] have already been through a complete
// expansion of their own; when the surrounding replacement is rescanned they
// are only reconsidered if they could begin a function-like invocation with
// tokens that were not available to that earlier expansion.
type Origin int8

// String implements [fmt.Stringer].
func (o Origin) String() string {
	switch o {
	case Source:
		return "Source"
	case Replacement:
		return "Replacement"
	case Argument:
		return "Argument"
	case Synthesized:
		return "Synthesized"
	default:
		return fmt.Sprintf("token.Origin(%d)", int(o))
	}
}
