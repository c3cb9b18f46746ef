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
	"slices"
	"strings"

	"github.com/bufbuild/macrocompile/source"
	"github.com/bufbuild/macrocompile/token"
)

const (
	// VAArgs names the variadic arguments inside a variadic macro's
	// replacement list.
	VAArgs = "__VA_ARGS__"
	// VAOpt introduces a replacement-list fragment that only appears when
	// the variadic arguments are non-empty.
	VAOpt = "__VA_OPT__"
)

const (
	ObjectLike Kind = iota
	FunctionLike
)

// Kind distinguishes object-like from function-like macros.
type Kind int8

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if k == FunctionLike {
		return "function-like"
	}
	return "object-like"
}

// Definition is a single macro definition.
type Definition struct {
	Name     string
	Kind     Kind
	Params   []string // Named parameters; does not include "..." for variadics.
	Variadic bool
	Body     []token.Token
	// Where the macro was defined. This is the span of its name.
	Span source.Span

	// refs[i] is the parameter index Body[i] refers to, or -1. The
	// variadic pack has index len(Params).
	refs []int
}

// NewObject builds an object-like definition.
func NewObject(name string, body []token.Token) *Definition {
	def := &Definition{Name: name, Kind: ObjectLike, Body: body}
	def.index()
	return def
}

// NewFunction builds a function-like definition.
func NewFunction(name string, params []string, variadic bool, body []token.Token) *Definition {
	def := &Definition{Name: name, Kind: FunctionLike, Params: params, Variadic: variadic, Body: body}
	def.index()
	return def
}

// index resolves parameter references in the body. It is only called while
// building a definition, before it is shared.
func (d *Definition) index() {
	d.refs = make([]int, len(d.Body))
	for i, tok := range d.Body {
		d.refs[i] = d.ref(tok)
	}
}

func (d *Definition) ref(tok token.Token) int {
	if tok.Kind != token.Ident || d.Kind != FunctionLike {
		return -1
	}
	if n, ok := d.Param(tok.Text); ok {
		return n
	}
	return -1
}

// IsFunctionLike returns whether this is a function-like macro.
func (d *Definition) IsFunctionLike() bool {
	return d.Kind == FunctionLike
}

// Arity returns the number of named parameters.
func (d *Definition) Arity() int {
	return len(d.Params)
}

// Param returns the position of the named parameter. __VA_ARGS__ is at
// position Arity() in a variadic macro.
func (d *Definition) Param(name string) (int, bool) {
	if d.Variadic && name == VAArgs {
		return len(d.Params), true
	}
	idx := slices.Index(d.Params, name)
	return idx, idx >= 0
}

// Ref returns the parameter position that Body[i] refers to, or -1 if it is
// not a parameter.
//
// Definitions not built by [Parse], [NewObject] or [NewFunction] have no
// index, and are resolved on every call without modifying d.
func (d *Definition) Ref(i int) int {
	if d.refs == nil {
		return d.ref(d.Body[i])
	}
	return d.refs[i]
}

// Equivalent returns whether d and other define the same macro, in the sense
// used for redefinition: same kind, parameters and replacement list.
func (d *Definition) Equivalent(other *Definition) bool {
	return d.Name == other.Name &&
		d.Kind == other.Kind &&
		d.Variadic == other.Variadic &&
		slices.Equal(d.Params, other.Params) &&
		token.Equivalent(d.Body, other.Body)
}

// String renders this definition as a #define directive.
func (d *Definition) String() string {
	var out strings.Builder
	out.WriteString("#define ")
	out.WriteString(d.Name)
	if d.IsFunctionLike() {
		params := slices.Clone(d.Params)
		if d.Variadic {
			params = append(params, "...")
		}
		out.WriteString("(")
		out.WriteString(strings.Join(params, ", "))
		out.WriteString(")")
	}
	if body := d.Replacement(); body != "" {
		out.WriteString(" ")
		out.WriteString(body)
	}
	return out.String()
}

// Replacement returns the replacement list as text, normalizing whitespace
// to single spaces.
func (d *Definition) Replacement() string {
	var out strings.Builder
	for i, tok := range d.Body {
		if i > 0 && tok.HasSpace() {
			out.WriteByte(' ')
		}
		out.WriteString(tok.Text)
	}
	return out.String()
}
