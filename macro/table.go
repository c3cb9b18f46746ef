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
	"iter"

	"github.com/tidwall/btree"
)

// Table maps macro names to their definitions.
//
// Entries are kept ordered by name so that listings are deterministic. The
// zero value is an empty table, ready to use. A Table is not safe for
// concurrent use.
type Table struct {
	tree *btree.Map[string, *Definition]
}

// NewTable returns a table containing the given definitions. Conflicting
// definitions are resolved in favor of the first.
func NewTable(defs ...*Definition) *Table {
	t := new(Table)
	for _, def := range defs {
		_ = t.Define(def)
	}
	return t
}

func (t *Table) init() *btree.Map[string, *Definition] {
	if t.tree == nil {
		t.tree = new(btree.Map[string, *Definition])
	}
	return t.tree
}

// Define adds def to the table.
//
// Redefining a macro with an equivalent definition is a no-op. Redefining it
// with a different one leaves the table unchanged and returns a
// [*RedefinitionError].
func (t *Table) Define(def *Definition) error {
	tree := t.init()
	if prev, ok := tree.Get(def.Name); ok {
		if prev.Equivalent(def) {
			return nil
		}
		return &RedefinitionError{Prev: prev, New: def}
	}
	tree.Set(def.Name, def)
	return nil
}

// Undefine removes name from the table, returning the definition it had.
func (t *Table) Undefine(name string) (*Definition, bool) {
	if t.tree == nil {
		return nil, false
	}
	return t.tree.Delete(name)
}

// Lookup returns the definition for name.
func (t *Table) Lookup(name string) (*Definition, bool) {
	if t.tree == nil {
		return nil, false
	}
	return t.tree.Get(name)
}

// IsDefined returns whether name is a defined macro.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Len returns the number of macros in the table.
func (t *Table) Len() int {
	if t.tree == nil {
		return 0
	}
	return t.tree.Len()
}

// All returns an iterator over every definition, ordered by name.
func (t *Table) All() iter.Seq[*Definition] {
	return func(yield func(*Definition) bool) {
		if t.tree == nil {
			return
		}
		t.tree.Scan(func(_ string, def *Definition) bool {
			return yield(def)
		})
	}
}

// Clone returns an independent copy of this table. Definitions themselves
// are immutable and are shared.
func (t *Table) Clone() *Table {
	if t.tree == nil {
		return new(Table)
	}
	return &Table{tree: t.tree.Copy()}
}
