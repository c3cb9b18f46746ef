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
	"iter"
	"slices"
	"strings"
)

// Paint is a painted set: the names of the macros whose expansion produced a
// token. A token is never expanded by a macro whose name it is painted with.
//
// Paint is immutable; every operation that adds names returns a new set, so
// sets may be freely shared between tokens. The zero value is the empty set.
type Paint struct {
	names []string // Sorted, no duplicates.
}

// NewPaint returns a set containing the given names.
func NewPaint(names ...string) Paint {
	var p Paint
	for _, name := range names {
		p = p.With(name)
	}
	return p
}

// Len returns the number of names in this set.
func (p Paint) Len() int {
	return len(p.names)
}

// Has returns whether name is in this set.
func (p Paint) Has(name string) bool {
	_, found := slices.BinarySearch(p.names, name)
	return found
}

// With returns a set containing every name in p plus name.
func (p Paint) With(name string) Paint {
	idx, found := slices.BinarySearch(p.names, name)
	if found {
		return p
	}
	return Paint{names: slices.Insert(slices.Clip(p.names), idx, name)}
}

// Union returns a set containing every name in either p or q.
func (p Paint) Union(q Paint) Paint {
	switch {
	case len(q.names) == 0:
		return p
	case len(p.names) == 0:
		return q
	}

	out := make([]string, 0, len(p.names)+len(q.names))
	i, j := 0, 0
	for i < len(p.names) && j < len(q.names) {
		switch strings.Compare(p.names[i], q.names[j]) {
		case -1:
			out = append(out, p.names[i])
			i++
		case 1:
			out = append(out, q.names[j])
			j++
		default:
			out = append(out, p.names[i])
			i++
			j++
		}
	}
	out = append(out, p.names[i:]...)
	out = append(out, q.names[j:]...)
	return Paint{names: out}
}

// Names returns an iterator over the names in this set, in sorted order.
func (p Paint) Names() iter.Seq[string] {
	return slices.Values(p.names)
}

// String implements [fmt.Stringer].
func (p Paint) String() string {
	return "{" + strings.Join(p.names, ", ") + "}"
}
