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

package report

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto converts this report into a structured Protobuf value.
//
// The result has a single "diagnostics" field holding one object per
// diagnostic, in report order. Serialize it with protojson to produce
// machine-readable output.
func (r *Report) ToProto() (*structpb.Struct, error) {
	diagnostics := make([]any, 0, r.Len())
	for d := range r.All() {
		entry := map[string]any{
			"level":   d.Level().String(),
			"message": d.Message(),
		}
		if d.tag != "" {
			entry["tag"] = string(d.tag)
		}
		if file := d.InFile(); file != "" {
			entry["file"] = file
		}
		if span := d.Primary(); !span.IsZero() {
			start, end := span.StartLoc(), span.EndLoc()
			entry["start"] = map[string]any{"line": start.Line, "column": start.Column, "offset": start.Offset}
			entry["end"] = map[string]any{"line": end.Line, "column": end.Column, "offset": end.Offset}
		}
		if notes := d.Notes(); len(notes) > 0 {
			entry["notes"] = toList(notes)
		}
		if help := d.Help(); len(help) > 0 {
			entry["help"] = toList(help)
		}
		diagnostics = append(diagnostics, entry)
	}

	return structpb.NewStruct(map[string]any{"diagnostics": diagnostics})
}

func toList(strs []string) []any {
	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}
