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

/*
Package report provides the diagnostics framework used throughout the
preprocessor: diagnostic construction, ordering and rendering.

Diagnostics are collected into a [Report], an ordered builder over a slice of
[Diagnostic]s. Each Diagnostic carries a Go error plus metadata for rendering,
such as source spans, notes and help text, and a machine-readable [Tag].

Reports can be rendered using a [Renderer], either in a compact one-line form
that imitates the Go and C compilers, or with annotated source snippets.
[Report.ToProto] produces a structured value suitable for JSON output.

# Defining Diagnostics

Define a Go error type and make it implement [Diagnose]. Callers that use
this module as a library can then type assert [Diagnostic.Err] (or use
errors.As) to find out what went wrong, and every place that emits the error
produces the same output. For one-off diagnostics, [Report.Errorf] and
friends are fine.

Messages are lowercase, do not end in punctuation, and describe the problem
rather than the tool: "macro `FOO` redefined", not "I found a redefinition".
The first snippet added to a diagnostic is its primary span and should point
precisely at the offending tokens.
*/
package report
