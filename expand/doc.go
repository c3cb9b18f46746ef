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

// Package expand implements macro expansion over token sequences.
//
// Expansion is hygienic in the classic "painted set" sense: every token
// produced by replacing macro M is painted with M, and a token is never
// replaced by a macro it is painted with. This makes self-referential and
// mutually recursive macros terminate without any special casing.
//
// A single call to [Expander.Expand] rescans each replacement once, in
// place, as C requires. Some idioms (for example, DEFER and OBSTRUCT tricks)
// depend on the caller expanding the output again; [Expander.ExpandPasses]
// does that until the output stops changing.
package expand
