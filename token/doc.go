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

// Package token defines the lexical tokens the preprocessor operates on.
//
// A [Token] is a value type: it carries its own spelling, the whitespace that
// preceded it, the span it came from and its expansion history (its painted
// set and origin). Expanding macros never mutates tokens in place; it copies
// them and stamps the copies.
package token
