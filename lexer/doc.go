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

// Package lexer converts C-family source text into a stream of
// [token.Token]s.
//
// The lexer works at the preprocessing-token level: it knows about
// identifiers, preprocessing numbers, string and character literals,
// punctuators and line boundaries, and nothing about keywords or types.
// Comments are removed and count as whitespace.
package lexer
