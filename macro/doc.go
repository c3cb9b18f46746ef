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

// Package macro defines macro definitions and the table that holds them for
// one compilation unit.
//
// The [Table] is the single source of truth for define/undefine/redefinition
// rules: a definition identical to the existing one is accepted silently,
// a different one is rejected with a [RedefinitionError] and the original is
// kept.
package macro
