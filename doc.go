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

// Package macrocompile is the entry point for preprocessing C-family source
// files: expanding macros and resolving conditional compilation.
//
// The work for a single file is done by [preprocess.Preprocessor]. This
// package adds a [Compiler] that locates files through a [Resolver] and
// processes many of them at once, each as an independent compilation unit
// with its own macro table.
//
// # Resolvers
//
// A Resolver is how the compiler locates the files to process. The simplest
// is a [SourceResolver], which reads them from disk (optionally searching a
// list of include paths), or from an in-memory map via
// [SourceAccessorFromMap]. Resolvers compose with [CompositeResolver].
package macrocompile
