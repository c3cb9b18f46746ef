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

// Package preprocess drives macro expansion and conditional compilation over
// a whole file.
//
// A [Preprocessor] reads a file line by line. Lines beginning with # are
// directives: they update the macro table, open and close conditional
// regions, or are passed through to the output. Runs of ordinary lines in
// active regions are expanded together, so an invocation's arguments may
// span several lines.
//
// Problems are reported to a [report.Report]. Most are recoverable. An
// unbalanced conditional or runaway expansion stops processing, and
// [Preprocessor.Process] returns the error along with whatever output was
// produced so far.
package preprocess
