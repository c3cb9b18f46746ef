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

// Package golden runs table-driven tests whose table lives in a directory of
// test files, with the expected outputs stored next to each one.
package golden

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// ConfigPrefix starts a line of per-test configuration inside a test file.
const ConfigPrefix = "//%"

// Corpus is a directory of golden tests.
type Corpus struct {
	// The test data directory, relative to the file that calls [Corpus.Run].
	Root string
	// An environment variable holding a glob of tests to regenerate instead
	// of checking.
	Refresh string
	// File extensions (without a dot) of the files that are test cases.
	Extensions []string
	// The outputs each test produces. For a test "foo.h" and an output with
	// extension "out", the expected value is in "foo.h.out". A missing file
	// means the output is expected to be empty.
	Outputs []Output
}

// Output is one output of a golden test.
type Output struct {
	Extension string
	// Compares the actual output with the expected one. If nil, they must
	// match exactly.
	Compare Compare
}

// Compare compares got with want, returning a description of the difference
// or "" if they match.
type Compare func(got, want string) string

// Run runs test on every file in the corpus. test must fill in outputs,
// which has one element per [Output].
func (c Corpus) Run(t *testing.T, test func(t *testing.T, path, text string, outputs []string)) {
	t.Helper()
	dir := callerDir(0)
	root := filepath.Join(dir, c.Root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if slices.Contains(c.Extensions, strings.TrimPrefix(filepath.Ext(path), ".")) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("golden: walking %q: %v", root, err)
	}
	if len(paths) == 0 {
		t.Fatalf("golden: no test files in %q", root)
	}

	var refresh string
	if c.Refresh != "" {
		refresh = os.Getenv(c.Refresh)
		if refresh != "" && !doublestar.ValidatePattern(refresh) {
			t.Fatalf("golden: %s=%q is not a valid glob", c.Refresh, refresh)
		}
	}
	if refresh != "" {
		t.Logf("golden: regenerating outputs matching %s=%s", c.Refresh, refresh)
	}

	for _, path := range paths {
		name, _ := filepath.Rel(root, path)
		name = filepath.ToSlash(name)
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			input, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("golden: reading %q: %v", path, err)
			}
			outputs := make([]string, len(c.Outputs))
			test(t, name, string(input), outputs)

			regenerate := refresh != "" && doublestar.MatchUnvalidated(refresh, name)
			for i, output := range c.Outputs {
				c.check(t, fmt.Sprint(path, ".", output.Extension), output, outputs[i], regenerate)
			}
		})
	}
}

func (c Corpus) check(t *testing.T, path string, output Output, got string, regenerate bool) {
	t.Helper()
	if regenerate {
		var err error
		if got == "" {
			err = os.Remove(path)
			if errors.Is(err, os.ErrNotExist) {
				err = nil
			}
		} else {
			err = os.WriteFile(path, []byte(got), 0o600)
		}
		if err != nil {
			t.Errorf("golden: updating %q: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Errorf("golden: reading %q: %v", path, err)
		return
	}
	compare := output.Compare
	if compare == nil {
		compare = Diff
	}
	if diff := compare(got, string(want)); diff != "" {
		t.Errorf("golden: %s does not match:\n%s", filepath.Base(path), diff)
	}
}

// Diff is the default [Compare]: an exact match, with a unified diff on
// mismatch.
func Diff(got, want string) string {
	if got == want {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// Config decodes the YAML written on ConfigPrefix lines of a test file into
// v. A file without such lines leaves v unchanged.
func Config(text string, v any) error {
	var yamlText strings.Builder
	for line := range strings.Lines(text) {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), ConfigPrefix)
		if !ok {
			continue
		}
		yamlText.WriteString(strings.TrimPrefix(rest, " "))
		yamlText.WriteByte('\n')
	}
	if yamlText.Len() == 0 {
		return nil
	}
	return yaml.Unmarshal([]byte(yamlText.String()), v)
}

func callerDir(skip int) string {
	_, file, _, ok := runtime.Caller(skip + 2)
	if !ok {
		panic("golden: could not determine the calling test's directory")
	}
	return filepath.Dir(file)
}
