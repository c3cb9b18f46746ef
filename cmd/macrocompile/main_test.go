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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runApp runs the command with args, returning its stdout, stderr and
// exit code.
func runApp(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errs bytes.Buffer
	app := newApp(&out, &errs)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"macrocompile"}, args...))
	if err != nil {
		var exit cli.ExitCoder
		require.ErrorAs(t, err, &exit)
		code = exit.ExitCode()
	}
	return out.String(), errs.String(), code
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.h", "#define X 1\nX Y MAX(3, 4)\n#ifdef FAST\nfast\n#endif\n")

	stdout, stderr, code := runApp(t, "-D", "Y=2", "-D", "MAX(a,b)=((a) > (b) ? (a) : (b))", "--feature", "FAST", a)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "1 2 ((3) > (4) ? (3) : (4))\nfast\n", stdout)
	assert.Empty(t, stderr)

	stdout, _, code = runApp(t, "--feature", "FAST", "-U", "FAST", a)
	assert.Equal(t, 0, code)
	assert.Equal(t, "1 Y MAX(3, 4)\n", stdout)
}

func TestRunOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.h", "#define X 1\nX\n")
	b := writeFile(t, dir, "b.h", "X\n")
	out := filepath.Join(dir, "out.txt")

	stdout, _, code := runApp(t, "--output", out, "--list-macros", a, b)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "1\n#define X 1\nX\n", string(data))
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.h", "#error boom\n#warning careful\n")

	_, stderr, code := runApp(t, a)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error: boom [user-error]")
	assert.Contains(t, stderr, "warning: careful [user-warning]")
	assert.Contains(t, stderr, "encountered 1 error and 1 warning")

	_, _, code = runApp(t)
	assert.Equal(t, 2, code)

	_, _, code = runApp(t, filepath.Join(dir, "missing.h"))
	assert.Equal(t, 1, code)
}

func TestRunJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.h", "#warning careful\n")

	_, stderr, code := runApp(t, "--format", "json", a)
	assert.Equal(t, 0, code)

	var got struct {
		File        string `json:"file"`
		Diagnostics []struct {
			Level   string `json:"level"`
			Message string `json:"message"`
			Tag     string `json:"tag"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stderr)), &got))
	assert.Equal(t, a, got.File)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "warning", got.Diagnostics[0].Level)
	assert.Equal(t, "careful", got.Diagnostics[0].Message)
	assert.Equal(t, "user-warning", got.Diagnostics[0].Tag)
}

func TestRunConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.h", "#define EMPTY()\n#define DEFER(id) id EMPTY()\n#define A() LEVEL\nDEFER(A)() NAME\n")
	yamlConfig := writeFile(t, dir, "config.yaml", "defines:\n  LEVEL: \"3\"\nfeatures: [NAME]\npasses: 2\n")
	tomlConfig := writeFile(t, dir, "config.toml", "passes = 2\nfeatures = [\"NAME\"]\n\n[defines]\nLEVEL = \"4\"\n")

	stdout, stderr, code := runApp(t, "--config", yamlConfig, a)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "3 1\n", stdout)

	stdout, stderr, code = runApp(t, "--config", tomlConfig, a)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "4 1\n", stdout)

	stdout, _, code = runApp(t, "--config", tomlConfig, "--passes", "1", a)
	assert.Equal(t, 0, code)
	assert.Equal(t, "A () 1\n", stdout)
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.h", "x\n")

	bad := writeFile(t, dir, "bad.yaml", "passes: -1\n")
	_, _, code := runApp(t, "--config", bad, a)
	assert.Equal(t, 2, code)

	_, _, code = runApp(t, "--format", "xml", a)
	assert.Equal(t, 2, code)

	malformed := writeFile(t, dir, "bad.toml", "passes = [\n")
	_, _, code = runApp(t, "--config", malformed, a)
	assert.Equal(t, 2, code)
}

func TestMacroName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MAX", macroName("MAX(a, b)"))
	assert.Equal(t, "X", macroName(" X "))
}
