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

package macrocompile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/macrocompile/cond"
	"github.com/bufbuild/macrocompile/preprocess"
	"github.com/bufbuild/macrocompile/report"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.h": "#define LOCAL 1\nLOCAL SHARED\n",
		"b.h": "LOCAL SHARED\n",
		"c.h": "#if SHARED > 1\nbig\n#endif\n",
	}
	compiler := Compiler{
		Resolver:       &SourceResolver{Accessor: SourceAccessorFromMap(files)},
		MaxParallelism: 2,
		Options:        preprocess.Options{Defines: map[string]string{"SHARED": "2"}},
	}

	units, err := compiler.Compile(context.Background(), "a.h", "b.h", "c.h")
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, "a.h", units[0].Path)
	assert.Equal(t, "1 2\n", units[0].Text)
	assert.Equal(t, "LOCAL 2\n", units[1].Text, "macros must not leak between units")
	assert.Equal(t, "big\n", units[2].Text)
	for _, unit := range units {
		assert.NoError(t, unit.Err)
		assert.False(t, unit.Report.HasErrors())
	}
	assert.NotSame(t, units[0].Table, units[1].Table)
}

func TestCompileNoFiles(t *testing.T) {
	t.Parallel()

	units, err := (&Compiler{}).Compile(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, units)
}

func TestCompileFatal(t *testing.T) {
	t.Parallel()

	compiler := Compiler{
		Resolver: &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{
			"bad.h":  "#if 1\nx\n",
			"good.h": "y\n",
		})},
	}
	units, err := compiler.Compile(context.Background(), "bad.h", "good.h")
	require.NoError(t, err)

	var unbalanced *cond.UnbalancedError
	assert.ErrorAs(t, units[0].Err, &unbalanced)
	assert.Equal(t, "x\n", units[0].Text)
	assert.NoError(t, units[1].Err)
	assert.Equal(t, "y\n", units[1].Text)
}

func TestCompileNotFound(t *testing.T) {
	t.Parallel()

	compiler := Compiler{Resolver: &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{
		"a.h": "#define X 1\nX\n",
	})}}
	units, err := compiler.Compile(context.Background(), "missing.h", "a.h")
	require.NoError(t, err)
	require.Len(t, units, 2)

	missing := units[0]
	var fileErr *FileError
	require.ErrorAs(t, missing.Err, &fileErr)
	assert.Equal(t, "missing.h", fileErr.Path)
	assert.Equal(t, "missing.h: open missing.h: file does not exist", fileErr.Error())
	assert.ErrorIs(t, missing.Err, fs.ErrNotExist)
	assert.Empty(t, missing.Text)
	assert.Zero(t, missing.Table.Len())

	text, _, _ := report.Renderer{Compact: true}.RenderString(missing.Report)
	assert.Equal(t, "error: missing.h: open missing.h: file does not exist\n", text)
	diags := slices.Collect(missing.Report.Tagged(TagUnreadableFile))
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"check the resolver's import paths"}, diags[0].Help())

	assert.NoError(t, units[1].Err)
	assert.Equal(t, "1\n", units[1].Text)
}

func TestCompileCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	compiler := Compiler{
		Resolver: ResolverFunc(func(string) (SearchResult, error) {
			return SearchResult{Source: strings.NewReader("x\n")}, nil
		}),
	}
	_, err := compiler.Compile(ctx, "a.h")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	compiler := Compiler{
		Resolver: &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{
			"a.h": "#define X 1\nX X\n#warning hm\n",
		})},
		Logger: &log.Logger{Level: log.DebugLevel, Writer: &log.IOWriter{Writer: &buf}},
	}
	_, err := compiler.Compile(context.Background(), "a.h")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"file":"a.h"`)
	assert.Contains(t, out, `"warnings":1`)
	assert.Contains(t, out, `"expansions":2`)
	assert.Contains(t, out, "preprocessed")
}

func TestCompositeResolver(t *testing.T) {
	t.Parallel()

	first := &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{"a.h": "first"})}
	second := &SourceResolver{Accessor: SourceAccessorFromMap(map[string]string{"a.h": "second", "b.h": "b"})}
	resolver := CompositeResolver{first, second}

	read := func(path string) string {
		sr, err := resolver.FindFileByPath(path)
		require.NoError(t, err)
		text, err := io.ReadAll(sr.Source)
		require.NoError(t, err)
		return string(text)
	}
	assert.Equal(t, "first", read("a.h"))
	assert.Equal(t, "b", read("b.h"))

	_, err := resolver.FindFileByPath("c.h")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = CompositeResolver(nil).FindFileByPath("c.h")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	boom := errors.New("boom")
	_, err = CompositeResolver{
		ResolverFunc(func(string) (SearchResult, error) { return SearchResult{}, boom }),
		first,
	}.FindFileByPath("c.h")
	assert.ErrorIs(t, err, boom)
}

func TestSourceResolverImportPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "a.h"), []byte("#define A 1\nA\n"), 0o600))

	compiler := Compiler{
		Resolver: &SourceResolver{ImportPaths: []string{filepath.Join(dir, "missing"), filepath.Join(dir, "include")}},
	}
	units, err := compiler.Compile(context.Background(), "a.h")
	require.NoError(t, err)
	assert.Equal(t, "1\n", units[0].Text)

	units, err = compiler.Compile(context.Background(), "b.h")
	require.NoError(t, err)
	assert.ErrorIs(t, units[0].Err, fs.ErrNotExist)
	assert.True(t, units[0].Report.HasErrors())
}
