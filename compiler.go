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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"runtime"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/macro"
	"github.com/bufbuild/macrocompile/preprocess"
	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

// Compiler preprocesses a batch of files.
//
// Each file is an independent compilation unit: it starts from a fresh macro
// table seeded from Options, and macros defined in one file are not visible
// in another. Units are processed concurrently.
type Compiler struct {
	// Locates the files to process. This field is the only required field.
	Resolver Resolver
	// The maximum parallelism to use when compiling. If unspecified or set to
	// a non-positive value, then min(runtime.NumCPU(), runtime.GOMAXPROCS(-1))
	// will be used.
	MaxParallelism int
	// Options for every unit.
	Options preprocess.Options
	// If not nil, a debug entry is logged for each unit processed.
	Logger *log.Logger
}

// Unit is the result of processing one file.
type Unit struct {
	// The path the file was requested by.
	Path string
	preprocess.Result
	// The error that stopped processing early, if any. It is also present in
	// the report.
	Err error
}

// Compile processes the given files, returning one [Unit] per file in the
// same order.
//
// The returned error is only for ctx being cancelled. A file that cannot be
// resolved or read gets a [Unit] with no text, whose Err is a [*FileError]
// that is also in its report.
func (c *Compiler) Compile(ctx context.Context, files ...string) ([]Unit, error) {
	if len(files) == 0 {
		return nil, nil
	}

	par := c.MaxParallelism
	if par <= 0 {
		par = min(runtime.NumCPU(), runtime.GOMAXPROCS(-1))
	}
	sem := semaphore.NewWeighted(int64(par))

	units := make([]Unit, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			units[i] = c.compile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

func (c *Compiler) compile(path string) Unit {
	text, err := c.read(path)
	if err != nil {
		fileErr := &FileError{Path: path, Err: err}
		r := new(report.Report)
		r.Error(fileErr)
		if c.Logger != nil {
			c.Logger.Debug().Str("file", path).Err(err).Msg("unreadable")
		}
		return Unit{
			Path: path,
			Result: preprocess.Result{
				Table:  new(macro.Table),
				Stats:  make(expand.Stats),
				Report: r,
			},
			Err: fileErr,
		}
	}

	start := time.Now()
	p := &preprocess.Preprocessor{Options: c.Options}
	result, err := p.Process(source.NewFile(path, text))
	unit := Unit{Path: path, Result: result, Err: err}

	if c.Logger != nil {
		errs, warnings := count(result.Report)
		c.Logger.Debug().
			Str("file", path).
			Dur("duration", time.Since(start)).
			Int("errors", errs).
			Int("warnings", warnings).
			Int("expansions", result.Stats.Total()).
			Msg("preprocessed")
	}
	return unit
}

// read resolves path and reads its text.
func (c *Compiler) read(path string) (string, error) {
	sr, err := c.Resolver.FindFileByPath(path)
	if err != nil {
		return "", err
	}
	if sr.Source == nil {
		return "", errors.New("resolver returned no source")
	}
	if closer, ok := sr.Source.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}
	text, err := io.ReadAll(sr.Source)
	if err != nil {
		return "", fmt.Errorf("reading: %w", err)
	}
	return string(text), nil
}

// TagUnreadableFile is the tag for a [FileError].
const TagUnreadableFile report.Tag = "unreadable-file"

// FileError is a file that could not be resolved or read, so no unit was
// preprocessed for it.
type FileError struct {
	Path string
	Err  error
}

var _ report.Diagnose = (*FileError)(nil)

// Error implements [error].
func (e *FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the resolver or read error.
func (e *FileError) Unwrap() error {
	return e.Err
}

// Diagnose implements [report.Diagnose].
func (e *FileError) Diagnose(d *report.Diagnostic) {
	d.Apply(
		TagUnreadableFile,
		report.Message("%v", e.Err),
		report.InFile(e.Path),
	)
	if errors.Is(e.Err, fs.ErrNotExist) {
		d.Apply(report.Helpf("check the resolver's import paths"))
	}
}

func count(r *report.Report) (errs, warnings int) {
	for d := range r.All() {
		switch d.Level() {
		case report.Error:
			errs++
		case report.Warning:
			warnings++
		}
	}
	return errs, warnings
}
