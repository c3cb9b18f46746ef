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

// Command macrocompile expands macros and resolves conditional compilation
// in C-family source files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phuslu/log"
	"github.com/urfave/cli/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bufbuild/macrocompile"
	"github.com/bufbuild/macrocompile/expand"
	"github.com/bufbuild/macrocompile/report"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "macrocompile",
		Usage:     "expand macros and resolve conditional compilation",
		ArgsUsage: "<file>...",
		Writer:    stdout,
		ErrWriter: stderr,
		// Function-like defines such as -D 'MAX(a,b)=...' contain commas.
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "define",
				Aliases: []string{"D"},
				Usage:   "define `NAME[=VALUE]` before processing; VALUE defaults to 1",
			},
			&cli.StringSliceFlag{
				Name:    "undefine",
				Aliases: []string{"U"},
				Usage:   "remove `NAME` from the predefined macros",
			},
			&cli.StringSliceFlag{
				Name:  "feature",
				Usage: "define the feature flag `NAME` to 1",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "never expand the macro `NAME`",
			},
			&cli.StringSliceFlag{
				Name:    "include",
				Aliases: []string{"I"},
				Usage:   "search `DIR` for input files",
			},
			&cli.PathFlag{
				Name:  "config",
				Usage: "read options from a YAML or TOML `FILE`",
			},
			&cli.IntFlag{
				Name:  "passes",
				Value: 1,
				Usage: "expand each run of lines up to `N` times, until it stops changing",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Value: expand.DefaultMaxDepth,
				Usage: "the deepest nesting of macro expansions allowed",
			},
			&cli.BoolFlag{
				Name:  "preserve-lines",
				Usage: "keep output line numbers aligned with the input",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "process up to `N` files at once; defaults to the number of CPUs",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "diagnostic format: text or json",
			},
			&cli.PathFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the expanded text to `FILE` instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "list-macros",
				Usage: "print the macros defined at the end of each file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log verbosity: trace, debug, info, warn or error",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no input files", 2)
	}

	cfg, err := loadConfig(c.Path("config"), os.ReadFile)
	if err != nil {
		return cli.Exit(err, 2)
	}
	cfg.merge(c)
	if err := cfg.validate(); err != nil {
		return cli.Exit(fmt.Errorf("invalid options: %w", err), 2)
	}

	logger := &log.Logger{
		Level:  log.ParseLevel(cfg.LogLevel),
		Writer: &log.ConsoleWriter{Writer: c.App.ErrWriter},
	}
	compiler := macrocompile.Compiler{
		Resolver:       &macrocompile.SourceResolver{ImportPaths: cfg.Include},
		MaxParallelism: c.Int("jobs"),
		Options:        cfg.options(),
		Logger:         logger,
	}
	logger.Debug().Strs("files", c.Args().Slice()).Int("passes", cfg.Passes).Msg("starting")

	units, err := compiler.Compile(c.Context, c.Args().Slice()...)
	if err != nil {
		return cli.Exit(err, 1)
	}

	out := c.App.Writer
	if path := c.Path("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer func() {
			_ = file.Close()
		}()
		out = file
	}

	failed := false
	for _, unit := range units {
		if _, err := io.WriteString(out, unit.Text); err != nil {
			return err
		}
		if c.Bool("list-macros") {
			for def := range unit.Table.All() {
				if _, err := fmt.Fprintln(out, def); err != nil {
					return err
				}
			}
		}
		if err := writeDiagnostics(c.App.ErrWriter, cfg.Format, unit); err != nil {
			return err
		}
		if unit.Err != nil || unit.Report.HasErrors() {
			failed = true
		}
	}

	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

// writeDiagnostics prints the diagnostics of one unit in the given format.
func writeDiagnostics(w io.Writer, format string, unit macrocompile.Unit) error {
	switch format {
	case "json":
		msg, err := unit.Report.ToProto()
		if err != nil {
			return err
		}
		msg.Fields["file"] = structpb.NewStringValue(unit.Path)
		data, err := protojson.Marshal(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "text":
		_, _, err := report.Renderer{}.Render(unit.Report, w)
		return err
	default:
		return errors.New("unknown diagnostic format " + format)
	}
}
