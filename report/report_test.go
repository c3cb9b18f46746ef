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

package report_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/bufbuild/macrocompile/report"
	"github.com/bufbuild/macrocompile/source"
)

type testError struct{ name string }

func (e *testError) Error() string { return "macro `" + e.name + "` redefined" }

func (e *testError) Diagnose(d *report.Diagnostic) {
	d.Apply(report.Tag("redefinition-conflict"))
}

func newReport() *report.Report {
	file := source.NewFile("test.h", "#define A 1\n#define A 2\n")

	r := new(report.Report)
	r.Error(&testError{name: "A"}).Apply(
		report.Snippet(file.Span(20, 21), "redefined here"),
		report.Notef("previous definition was `%s`", "1"),
	)
	r.Warnf("undefining `B`, which is not defined").Apply(
		report.InFile("test.h"),
	)
	r.Remarkf("nothing to see here")
	return r
}

func TestRenderCompact(t *testing.T) {
	t.Parallel()

	text, errs, warns := report.Renderer{Compact: true}.RenderString(newReport())
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, warns)
	assert.Equal(t,
		"error: test.h:2:9: macro `A` redefined\n"+
			"warning: test.h: undefining `B`, which is not defined\n",
		text)

	text, errs, warns = report.Renderer{Compact: true, WarningsAreErrors: true, ShowRemarks: true}.RenderString(newReport())
	assert.Equal(t, 2, errs)
	assert.Equal(t, 0, warns)
	assert.Contains(t, text, "error: test.h: undefining")
	assert.Contains(t, text, "remark: nothing to see here")
}

func TestRenderSnippet(t *testing.T) {
	t.Parallel()

	r := newReport()
	text := report.Renderer{}.Diagnostic(&r.Diagnostics[0])
	assert.Equal(t,
		"error: macro `A` redefined [redefinition-conflict]\n"+
			" --> test.h:2:9\n"+
			"  |\n"+
			"2 | #define A 2\n"+
			"  |         ^ redefined here\n"+
			"  = note: previous definition was `1`",
		text)

	full, _, _ := report.Renderer{}.RenderString(r)
	assert.Contains(t, full, "encountered 1 error and 1 warning\n")
}

func TestDiagnosticAccessors(t *testing.T) {
	t.Parallel()

	r := newReport()
	require.Equal(t, 3, r.Len())
	assert.True(t, r.HasErrors())

	d := &r.Diagnostics[0]
	assert.Equal(t, report.Error, d.Level())
	assert.True(t, d.Is("redefinition-conflict"))
	assert.Equal(t, "test.h:2:9", d.Primary().String())
	assert.Equal(t, "test.h", d.InFile())
	assert.Equal(t, []string{"previous definition was `1`"}, d.Notes())
	assert.Empty(t, d.Help())

	var target *testError
	assert.True(t, errors.As(d.Err(), &target))
	assert.Equal(t, "A", target.name)

	var tagged int
	for range r.Tagged("redefinition-conflict") {
		tagged++
	}
	assert.Equal(t, 1, tagged)
}

func TestToProto(t *testing.T) {
	t.Parallel()

	pb, err := newReport().ToProto()
	require.NoError(t, err)

	list := pb.GetFields()["diagnostics"].GetListValue().GetValues()
	require.Len(t, list, 3)

	first := list[0].GetStructValue().GetFields()
	assert.Equal(t, "error", first["level"].GetStringValue())
	assert.Equal(t, "redefinition-conflict", first["tag"].GetStringValue())
	assert.Equal(t, "test.h", first["file"].GetStringValue())
	assert.InDelta(t, 2, first["start"].GetStructValue().GetFields()["line"].GetNumberValue(), 0)
	notes := first["notes"].GetListValue().GetValues()
	require.Len(t, notes, 1)
	assert.Equal(t, "previous definition was `1`", notes[0].GetStringValue())
	assert.NotContains(t, first, "help")

	_, err = protojson.Marshal(pb)
	require.NoError(t, err)
}

func TestAsError(t *testing.T) {
	t.Parallel()

	err := &report.AsError{Report: newReport()}
	assert.Contains(t, err.Error(), "error: test.h:2:9: macro `A` redefined")
}
