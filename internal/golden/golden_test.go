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

package golden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	var config struct {
		Passes   int               `yaml:"passes"`
		Features []string          `yaml:"features"`
		Defines  map[string]string `yaml:"defines"`
	}
	text := "//% passes: 3\n#define X 1\n  //% features: [A, B]\n//% defines: {N: \"2\"}\nX\n"
	require.NoError(t, Config(text, &config))
	assert.Equal(t, 3, config.Passes)
	assert.Equal(t, []string{"A", "B"}, config.Features)
	assert.Equal(t, map[string]string{"N": "2"}, config.Defines)

	config.Passes = 7
	require.NoError(t, Config("X\n", &config))
	assert.Equal(t, 7, config.Passes)

	assert.Error(t, Config("//% passes: [\n", &config))
}

func TestDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Diff("a\nb\n", "a\nb\n"))
	diff := Diff("a\nc\n", "a\nb\n")
	assert.Contains(t, diff, "-b")
	assert.Contains(t, diff, "+c")
}
