// Copyright 2025 AdMesh
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSalesParams(t *testing.T) {
	params, err := BuildSalesParams("  camping gear  ")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"brief": "camping gear"}, params)

	_, err = BuildSalesParams("   ")
	assert.ErrorIs(t, err, ErrEmptyBrief)
}

func TestBuildSignalsParams(t *testing.T) {
	params, err := BuildSignalsParams("auto intenders")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"signal_spec": "auto intenders"}, params)

	_, err = BuildSignalsParams("")
	assert.ErrorIs(t, err, ErrEmptyBrief)
}

func TestDefaultSalesPromptPlaceholders(t *testing.T) {
	prompt := DefaultSalesPrompt()
	assert.Contains(t, prompt, "{brief}")
	assert.Contains(t, prompt, "{products}")
	assert.Contains(t, prompt, "relevance_score")
}
