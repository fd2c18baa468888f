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

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestChooseStrategyCascade pins the rule order: each case is constructed
// to match exactly one rule and the rules above it must not fire.
func TestChooseStrategyCascade(t *testing.T) {
	tests := []struct {
		name      string
		brief     string
		strategy  Strategy
		expansion bool
	}{
		// Rule 1: boolean operators / quoting
		{"boolean AND", `"Acme Corp" AND promo`, StrategyFTS, false},
		{"boolean OR", "running OR cycling", StrategyFTS, false},
		{"quoted phrase", `"organic snacks"`, StrategyFTS, false},

		// Rule 2: technical identifier
		{"sku with digits", "SKU-2024-0117", StrategyFTS, false},
		{"deal id", "deal_88213_ctv", StrategyFTS, false},

		// Rule 3: capitalized brand names
		{"two-word brand", "Acme Motors", StrategyFTS, false},
		{"three-word brand", "Blue Ridge Outfitters", StrategyFTS, false},

		// Rule 4: intent keywords
		{"intent keyword", "users interested in camping", StrategyRAG, true},
		{"affinity keyword", "outdoor affinity audiences", StrategyRAG, true},

		// Rule 5: conceptual keywords
		{"conceptual pair", "luxury sustainable", StrategyRAG, true},
		{"wellness theme", "wellness focused buyers", StrategyRAG, true},

		// Rule 6: demographic keywords
		{"short demographic", "parents with children", StrategyHybrid, true},
		{"long demographic", "high income suburban families near big metros", StrategyHybrid, false},

		// Rule 7: word-count fallback
		{"single word", "camping", StrategyRAG, true},
		{"two words", "winter tires", StrategyHybrid, true},
		{"four words expands", "best snacks for camping", StrategyHybrid, true},
		{"exclusionary term blocks expansion", "snacks without peanuts", StrategyHybrid, false},
		{"five words no expansion", "great gear for weekend road trips", StrategyHybrid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, expansion := ChooseStrategy(tt.brief)
			assert.Equal(t, tt.strategy, strategy, "strategy for %q", tt.brief)
			assert.Equal(t, tt.expansion, expansion, "expansion for %q", tt.brief)
		})
	}
}

// TestRuleOrderPrecedence verifies briefs matching several rules resolve to
// the earliest one.
func TestRuleOrderPrecedence(t *testing.T) {
	// Matches rule 1 (quotes) and rule 5 (luxury): rule 1 wins.
	strategy, expansion := ChooseStrategy(`"luxury" watches`)
	assert.Equal(t, StrategyFTS, strategy)
	assert.False(t, expansion)

	// Matches rule 4 (interested) and rule 6 (parent): rule 4 wins.
	strategy, expansion = ChooseStrategy("parents interested in hiking")
	assert.Equal(t, StrategyRAG, strategy)
	assert.True(t, expansion)
}

func TestLooksLikeTechnicalID(t *testing.T) {
	assert.True(t, looksLikeTechnicalID("ABC-1234-XY"))
	assert.False(t, looksLikeTechnicalID("ABC-XYZ-QQQ"), "no digit")
	assert.False(t, looksLikeTechnicalID("AB-12"), "too short")
	assert.False(t, looksLikeTechnicalID("fast cars 2024"), "spaces disqualify")
}
