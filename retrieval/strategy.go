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
	"strings"
	"unicode"
)

// Strategy names the retrieval pipeline chosen for a brief.
type Strategy string

const (
	StrategyRAG    Strategy = "rag"
	StrategyFTS    Strategy = "fts"
	StrategyHybrid Strategy = "hybrid"
)

// Keyword groups for the strategy cascade. Matching is substring-based on
// the lowercased brief, so "parents" matches "parent".
var (
	intentIndicators = []string{
		"interested", "likely", "intent", "looking", "seeking", "want",
		"lifestyle", "behavior", "habit", "preference", "affinity",
		"enthusiast", "lover", "fan", "conscious", "aware", "minded",
	}
	conceptualTerms = []string{
		"luxury", "premium", "budget", "eco", "green", "sustainable",
		"health", "wellness", "fitness", "active", "affluent", "trendy",
		"modern", "traditional", "conservative", "progressive",
	}
	demographicTerms = []string{
		"age", "gender", "income", "education", "parent", "family",
		"married", "single", "retired", "student", "professional",
		"homeowner", "renter", "urban", "suburban", "rural",
	}
	exclusionaryTerms = []string{"without", "except", "only", "not"}
)

// ChooseStrategy picks the search strategy and whether to expand the query.
// The rules form an ordered cascade; the first match wins, so rule order
// encodes precedence and must not be reshuffled.
func ChooseStrategy(brief string) (Strategy, bool) {
	lower := strings.ToLower(brief)
	upper := strings.ToUpper(brief)
	words := strings.Fields(brief)

	// 1. Boolean operators or quoting: the buyer is writing a lexical
	// query already.
	if strings.Contains(upper, " AND ") || strings.Contains(upper, " OR ") ||
		strings.Contains(upper, " NOT ") ||
		strings.Contains(brief, `"`) || strings.Contains(brief, "'") {
		return StrategyFTS, false
	}

	// 2. Technical identifier (SKU, deal id): exact match beats semantics.
	if looksLikeTechnicalID(brief) {
		return StrategyFTS, false
	}

	// 3. Short, mostly-capitalized briefs are brand or company names.
	if len(words) <= 3 && float64(capitalizedCount(words)) >= float64(len(words))*0.6 {
		return StrategyFTS, false
	}

	// 4. Behavioral or intent language benefits most from semantics.
	if containsAny(lower, intentIndicators) {
		return StrategyRAG, true
	}

	// 5. Conceptual and thematic briefs likewise.
	if containsAny(lower, conceptualTerms) {
		return StrategyRAG, true
	}

	// 6. Demographic briefs do well with both sources; expand short ones.
	if containsAny(lower, demographicTerms) {
		return StrategyHybrid, len(words) <= 3
	}

	// 7. Fall back on word count.
	switch {
	case len(words) == 1:
		return StrategyRAG, true
	case len(words) == 2:
		return StrategyHybrid, true
	case len(words) <= 4:
		return StrategyHybrid, !containsExclusionary(words)
	default:
		return StrategyHybrid, false
	}
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func containsExclusionary(words []string) bool {
	for _, w := range words {
		lw := strings.ToLower(w)
		for _, term := range exclusionaryTerms {
			if lw == term {
				return true
			}
		}
	}
	return false
}

// looksLikeTechnicalID reports whether the brief is a single alphanumeric
// token (separators allowed) containing a digit and longer than 8 runes.
func looksLikeTechnicalID(brief string) bool {
	if len([]rune(brief)) <= 8 {
		return false
	}
	stripped := strings.NewReplacer("-", "", "_", "", ".", "").Replace(brief)
	if stripped == "" {
		return false
	}
	hasDigit := false
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	return hasDigit
}

func capitalizedCount(words []string) int {
	n := 0
	for _, w := range words {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			n++
		}
	}
	return n
}
