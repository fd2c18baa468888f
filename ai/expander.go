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

package ai

import (
	"context"
	"fmt"
	"strings"
)

// maxExpandedTerms caps the expansion output, original brief included.
const maxExpandedTerms = 6

// ExpandQuery asks the model for related search terms. Expansion is best
// effort: any failure returns just the original brief with a nil error, so
// retrieval proceeds unexpanded.
func (c *Client) ExpandQuery(ctx context.Context, brief string) ([]string, error) {
	if c.oa == nil {
		return []string{brief}, nil
	}

	prompt := fmt.Sprintf(`Generate 5 related search terms for this advertising brief: %q

Focus on:
- Synonyms and related concepts
- Broader and narrower terms
- Industry-specific terminology

Return only the terms, separated by commas. Do not include explanations.`, brief)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		c.log.Warn("", "", "query expansion failed", map[string]interface{}{"error": err.Error()})
		return []string{brief}, nil
	}

	var terms []string
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return []string{brief}, nil
	}

	// Keep the original brief in the term set.
	found := false
	for _, t := range terms {
		if strings.EqualFold(t, brief) {
			found = true
			break
		}
	}
	if !found {
		terms = append([]string{brief}, terms...)
	}
	if len(terms) > maxExpandedTerms {
		terms = terms[:maxExpandedTerms]
	}
	return terms, nil
}
