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
	"encoding/json"
	"fmt"
	"strings"

	"admesh/platform/catalog"
	"admesh/platform/shared/types"
)

// rankResponse is the JSON document the ranking prompt instructs the model
// to return.
type rankResponse struct {
	Products []struct {
		ProductID      string  `json:"product_id"`
		RelevanceScore float64 `json:"relevance_score"`
		Reasoning      string  `json:"reasoning"`
	} `json:"products"`
}

// RankProducts scores the candidate products against the brief using the
// given prompt template ({brief} and {products} placeholders). The caller
// is responsible for pre-filtering: the full catalog must never be passed
// here.
func (c *Client) RankProducts(ctx context.Context, brief string, products []catalog.Product, prompt string) ([]types.RankedItem, error) {
	if c.oa == nil {
		return nil, fmt.Errorf("ranking not configured: OPENAI_API_KEY is required: %w", ErrUnavailable)
	}
	if strings.TrimSpace(brief) == "" {
		return nil, fmt.Errorf("brief cannot be empty")
	}
	if len(products) == 0 {
		return nil, nil
	}

	rendered := strings.ReplaceAll(prompt, "{brief}", brief)
	rendered = strings.ReplaceAll(rendered, "{products}", formatProducts(products))

	text, err := c.complete(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	parsed, err := parseRankResponse(text)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}

	items := make([]types.RankedItem, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if p.ProductID == "" {
			continue
		}
		items = append(items, types.RankedItem{
			ProductID:      p.ProductID,
			RelevanceScore: p.RelevanceScore,
			Reasoning:      p.Reasoning,
		})
	}
	c.log.Info("", "", "ai ranking completed", map[string]interface{}{"items": len(items)})
	return items, nil
}

// formatProducts renders candidates as the line-per-product block the
// prompt template expects.
func formatProducts(products []catalog.Product) string {
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "- id=%d name=%q description=%q delivery_type=%s price_cpm=%.2f\n",
			p.ID, p.Name, p.Description, p.DeliveryType, p.PriceCPM)
	}
	return b.String()
}

// parseRankResponse tolerates markdown code fences around the JSON body.
func parseRankResponse(text string) (*rankResponse, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var parsed rankResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return &parsed, nil
}
