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

// Package contract pins the method names and parameter shapes of the
// upstream sales and signals agent protocols. Both sides of the service use
// it: the gateway serves the sales contract, the orchestrator speaks both.
package contract

import (
	"errors"
	"strings"
)

// Method names fixed by the upstream agent protocols.
const (
	SalesMethod   = "rank_products"
	SignalsMethod = "get_signals"
)

// ErrEmptyBrief rejects briefs that are empty or whitespace-only before any
// network or retrieval work happens.
var ErrEmptyBrief = errors.New("brief cannot be empty")

// BuildSalesParams builds the rank_products parameter object.
func BuildSalesParams(brief string) (map[string]interface{}, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, ErrEmptyBrief
	}
	return map[string]interface{}{"brief": brief}, nil
}

// BuildSignalsParams builds the get_signals parameter object.
func BuildSignalsParams(brief string) (map[string]interface{}, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, ErrEmptyBrief
	}
	return map[string]interface{}{"signal_spec": brief}, nil
}

// DefaultSalesPrompt is the ranking prompt used when a tenant has not
// configured a custom one. The {brief} and {products} placeholders are
// substituted by the ranking client.
func DefaultSalesPrompt() string {
	return `You are an expert media buyer analyzing products for a programmatic advertising campaign.

Campaign Brief: {brief}

Available Products:
{products}

Your task:
1. Analyze each product's relevance to the campaign brief
2. Consider targeting capabilities, format compatibility, and pricing
3. Rank products from most to least relevant
4. Return the top products

Response format (JSON only):
{
  "products": [
    {
      "product_id": "product_id_here",
      "relevance_score": 0.95,
      "reasoning": "Why this product is relevant"
    }
  ]
}

Focus on:
- Targeting alignment with brief requirements
- Format suitability for campaign goals
- Pricing compatibility with budget
- Geographic targeting match
- Delivery type appropriateness

Return ONLY the JSON response, no additional text.`
}
