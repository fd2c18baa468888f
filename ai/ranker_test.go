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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admesh/platform/catalog"
)

func TestRankProductsWithoutKeyIsUnavailable(t *testing.T) {
	c := New("")
	_, err := c.RankProducts(context.Background(), "luxury travel", []catalog.Product{{ID: 1, Name: "Gold"}}, "{brief} {products}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable), "keyless client must report ErrUnavailable")
}

func TestEmbedTextsWithoutKeyIsUnavailable(t *testing.T) {
	c := New("")
	_, err := c.EmbedTexts(context.Background(), []string{"luxury travel"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestExpandQueryWithoutKeyFallsBack(t *testing.T) {
	c := New("")
	terms, err := c.ExpandQuery(context.Background(), "luxury travel")
	require.NoError(t, err, "expansion is best effort and must not fail")
	assert.Equal(t, []string{"luxury travel"}, terms)
}

func TestParseRankResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "plain JSON",
			text:    `{"products":[{"product_id":"7","relevance_score":0.9,"reasoning":"fits"}]}`,
			wantIDs: []string{"7"},
		},
		{
			name: "fenced JSON",
			text: "```json\n{\"products\":[{\"product_id\":\"3\",\"relevance_score\":0.5,\"reasoning\":\"ok\"}]}\n```",
			wantIDs: []string{"3"},
		},
		{
			name:    "not JSON",
			text:    "I think product 7 is best.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseRankResponse(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var ids []string
			for _, p := range parsed.Products {
				ids = append(ids, p.ProductID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFormatProducts(t *testing.T) {
	out := formatProducts([]catalog.Product{
		{ID: 1, Name: "CTV Premium", Description: "video", DeliveryType: "guaranteed", PriceCPM: 32.5},
	})
	assert.Contains(t, out, "id=1")
	assert.Contains(t, out, `name="CTV Premium"`)
	assert.Contains(t, out, "price_cpm=32.50")
}
