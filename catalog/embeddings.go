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

package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/lib/pq"
)

// SemanticResult is one embedding match with its cosine similarity.
type SemanticResult struct {
	ProductID  int64
	Name       string
	Similarity float64
}

// SearchProductsSemantic loads the tenant's product embeddings and ranks
// them by cosine similarity against the query vector. Vector counts per
// tenant are small (bounded by catalog size), so similarity is computed
// in-process rather than pushed into the database.
func (s *Store) SearchProductsSemantic(ctx context.Context, tenantID int64, queryVec []float64, limit int) ([]SemanticResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.product_id, p.name, e.embedding
		 FROM product_embeddings e
		 JOIN products p ON p.id = e.product_id
		 WHERE p.tenant_id = $1`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	defer rows.Close()

	var results []SemanticResult
	for rows.Next() {
		var r SemanticResult
		var vec pq.Float64Array
		if err := rows.Scan(&r.ProductID, &r.Name, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		r.Similarity = cosineSimilarity(queryVec, vec)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ProductID > results[j].ProductID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity returns 0 for mismatched or zero-magnitude vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
