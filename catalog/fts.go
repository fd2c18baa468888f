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
	"regexp"
	"strings"
)

// FTSResult is one full-text match with its raw relevance.
type FTSResult struct {
	ProductID int64
	Name      string
	Relevance float64
}

var ftsSanitizer = regexp.MustCompile(`[^\w\s\-]`)

// buildFTSQuery turns a free-text brief into an OR'd tsquery expression.
// Punctuation is stripped and single-character tokens dropped, so arbitrary
// briefs cannot produce tsquery syntax errors.
func buildFTSQuery(query string) string {
	sanitized := ftsSanitizer.ReplaceAllString(query, " ")
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(sanitized)) {
		if len(word) >= 2 {
			terms = append(terms, word)
		}
	}
	return strings.Join(terms, " | ")
}

// SearchProductsFTS runs lexical search over product name and description
// using PostgreSQL full-text search, ranked by ts_rank.
func (s *Store) SearchProductsFTS(ctx context.Context, tenantID int64, query string, limit int) ([]FTSResult, error) {
	tsQuery := buildFTSQuery(query)
	if tsQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name,
		        ts_rank(to_tsvector('english', name || ' ' || COALESCE(description, '')),
		                to_tsquery('english', $2)) AS relevance
		 FROM products
		 WHERE tenant_id = $1
		   AND to_tsvector('english', name || ' ' || COALESCE(description, '')) @@ to_tsquery('english', $2)
		 ORDER BY relevance DESC, id DESC
		 LIMIT $3`,
		tenantID, tsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}
	defer rows.Close()

	var results []FTSResult
	for rows.Next() {
		var r FTSResult
		if err := rows.Scan(&r.ProductID, &r.Name, &r.Relevance); err != nil {
			return nil, fmt.Errorf("failed to scan FTS result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
