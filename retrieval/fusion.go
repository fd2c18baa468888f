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
	"math"
	"sort"
)

// ragWeight is the semantic share of a hybrid combined score; the lexical
// share is its complement.
const ragWeight = 0.7

// Match reasons reported on candidates.
const (
	MatchSemantic = "semantic_similarity"
	MatchText     = "text_match"
)

// Candidate is one retrieval result. Candidates are built per request and
// never persisted.
type Candidate struct {
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	RAGScore      float64 `json:"rag_score"`
	FTSScore      float64 `json:"fts_score"`
	CombinedScore float64 `json:"combined_score"`
	MatchReason   string  `json:"match_reason"`
}

// hybridRank merges semantic and lexical result sets by product id. FTS
// relevances are normalized by the batch's maximum absolute relevance (a
// zero maximum is treated as 1 to avoid dividing by zero); a candidate
// missing from one source scores 0 for that source. The merged set is
// sorted by combined score descending, ties broken by product id
// descending, and truncated to limit.
func hybridRank(ragResults, ftsResults []Candidate, limit int) []Candidate {
	merged := make(map[int64]Candidate, len(ragResults)+len(ftsResults))

	for _, r := range ragResults {
		r.FTSScore = 0
		r.CombinedScore = ragWeight * r.RAGScore
		merged[r.ProductID] = r
	}

	maxRelevance := 0.0
	for _, f := range ftsResults {
		if abs := math.Abs(f.FTSScore); abs > maxRelevance {
			maxRelevance = abs
		}
	}
	if maxRelevance == 0 {
		maxRelevance = 1
	}

	for _, f := range ftsResults {
		norm := math.Abs(f.FTSScore) / maxRelevance
		if existing, ok := merged[f.ProductID]; ok {
			existing.FTSScore = norm
			existing.CombinedScore = ragWeight*existing.RAGScore + (1-ragWeight)*norm
			merged[f.ProductID] = existing
		} else {
			f.FTSScore = norm
			f.RAGScore = 0
			f.CombinedScore = (1 - ragWeight) * norm
			merged[f.ProductID] = f
		}
	}

	results := make([]Candidate, 0, len(merged))
	for _, c := range merged {
		results = append(results, c)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].ProductID > results[j].ProductID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
