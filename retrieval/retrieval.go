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

// Package retrieval narrows a tenant's product catalog for a buyer brief
// before the expensive ranking step runs. It picks a strategy per brief
// (lexical, semantic, or hybrid with score fusion) and consumes the search
// backends and the query expander through narrow interfaces.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"admesh/platform/catalog"
	"admesh/platform/shared/logger"
)

// DefaultTopK is the candidate limit used by the ranking handler.
const DefaultTopK = 50

// SearchStore is the slice of the catalog the filter needs.
type SearchStore interface {
	SearchProductsFTS(ctx context.Context, tenantID int64, query string, limit int) ([]catalog.FTSResult, error)
	SearchProductsSemantic(ctx context.Context, tenantID int64, queryVec []float64, limit int) ([]catalog.SemanticResult, error)
}

// Embedder produces one vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Expander rewrites a brief into related search terms. Implementations are
// best effort and return the original brief on failure.
type Expander interface {
	ExpandQuery(ctx context.Context, brief string) ([]string, error)
}

// Filterer runs the multi-strategy retrieval pipeline.
type Filterer struct {
	store    SearchStore
	embedder Embedder
	expander Expander
	log      *logger.Logger
}

// NewFilterer wires the pipeline.
func NewFilterer(store SearchStore, embedder Embedder, expander Expander) *Filterer {
	return &Filterer{
		store:    store,
		embedder: embedder,
		expander: expander,
		log:      logger.New("retrieval"),
	}
}

// FilterProducts returns up to limit candidates for the brief, ranked by
// the chosen strategy's own score. A blank brief yields no candidates.
//
// The semantic source degrades softly: if embedding or vector search fails,
// the pipeline continues with lexical results only. A lexical failure is a
// database failure and propagates. The rag strategy falls back to a pure
// fts pass when it finds nothing; there is intentionally no fallback in the
// reverse direction.
func (f *Filterer) FilterProducts(ctx context.Context, tenantID int64, brief string, limit int) ([]Candidate, error) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, nil
	}

	strategy, useExpansion := ChooseStrategy(brief)

	expanded := false
	if useExpansion && f.expander != nil {
		if terms, err := f.expander.ExpandQuery(ctx, brief); err == nil && len(terms) > 1 {
			brief = strings.Join(terms, " ")
			expanded = true
		}
	}

	var (
		results []Candidate
		err     error
	)
	switch strategy {
	case StrategyRAG:
		results = f.semanticSearch(ctx, tenantID, brief, limit)
		if len(results) == 0 {
			f.log.Info("", "", "semantic search empty, falling back to fts", nil)
			results, err = f.ftsSearch(ctx, tenantID, brief, limit)
		}
	case StrategyFTS:
		results, err = f.ftsSearch(ctx, tenantID, brief, limit)
	case StrategyHybrid:
		ragResults := f.semanticSearch(ctx, tenantID, brief, limit*2)
		var ftsResults []Candidate
		ftsResults, err = f.ftsSearch(ctx, tenantID, brief, limit*2)
		if err == nil {
			results = hybridRank(ragResults, ftsResults, limit)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("retrieval pre-filter failed: %w", err)
	}

	f.log.Info("", "", "retrieval complete", map[string]interface{}{
		"strategy":   string(strategy),
		"expanded":   expanded,
		"candidates": len(results),
	})
	return results, nil
}

// semanticSearch embeds the brief and queries the vector index. Failures
// are logged and reported as an empty result set.
func (f *Filterer) semanticSearch(ctx context.Context, tenantID int64, brief string, limit int) []Candidate {
	vectors, err := f.embedder.EmbedTexts(ctx, []string{brief})
	if err != nil || len(vectors) == 0 {
		if err != nil {
			f.log.Warn("", "", "semantic search unavailable", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}

	matches, err := f.store.SearchProductsSemantic(ctx, tenantID, vectors[0], limit)
	if err != nil {
		f.log.Warn("", "", "semantic search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, Candidate{
			ProductID:     m.ProductID,
			Name:          m.Name,
			RAGScore:      m.Similarity,
			CombinedScore: m.Similarity,
			MatchReason:   MatchSemantic,
		})
	}
	return candidates
}

func (f *Filterer) ftsSearch(ctx context.Context, tenantID int64, brief string, limit int) ([]Candidate, error) {
	matches, err := f.store.SearchProductsFTS(ctx, tenantID, brief, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, Candidate{
			ProductID:     m.ProductID,
			Name:          m.Name,
			FTSScore:      m.Relevance,
			CombinedScore: m.Relevance,
			MatchReason:   MatchText,
		})
	}
	return candidates, nil
}
