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

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"admesh/platform/ai"
	"admesh/platform/catalog"
	"admesh/platform/contract"
	"admesh/platform/retrieval"
	"admesh/platform/shared/logger"
	"admesh/platform/shared/types"
)

// ServiceName and ServiceVersion identify this gateway to RPC clients.
const (
	ServiceName     = "admesh-sales"
	ServiceVersion  = "0.1.0"
	ProtocolVersion = "1.0"
)

// catalogCandidateLimit caps how many products are loaded per tenant before
// the retrieval filter narrows them.
const catalogCandidateLimit = 1000

// rankInputLimit caps how many filtered products reach the ranking model.
const rankInputLimit = 50

// fallbackItemLimit caps the retrieval-only result served when ranking is
// unavailable.
const fallbackItemLimit = 10

// CatalogReader is the slice of the catalog the dispatcher needs.
type CatalogReader interface {
	TenantBySlug(ctx context.Context, slug string) (*catalog.Tenant, error)
	ProductsByTenant(ctx context.Context, tenantID int64, limit int) ([]catalog.Product, error)
}

// Retriever narrows a tenant's catalog for a brief.
type Retriever interface {
	FilterProducts(ctx context.Context, tenantID int64, brief string, limit int) ([]retrieval.Candidate, error)
}

// Ranker scores pre-filtered products against a brief.
type Ranker interface {
	RankProducts(ctx context.Context, brief string, products []catalog.Product, prompt string) ([]types.RankedItem, error)
}

// Dispatcher routes validated RPC requests to method handlers. It is the
// tenant-scoped application layer behind the transport in handlers.go.
type Dispatcher struct {
	catalog   CatalogReader
	retriever Retriever
	ranker    Ranker
	log       *logger.Logger
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(cat CatalogReader, retriever Retriever, ranker Ranker) *Dispatcher {
	return &Dispatcher{
		catalog:   cat,
		retriever: retriever,
		ranker:    ranker,
		log:       logger.New("mcp-dispatcher"),
	}
}

// Dispatch runs the named method for the tenant and returns its result or a
// classified RPC error. Unclassified failures surface as a generic
// application error so internals never leak to the wire.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params map[string]interface{}, tenantSlug string) (interface{}, *RPCError) {
	switch method {
	case "initialize":
		return d.handleInitialize(), nil
	case "notifications/initialized":
		return map[string]interface{}{}, nil
	case "mcp.get_info":
		return d.handleGetInfo(), nil
	case "get_products":
		return d.handleGetProducts(ctx, tenantSlug)
	case contract.SalesMethod:
		return d.handleRankProducts(ctx, params, tenantSlug)
	default:
		return nil, Errorf(CodeMethodNotFound, "method not found: %s", method)
	}
}

func (d *Dispatcher) handleInitialize() interface{} {
	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"methods": []string{"get_products", contract.SalesMethod},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServiceName,
			"version": ServiceVersion,
		},
	}
}

func (d *Dispatcher) handleGetInfo() interface{} {
	return map[string]interface{}{
		"service":      ServiceName,
		"version":      ServiceVersion,
		"capabilities": []string{"initialize", "get_products", contract.SalesMethod},
	}
}

func (d *Dispatcher) handleGetProducts(ctx context.Context, tenantSlug string) (interface{}, *RPCError) {
	tenant, rpcErr := d.resolveTenant(ctx, tenantSlug)
	if rpcErr != nil {
		return nil, rpcErr
	}

	products, err := d.catalog.ProductsByTenant(ctx, tenant.ID, catalogCandidateLimit)
	if err != nil {
		d.log.ErrorWithErr(tenantSlug, "", "failed to list products", err, nil)
		return nil, Errorf(CodeApplication, "internal server error")
	}

	wire := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		wire = append(wire, productWire(p))
	}
	return map[string]interface{}{"products": wire}, nil
}

func (d *Dispatcher) handleRankProducts(ctx context.Context, params map[string]interface{}, tenantSlug string) (interface{}, *RPCError) {
	tenant, rpcErr := d.resolveTenant(ctx, tenantSlug)
	if rpcErr != nil {
		return nil, rpcErr
	}

	brief, _ := params["brief"].(string)
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return nil, Errorf(CodeInvalidParams, "brief must be a non-empty string")
	}

	candidates, err := d.retriever.FilterProducts(ctx, tenant.ID, brief, retrieval.DefaultTopK)
	if err != nil {
		d.log.ErrorWithErr(tenantSlug, "", "retrieval failed", err, nil)
		return nil, Errorf(CodeApplication, "internal server error")
	}
	if len(candidates) == 0 {
		return map[string]interface{}{"items": []types.RankedItem{}}, nil
	}

	products, err := d.candidateProducts(ctx, tenant.ID, candidates)
	if err != nil {
		d.log.ErrorWithErr(tenantSlug, "", "failed to load candidate products", err, nil)
		return nil, Errorf(CodeApplication, "internal server error")
	}

	prompt := tenant.CustomPrompt
	if prompt == "" {
		prompt = contract.DefaultSalesPrompt()
	}

	items, err := d.ranker.RankProducts(ctx, brief, products, prompt)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			d.log.Warn(tenantSlug, "", "ranking unavailable, serving retrieval order", nil)
			return map[string]interface{}{"items": fallbackItems(candidates)}, nil
		}
		d.log.ErrorWithErr(tenantSlug, "", "ranking failed", err, nil)
		return nil, Errorf(CodeApplication, "internal server error")
	}
	if items == nil {
		items = []types.RankedItem{}
	}
	return map[string]interface{}{"items": items}, nil
}

func (d *Dispatcher) resolveTenant(ctx context.Context, slug string) (*catalog.Tenant, *RPCError) {
	tenant, err := d.catalog.TenantBySlug(ctx, slug)
	if err != nil {
		d.log.ErrorWithErr(slug, "", "tenant lookup failed", err, nil)
		return nil, Errorf(CodeApplication, "internal server error")
	}
	if tenant == nil {
		return nil, Errorf(CodeInvalidParams, "tenant '%s' not found", slug)
	}
	return tenant, nil
}

// candidateProducts loads the tenant's catalog and keeps it in the
// retrieval-ranked order of the candidate list, capped at rankInputLimit.
func (d *Dispatcher) candidateProducts(ctx context.Context, tenantID int64, candidates []retrieval.Candidate) ([]catalog.Product, error) {
	products, err := d.catalog.ProductsByTenant(ctx, tenantID, catalogCandidateLimit)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	picked := make([]catalog.Product, 0, len(candidates))
	for _, c := range candidates {
		if p, ok := byID[c.ProductID]; ok {
			picked = append(picked, p)
			if len(picked) == rankInputLimit {
				break
			}
		}
	}
	return picked, nil
}

// fallbackItems converts retrieval candidates into ranked items when the
// ranking model cannot run. The retrieval score stands in for relevance.
func fallbackItems(candidates []retrieval.Candidate) []types.RankedItem {
	if len(candidates) > fallbackItemLimit {
		candidates = candidates[:fallbackItemLimit]
	}
	items := make([]types.RankedItem, 0, len(candidates))
	for _, c := range candidates {
		score := 0.5
		switch {
		case c.RAGScore > 0:
			score = c.RAGScore
		case c.FTSScore > 0:
			score = c.FTSScore
		}
		items = append(items, types.RankedItem{
			ProductID:      strconv.FormatInt(c.ProductID, 10),
			RelevanceScore: score,
			Reasoning:      "retrieval pre-filter match: " + c.MatchReason,
		})
	}
	return items
}

// productWire renders a product in the wire shape clients expect. The stored
// formats and targeting documents are decoded leniently: invalid JSON
// degrades to an empty collection rather than failing the listing.
func productWire(p catalog.Product) map[string]interface{} {
	formats := []interface{}{}
	if p.FormatsJSON != "" {
		var decoded []interface{}
		if err := json.Unmarshal([]byte(p.FormatsJSON), &decoded); err == nil && decoded != nil {
			formats = decoded
		}
	}
	targeting := map[string]interface{}{}
	if p.TargetingJSON != "" {
		var decoded map[string]interface{}
		if err := json.Unmarshal([]byte(p.TargetingJSON), &decoded); err == nil && decoded != nil {
			targeting = decoded
		}
	}
	return map[string]interface{}{
		"product_id":    strconv.FormatInt(p.ID, 10),
		"name":          p.Name,
		"description":   p.Description,
		"delivery_type": p.DeliveryType,
		"price_cpm":     p.PriceCPM,
		"formats":       formats,
		"targeting":     targeting,
	}
}
