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

// Package server wires the service: configuration, catalog, session store,
// retrieval, ranking, the MCP gateway, and the orchestration API.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"admesh/platform/ai"
	"admesh/platform/catalog"
	"admesh/platform/config"
	"admesh/platform/contract"
	"admesh/platform/mcp"
	"admesh/platform/orchestrator"
	"admesh/platform/retrieval"
	"admesh/platform/shared/logger"
	"admesh/platform/shared/types"
)

// Run starts the service and blocks until the HTTP server exits.
func Run() {
	lg := logger.New("server")
	lg.Info("", "", "starting admesh platform", nil)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	externalAgents, err := config.LoadAgents(cfg.AgentsFile)
	if err != nil {
		log.Fatalf("agents file error: %v", err)
	}
	lg.Info("", "", "external agent registry loaded", map[string]interface{}{"agents": len(externalAgents)})

	ctx := context.Background()
	store, err := catalog.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer store.Close()

	sessions := newSessionStore(cfg, lg)

	aiClient := ai.New(cfg.OpenAIAPIKey)
	if !aiClient.Available() {
		lg.Warn("", "", "OPENAI_API_KEY not set, ranking runs in retrieval-only mode", nil)
	}

	filterer := retrieval.NewFilterer(store, aiClient, aiClient)
	dispatcher := mcp.NewDispatcher(store, filterer, aiClient)
	gateway := mcp.NewHandler(dispatcher, sessions)

	orch := orchestrator.New(orchestrator.Config{
		TimeoutMS:      cfg.OrchTimeoutMS,
		Concurrency:    cfg.OrchConcurrency,
		BreakerFails:   cfg.BreakerFails,
		BreakerTTLS:    cfg.BreakerTTLS,
		ServiceBaseURL: cfg.ServiceBaseURL,
	}, store)

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	gateway.RegisterRoutes(r)
	r.Handle("/api/orchestrate", newOrchestrateHandler(orch, store, externalAgents)).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"}, // Configure for production
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{mcp.SessionHeader},
	})

	lg.Info("", "", "listening", map[string]interface{}{"port": cfg.Port})
	log.Fatal(http.ListenAndServe(":"+cfg.Port, c.Handler(r)))
}

// newSessionStore picks Redis when configured, otherwise the in-process
// store. A single replica does not need Redis; multiple replicas do.
func newSessionStore(cfg *config.Config, lg *logger.Logger) mcp.SessionStore {
	ttl := time.Duration(cfg.SessionTTLS) * time.Second
	if cfg.RedisURL == "" {
		lg.Info("", "", "using in-memory session store", nil)
		return mcp.NewMemorySessionStore(ttl)
	}

	store, err := mcp.NewRedisSessionStore(cfg.RedisURL, ttl)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	lg.Info("", "", "using Redis session store", nil)
	return store
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"service":   mcp.ServiceName,
		"version":   mcp.ServiceVersion,
		"timestamp": time.Now().UTC(),
	}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// orchestrateRequest is the fan-out API payload.
type orchestrateRequest struct {
	Brief     string  `json:"brief"`
	TenantIDs []int64 `json:"tenant_ids"`
}

// agentProvider lists the enabled external agents for a fan-out. The catalog
// store implements it; the static registry from AGENTS_FILE supplements it.
type agentProvider interface {
	EnabledExternalAgents(ctx context.Context, agentType types.AgentType) ([]types.AgentDescriptor, error)
}

type orchestrateHandler struct {
	orch         *orchestrator.Orchestrator
	agents       agentProvider
	staticAgents []types.AgentDescriptor
	log          *logger.Logger
}

func newOrchestrateHandler(orch *orchestrator.Orchestrator, agents agentProvider, staticAgents []types.AgentDescriptor) *orchestrateHandler {
	return &orchestrateHandler{
		orch:         orch,
		agents:       agents,
		staticAgents: staticAgents,
		log:          logger.New("orchestrate-api"),
	}
}

func (h *orchestrateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req orchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	external := h.externalAgents(r.Context())
	result, err := h.orch.Orchestrate(r.Context(), req.Brief, req.TenantIDs, external)
	if err != nil {
		if err == contract.ErrEmptyBrief {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorWithErr("", "", "orchestration failed", err, nil)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// externalAgents merges the database registry with the static file registry.
// A registry lookup failure degrades to the static list: orchestration still
// runs against tenants even when the agents table is unreachable.
func (h *orchestrateHandler) externalAgents(ctx context.Context) []types.AgentDescriptor {
	merged := append([]types.AgentDescriptor{}, h.staticAgents...)
	for _, agentType := range []types.AgentType{types.AgentTypeSales, types.AgentTypeSignals} {
		agents, err := h.agents.EnabledExternalAgents(ctx, agentType)
		if err != nil {
			h.log.ErrorWithErr("", "", "external agent lookup failed", err,
				map[string]interface{}{"agent_type": string(agentType)})
			continue
		}
		merged = append(merged, agents...)
	}
	return merged
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"error": message})
}
