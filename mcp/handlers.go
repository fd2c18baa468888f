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
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"admesh/platform/shared/logger"
)

// SessionHeader carries the session id on both requests and responses.
const SessionHeader = "Mcp-Session-Id"

// maxRequestBody bounds RPC payloads.
const maxRequestBody = 1 << 20

var rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mcp_rpc_requests_total",
	Help: "RPC requests served, labeled by method and outcome.",
}, []string{"method", "outcome"})

// Handler serves the RPC endpoint and its REST shim over HTTP.
type Handler struct {
	dispatcher *Dispatcher
	sessions   SessionStore
	log        *logger.Logger
}

// NewHandler wires the transport.
func NewHandler(dispatcher *Dispatcher, sessions SessionStore) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		sessions:   sessions,
		log:        logger.New("mcp-handler"),
	}
}

// RegisterRoutes mounts the MCP surface on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/mcp/", h.handleInfo).Methods("GET")
	r.HandleFunc("/mcp/agents/{tenant}/rpc", h.handleRPC).Methods("POST")
	r.HandleFunc("/mcp/agents/{tenant}/rpc", h.handleDeleteSession).Methods("DELETE")
	r.HandleFunc("/mcp/agents/{tenant}/rank", h.handleRank).Methods("POST")
}

func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dispatcher.handleGetInfo())
}

// handleRPC is the JSON-RPC endpoint. Every outcome, including protocol
// errors, is delivered as an HTTP 200 envelope; the error object carries the
// failure.
func (h *Handler) handleRPC(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		rpcRequests.WithLabelValues("unknown", "error").Inc()
		writeJSON(w, http.StatusOK, NewError(nil, CodeInvalidRequest, "invalid request: unreadable body"))
		return
	}

	req, parseErr := ParseRequest(body)
	if parseErr != nil {
		rpcRequests.WithLabelValues("unknown", "error").Inc()
		writeJSON(w, http.StatusOK, NewError(nil, parseErr.Code, parseErr.Message))
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
	if rpcErr := h.checkSession(r, req.Method, tenant, sessionID); rpcErr != nil {
		rpcRequests.WithLabelValues(req.Method, "error").Inc()
		writeJSON(w, http.StatusOK, NewError(req.ID, rpcErr.Code, rpcErr.Message))
		return
	}

	result, rpcErr := h.dispatcher.Dispatch(r.Context(), req.Method, req.Params, tenant)
	if rpcErr != nil {
		rpcRequests.WithLabelValues(req.Method, "error").Inc()
		writeJSON(w, http.StatusOK, NewError(req.ID, rpcErr.Code, rpcErr.Message))
		return
	}

	if h.shouldMintSession(req.Method, sessionID) {
		if id, err := h.sessions.Create(r.Context(), tenant); err == nil {
			w.Header().Set(SessionHeader, id)
		} else {
			h.log.ErrorWithErr(tenant, "", "failed to mint session", err, nil)
		}
	}

	rpcRequests.WithLabelValues(req.Method, "ok").Inc()
	h.log.InfoWithDuration(tenant, "", "rpc served", float64(time.Since(start).Milliseconds()),
		map[string]interface{}{"method": req.Method})
	writeJSON(w, http.StatusOK, NewResult(req.ID, result))
}

// checkSession enforces session ownership. initialize and mcp.get_info are
// exempt so a client can always bootstrap and probe.
func (h *Handler) checkSession(r *http.Request, method, tenant, sessionID string) *RPCError {
	if method == "initialize" || method == "mcp.get_info" {
		return nil
	}

	if sessionID != "" {
		owner, ok := h.sessions.Validate(r.Context(), sessionID)
		if !ok || owner != tenant {
			return Errorf(CodeApplication, "session invalid or expired")
		}
		return nil
	}

	// No header: reject only when the tenant already holds a live session,
	// so a stolen-session race cannot silently fork state.
	if h.sessions.HasActive(r.Context(), tenant) {
		return Errorf(CodeApplication, "session required")
	}
	return nil
}

// shouldMintSession reports whether this request earns a fresh session id.
// initialize always re-mints; other stateful methods mint only when the
// client arrived without one.
func (h *Handler) shouldMintSession(method, sessionID string) bool {
	if method == "initialize" {
		return true
	}
	if method == "mcp.get_info" || method == "notifications/initialized" {
		return false
	}
	return sessionID == ""
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		h.sessions.Delete(r.Context(), id)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// handleRank is the REST shim over rank_products: same dispatch path, plain
// HTTP semantics. Errors map to status 400 instead of an RPC envelope.
func (h *Handler) handleRank(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "unreadable body"})
		return
	}

	var params map[string]interface{}
	if err := json.Unmarshal(body, &params); err != nil || params == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "request body must be a JSON object"})
		return
	}

	result, rpcErr := h.dispatcher.Dispatch(r.Context(), "rank_products", params, tenant)
	if rpcErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": rpcErr.Message})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
