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

// Package mcpclient is the outbound JSON-RPC client the orchestrator uses to
// talk to sales and signals agents. It owns the session lifecycle: open mints
// a session via initialize, calls carry it, and an expired session is
// re-established once per call before the error is surfaced.
package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"admesh/platform/shared/logger"
)

const (
	sessionHeader   = "Mcp-Session-Id"
	userAgent       = "admesh-orchestrator/0.1.0"
	protocolVersion = "1.0"
	bodyPreviewMax  = 400
)

type clientState int

const (
	stateNew clientState = iota
	stateOpen
	stateClosed
)

// Client is a single-agent JSON-RPC client. It is safe for concurrent use;
// the session and request counter are guarded by a mutex.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      *logger.Logger

	mu        sync.Mutex
	state     clientState
	sessionID string
	nextID    int64
}

// New builds a client for one agent endpoint. The timeout applies per call,
// not to the client's lifetime.
func New(endpoint string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, &ConfigError{Reason: "endpoint URL is empty"}
	}
	if timeout <= 0 {
		return nil, &ConfigError{Reason: "timeout must be positive"}
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
		log:      logger.New("mcp-client"),
	}, nil
}

// Open establishes a session with the agent: initialize, then a best-effort
// initialized notification. Open on an already-open client is a no-op.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openLocked(ctx)
}

func (c *Client) openLocked(ctx context.Context) error {
	if c.state == stateOpen {
		return nil
	}
	if c.state == stateClosed {
		return &ConfigError{Reason: "client is closed"}
	}

	params := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "admesh-orchestrator",
			"version": "0.1.0",
		},
	}
	if _, err := c.roundTrip(ctx, "initialize", params); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	c.state = stateOpen

	// The notification is a courtesy; agents must not depend on it.
	if _, err := c.roundTrip(ctx, "notifications/initialized", map[string]interface{}{}); err != nil {
		c.log.Warn("", "", "initialized notification failed", map[string]interface{}{
			"endpoint": c.endpoint, "error": err.Error(),
		})
	}
	return nil
}

// Call invokes a method on the agent and returns the raw result document.
// A session rejection triggers exactly one re-initialize and retry.
func (c *Client) Call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.openLocked(ctx); err != nil {
		return nil, err
	}

	result, err := c.roundTrip(ctx, method, params)
	if err != nil && isSessionRejection(err) {
		c.log.Info("", "", "session rejected, re-initializing", map[string]interface{}{"endpoint": c.endpoint})
		c.state = stateNew
		c.sessionID = ""
		if err := c.openLocked(ctx); err != nil {
			return nil, err
		}
		result, err = c.roundTrip(ctx, method, params)
	}
	return result, err
}

// Close tears the session down. The DELETE is best effort: an agent that
// already dropped the session is fine.
func (c *Client) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateOpen && c.sessionID != "" {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, c.endpoint, nil)
		if err == nil {
			c.setHeaders(req)
			if resp, err := c.http.Do(req); err == nil {
				resp.Body.Close()
			}
		}
	}
	c.state = stateClosed
	c.sessionID = ""
}

// roundTrip sends one RPC and decodes the envelope. The caller holds the
// mutex.
func (c *Client) roundTrip(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	c.nextID++
	id := c.nextID

	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{TimeoutMS: c.timeout.Milliseconds()}
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if sid := resp.Header.Get(sessionHeader); sid != "" {
		c.sessionID = sid
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode:  resp.StatusCode,
			Method:      method,
			URL:         c.endpoint,
			BodyPreview: preview(body),
		}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		ID interface{} `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid response envelope: %w", err)
	}
	if envelope.Error != nil {
		return nil, &RPCError{Code: envelope.Error.Code, Message: envelope.Error.Message, RequestID: envelope.ID}
	}
	return envelope.Result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.sessionID != "" {
		req.Header.Set(sessionHeader, c.sessionID)
	}
}

// isSessionRejection classifies errors that mean the agent no longer honors
// our session: a stale-session HTTP status or the gateway's own session
// errors.
func isSessionRejection(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusUnauthorized ||
			httpErr.StatusCode == http.StatusPreconditionFailed
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return strings.Contains(rpcErr.Message, "session required") ||
			strings.Contains(rpcErr.Message, "session invalid or expired")
	}
	return false
}

func preview(body []byte) string {
	if len(body) > bodyPreviewMax {
		body = body[:bodyPreviewMax]
	}
	return string(body)
}
