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

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"admesh/platform/contract"
	"admesh/platform/mcpclient"
	"admesh/platform/shared/types"
)

var agentCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "orchestrator_agent_calls_total",
	Help: "Agent calls attempted, labeled by agent type and outcome.",
}, []string{"agent_type", "outcome"})

// callSalesAgent runs one rank_products call under the shared semaphore and
// the endpoint's circuit breaker.
func (o *Orchestrator) callSalesAgent(ctx context.Context, agent types.AgentDescriptor, brief string) types.AgentCallResult {
	if err := o.acquire(ctx); err != nil {
		return o.failure(agent, err.Error())
	}
	defer o.release()

	params, err := contract.BuildSalesParams(brief)
	if err != nil {
		return o.failure(agent, err.Error())
	}

	raw, callErr := o.callAgent(ctx, agent, contract.SalesMethod, params)
	if callErr != "" {
		return o.failure(agent, callErr)
	}

	var payload struct {
		Items []types.RankedItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		o.breakers.RecordFailure(agent.URL, o.cfg.BreakerFails, o.breakerTTL())
		return o.failure(agent, fmt.Sprintf("invalid_response: %v", err))
	}
	if payload.Items == nil {
		payload.Items = []types.RankedItem{}
	}

	o.breakers.RecordSuccess(agent.URL)
	agentCalls.WithLabelValues(string(types.AgentTypeSales), "ok").Inc()
	return types.SalesSuccess(agent, payload.Items)
}

// callSignalsAgent runs one get_signals call. The protocol gate fires before
// any semaphore or breaker work: a misconfigured agent is a configuration
// fact, not an endpoint failure.
func (o *Orchestrator) callSignalsAgent(ctx context.Context, agent types.AgentDescriptor, brief string) types.AgentCallResult {
	if agent.Protocol != types.ProtocolMCP {
		return o.failure(agent, "signals requires protocol=mcp")
	}

	if err := o.acquire(ctx); err != nil {
		return o.failure(agent, err.Error())
	}
	defer o.release()

	params, err := contract.BuildSignalsParams(brief)
	if err != nil {
		return o.failure(agent, err.Error())
	}

	raw, callErr := o.callAgent(ctx, agent, contract.SignalsMethod, params)
	if callErr != "" {
		return o.failure(agent, callErr)
	}

	signals, err := normalizeSignals(raw)
	if err != nil {
		o.breakers.RecordFailure(agent.URL, o.cfg.BreakerFails, o.breakerTTL())
		return o.failure(agent, err.Error())
	}

	o.breakers.RecordSuccess(agent.URL)
	agentCalls.WithLabelValues(string(types.AgentTypeSignals), "ok").Inc()
	return types.SignalsSuccess(agent, signals)
}

// callAgent performs the shared breaker-guarded MCP exchange. It returns the
// raw result document, or a non-empty failure reason. Breaker bookkeeping
// for wire failures happens here; response-shape failures are recorded by
// the callers after decoding.
func (o *Orchestrator) callAgent(ctx context.Context, agent types.AgentDescriptor, method string, params map[string]interface{}) (json.RawMessage, string) {
	if !o.breakers.Allow(agent.URL) {
		o.log.Warn("", "", "circuit breaker open, skipping agent", map[string]interface{}{
			"agent": agent.Name, "url": agent.URL,
		})
		return nil, "circuit breaker open"
	}

	timeout := time.Duration(o.cfg.TimeoutMS) * time.Millisecond
	client, err := mcpclient.New(agent.URL, timeout)
	if err != nil {
		o.breakers.RecordFailure(agent.URL, o.cfg.BreakerFails, o.breakerTTL())
		return nil, err.Error()
	}
	defer client.Close(context.Background())

	raw, err := client.Call(ctx, method, params)
	if err != nil {
		o.breakers.RecordFailure(agent.URL, o.cfg.BreakerFails, o.breakerTTL())
		var timeoutErr *mcpclient.TimeoutError
		if errors.As(err, &timeoutErr) {
			return nil, fmt.Sprintf("timeout after %dms", o.cfg.TimeoutMS)
		}
		return nil, err.Error()
	}
	return raw, ""
}

func (o *Orchestrator) failure(agent types.AgentDescriptor, reason string) types.AgentCallResult {
	agentCalls.WithLabelValues(string(agent.Type), "error").Inc()
	o.log.Warn("", "", "agent call failed", map[string]interface{}{
		"agent": agent.Name, "url": agent.URL, "reason": reason,
	})
	return types.Failure(agent, reason)
}

func (o *Orchestrator) breakerTTL() time.Duration {
	return time.Duration(o.cfg.BreakerTTLS) * time.Second
}
