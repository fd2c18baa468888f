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

package types

// AgentType distinguishes the two kinds of upstream agents a brief can be
// fanned out to.
type AgentType string

const (
	AgentTypeSales   AgentType = "sales"
	AgentTypeSignals AgentType = "signals"
)

// Agent protocols. Signals agents must speak MCP; sales agents declared in
// the catalog may advertise REST but are only called over MCP.
const (
	ProtocolMCP  = "mcp"
	ProtocolREST = "rest"
)

// AgentDescriptor identifies one upstream agent endpoint. Descriptors are
// immutable; they come from the tenant catalog or the external agent
// registry, never from request payloads.
type AgentDescriptor struct {
	Name     string    `json:"name" yaml:"name"`
	URL      string    `json:"url" yaml:"url"`
	Type     AgentType `json:"type" yaml:"type"`
	Protocol string    `json:"protocol" yaml:"protocol"`
}

// RankedItem is one product entry returned by a sales agent.
type RankedItem struct {
	ProductID      string  `json:"product_id"`
	RelevanceScore float64 `json:"relevance_score"`
	Reasoning      string  `json:"reasoning"`
}

// Signal is one normalized audience signal returned by a signals agent.
// Score is a pointer because upstream agents may omit it entirely.
type Signal struct {
	SignalID string   `json:"signal_id"`
	Name     string   `json:"name"`
	Reason   string   `json:"reason"`
	Score    *float64 `json:"score"`
}

// AgentCallResult is the outcome of one orchestrated agent call. Exactly one
// of the success constructors or Failure produces it; callers switch on OK
// rather than sniffing field presence.
type AgentCallResult struct {
	Agent   AgentDescriptor `json:"agent"`
	OK      bool            `json:"ok"`
	Items   []RankedItem    `json:"items,omitempty"`
	Signals []Signal        `json:"signals,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SalesSuccess builds a successful sales call result.
func SalesSuccess(agent AgentDescriptor, items []RankedItem) AgentCallResult {
	return AgentCallResult{Agent: agent, OK: true, Items: items}
}

// SignalsSuccess builds a successful signals call result.
func SignalsSuccess(agent AgentDescriptor, signals []Signal) AgentCallResult {
	return AgentCallResult{Agent: agent, OK: true, Signals: signals}
}

// Failure builds a failed call result with a human-readable reason.
func Failure(agent AgentDescriptor, reason string) AgentCallResult {
	return AgentCallResult{Agent: agent, OK: false, Error: reason}
}

// OrchestrationResult aggregates one fan-out. Slice order matches the input
// task order (sales targets first, then signals), not completion order.
type OrchestrationResult struct {
	Results []AgentCallResult `json:"results"`
	Signals []AgentCallResult `json:"signals"`
}
