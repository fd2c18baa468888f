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

// Package orchestrator fans a campaign brief out to sales and signals agents
// concurrently and aggregates the per-agent outcomes. One slow or failing
// agent never blocks or fails the others; a per-endpoint circuit breaker
// keeps repeat offenders from being called at all.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"admesh/platform/catalog"
	"admesh/platform/contract"
	"admesh/platform/orchestrator/circuitbreaker"
	"admesh/platform/shared/logger"
	"admesh/platform/shared/types"
)

// Config carries the orchestration knobs. Zero values are replaced by the
// documented defaults.
type Config struct {
	TimeoutMS      int    // per agent call
	Concurrency    int    // shared across the whole fan-out
	BreakerFails   int    // consecutive failures before an endpoint trips
	BreakerTTLS    int    // seconds an endpoint stays tripped
	ServiceBaseURL string // base URL tenant RPC endpoints hang off
}

const (
	defaultTimeoutMS   = 8000
	defaultConcurrency = 8
	defaultBreakerFail = 2
	defaultBreakerTTLS = 60
)

func (c Config) withDefaults() Config {
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = defaultTimeoutMS
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.BreakerFails <= 0 {
		c.BreakerFails = defaultBreakerFail
	}
	if c.BreakerTTLS <= 0 {
		c.BreakerTTLS = defaultBreakerTTLS
	}
	return c
}

// TenantResolver is the slice of the catalog the orchestrator needs.
type TenantResolver interface {
	TenantByID(ctx context.Context, id int64) (*catalog.Tenant, error)
}

// Orchestrator runs brief fan-outs. It is safe for concurrent use; all
// orchestrations share one semaphore and one breaker registry.
type Orchestrator struct {
	cfg      Config
	breakers *circuitbreaker.Registry
	tenants  TenantResolver
	log      *logger.Logger
	sem      chan struct{}
}

// New builds an orchestrator.
func New(cfg Config, tenants TenantResolver) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		cfg:      cfg,
		breakers: circuitbreaker.New(),
		tenants:  tenants,
		log:      logger.New("orchestrator"),
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// task is one planned agent call, or a pre-failed slot for a target that
// could not be resolved.
type task struct {
	agent    types.AgentDescriptor
	prefail  string
	isSignal bool
}

// Orchestrate fans the brief out to every tenant sales endpoint and external
// agent and waits for all of them. Result order matches input order: tenant
// targets first, then external sales agents; signals results are split out.
// Individual agent failures land in their slot, they never fail the fan-out.
func (o *Orchestrator) Orchestrate(ctx context.Context, brief string, tenantIDs []int64, externalAgents []types.AgentDescriptor) (*types.OrchestrationResult, error) {
	if strings.TrimSpace(brief) == "" {
		return nil, contract.ErrEmptyBrief
	}

	tasks := o.planTasks(ctx, tenantIDs, externalAgents)

	start := time.Now()
	outcomes := make([]types.AgentCallResult, len(tasks))
	var wg sync.WaitGroup
	for i, tk := range tasks {
		if tk.prefail != "" {
			outcomes[i] = types.Failure(tk.agent, tk.prefail)
			continue
		}
		wg.Add(1)
		go func(i int, tk task) {
			defer wg.Done()
			if tk.isSignal {
				outcomes[i] = o.callSignalsAgent(ctx, tk.agent, brief)
			} else {
				outcomes[i] = o.callSalesAgent(ctx, tk.agent, brief)
			}
		}(i, tk)
	}
	wg.Wait()

	result := &types.OrchestrationResult{
		Results: []types.AgentCallResult{},
		Signals: []types.AgentCallResult{},
	}
	for i, tk := range tasks {
		if tk.isSignal {
			result.Signals = append(result.Signals, outcomes[i])
		} else {
			result.Results = append(result.Results, outcomes[i])
		}
	}

	o.log.InfoWithDuration("", "", "orchestration complete", float64(time.Since(start).Milliseconds()),
		map[string]interface{}{
			"sales_results":   len(result.Results),
			"signals_results": len(result.Signals),
		})
	return result, nil
}

// planTasks resolves tenant targets and merges in external agents. A tenant
// id that does not resolve becomes a failed slot so the caller still sees one
// outcome per requested target.
func (o *Orchestrator) planTasks(ctx context.Context, tenantIDs []int64, externalAgents []types.AgentDescriptor) []task {
	tasks := make([]task, 0, len(tenantIDs)+len(externalAgents))

	for _, id := range tenantIDs {
		tenant, err := o.tenants.TenantByID(ctx, id)
		if err != nil || tenant == nil {
			if err != nil {
				o.log.ErrorWithErr("", "", "tenant lookup failed", err, map[string]interface{}{"tenant_id": id})
			}
			tasks = append(tasks, task{
				agent:   types.AgentDescriptor{Name: fmt.Sprintf("tenant-%d", id), Type: types.AgentTypeSales, Protocol: types.ProtocolMCP},
				prefail: fmt.Sprintf("unknown tenant: %d", id),
			})
			continue
		}
		tasks = append(tasks, task{
			agent: types.AgentDescriptor{
				Name:     tenant.Name,
				URL:      o.tenantEndpoint(tenant.Slug),
				Type:     types.AgentTypeSales,
				Protocol: types.ProtocolMCP,
			},
		})
	}

	for _, agent := range externalAgents {
		tasks = append(tasks, task{agent: agent, isSignal: agent.Type == types.AgentTypeSignals})
	}
	return tasks
}

func (o *Orchestrator) tenantEndpoint(slug string) string {
	return strings.TrimRight(o.cfg.ServiceBaseURL, "/") + "/mcp/agents/" + slug + "/rpc"
}

// acquire takes a semaphore slot, giving up if the fan-out context dies
// first.
func (o *Orchestrator) acquire(ctx context.Context) error {
	select {
	case o.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) release() {
	<-o.sem
}
