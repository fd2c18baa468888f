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

// Package main is the entry point for the AdMesh platform service.
//
// The service is a sales-agent gateway and orchestration engine that:
// - Serves tenant product catalogs over JSON-RPC (MCP) and a REST shim
// - Pre-filters catalogs per brief with lexical, semantic, or hybrid search
// - Ranks candidates with an LLM, degrading to retrieval order without one
// - Fans briefs out to sales and signals agents behind a circuit breaker
//
// Usage:
//
//	./server
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	DATABASE_URL - PostgreSQL connection string
//	REDIS_URL - Redis URL for shared sessions (optional)
//	SERVICE_BASE_URL - public base URL for tenant RPC endpoints
//	OPENAI_API_KEY - OpenAI API key (optional)
//	AGENTS_FILE - YAML registry of external agents (optional)
//	ORCH_TIMEOUT_MS_DEFAULT - per-agent call timeout (default: 8000)
//	ORCH_CONCURRENCY - fan-out concurrency limit (default: 8)
//	CB_FAILS - failures before an endpoint's breaker trips (default: 2)
//	CB_TTL_S - seconds a tripped breaker stays open (default: 60)
//	MCP_SESSION_TTL_S - session lifetime in seconds (default: 60)
package main

import (
	"admesh/platform/server"
)

func main() {
	server.Run()
}
