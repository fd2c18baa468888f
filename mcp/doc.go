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

// Package mcp implements the inbound MCP JSON-RPC 2.0 surface of the sales
// gateway: envelope validation, the session store with TTL expiry, method
// dispatch, and the tenant-scoped HTTP endpoints.
//
// Error envelopes always travel over HTTP 200; the HTTP status codes are
// reserved for transport-level problems. Error codes follow JSON-RPC 2.0:
// -32600 invalid request, -32601 method not found, -32602 invalid params,
// and -32000 for application-level failures.
package mcp
