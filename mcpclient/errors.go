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

package mcpclient

import "fmt"

// ConfigError reports a client misconfiguration detected before any network
// traffic happens.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mcp client misconfigured: %s", e.Reason)
}

// HTTPError reports a non-2xx transport response. BodyPreview holds at most
// the first few hundred bytes of the body for log context.
type HTTPError struct {
	StatusCode  int
	Method      string
	URL         string
	BodyPreview string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s %s: %s", e.StatusCode, e.Method, e.URL, e.BodyPreview)
}

// RPCError reports an error envelope returned by the remote agent.
type RPCError struct {
	Code      int
	Message   string
	RequestID interface{}
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TimeoutError reports that the per-call deadline elapsed before the agent
// answered.
type TimeoutError struct {
	TimeoutMS int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Request timed out after %dms", e.TimeoutMS)
}
