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

import "encoding/json"

// Request is a validated JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string
	ID      interface{}
	Method  string
	Params  map[string]interface{}
}

// ErrorObject is the error member of a JSON-RPC error response.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// NewResult builds a success response for the given request id.
func NewResult(id, result interface{}) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

// NewError builds an error response. id may be nil when the request id was
// never recovered from the payload.
func NewError(id interface{}, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &ErrorObject{Code: code, Message: message}}
}

// ParseRequest validates a JSON-RPC 2.0 envelope. The checks run in a fixed
// order so the rejection message for a given payload is deterministic.
func ParseRequest(body []byte) (*Request, *RPCError) {
	var raw map[string]json.RawMessage
	// A bare JSON null unmarshals into a nil map without error.
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, Errorf(CodeInvalidRequest, "invalid request: not a JSON object")
	}

	var version string
	if v, ok := raw["jsonrpc"]; !ok || json.Unmarshal(v, &version) != nil || version != "2.0" {
		return nil, Errorf(CodeInvalidRequest, "invalid request: jsonrpc must be '2.0'")
	}

	idRaw, ok := raw["id"]
	if !ok {
		return nil, Errorf(CodeInvalidRequest, "invalid request: missing id")
	}
	var id interface{}
	if err := json.Unmarshal(idRaw, &id); err != nil {
		return nil, Errorf(CodeInvalidRequest, "invalid request: missing id")
	}

	methodRaw, ok := raw["method"]
	if !ok {
		return nil, Errorf(CodeInvalidRequest, "invalid request: missing method")
	}
	var method string
	if err := json.Unmarshal(methodRaw, &method); err != nil {
		return nil, Errorf(CodeInvalidRequest, "invalid request: method must be a string")
	}

	paramsRaw, ok := raw["params"]
	if !ok {
		return nil, Errorf(CodeInvalidRequest, "invalid request: missing params")
	}
	var params map[string]interface{}
	if err := json.Unmarshal(paramsRaw, &params); err != nil || params == nil {
		return nil, Errorf(CodeInvalidRequest, "invalid request: params must be an object")
	}

	return &Request{JSONRPC: version, ID: id, Method: method, Params: params}, nil
}
