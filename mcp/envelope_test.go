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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestValid(t *testing.T) {
	req, rpcErr := ParseRequest([]byte(`{"jsonrpc":"2.0","id":7,"method":"rank_products","params":{"brief":"camping"}}`))
	require.Nil(t, rpcErr)
	assert.Equal(t, "2.0", req.JSONRPC)
	assert.Equal(t, float64(7), req.ID)
	assert.Equal(t, "rank_products", req.Method)
	assert.Equal(t, "camping", req.Params["brief"])
}

func TestParseRequestStringID(t *testing.T) {
	req, rpcErr := ParseRequest([]byte(`{"jsonrpc":"2.0","id":"req-1","method":"initialize","params":{}}`))
	require.Nil(t, rpcErr)
	assert.Equal(t, "req-1", req.ID)
}

func TestParseRequestRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"not JSON", `hello`, "invalid request: not a JSON object"},
		{"JSON array", `[1,2]`, "invalid request: not a JSON object"},
		{"JSON null", `null`, "invalid request: not a JSON object"},
		{"missing jsonrpc", `{"id":1,"method":"x","params":{}}`, "invalid request: jsonrpc must be '2.0'"},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"x","params":{}}`, "invalid request: jsonrpc must be '2.0'"},
		{"missing id", `{"jsonrpc":"2.0","method":"x","params":{}}`, "invalid request: missing id"},
		{"bare method only", `{"method":"x"}`, "invalid request: jsonrpc must be '2.0'"},
		{"missing method", `{"jsonrpc":"2.0","id":1,"params":{}}`, "invalid request: missing method"},
		{"non-string method", `{"jsonrpc":"2.0","id":1,"method":7,"params":{}}`, "invalid request: method must be a string"},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"x"}`, "invalid request: missing params"},
		{"array params", `{"jsonrpc":"2.0","id":1,"method":"x","params":[1]}`, "invalid request: params must be an object"},
		{"null params", `{"jsonrpc":"2.0","id":1,"method":"x","params":null}`, "invalid request: params must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rpcErr := ParseRequest([]byte(tt.body))
			assert.Nil(t, req)
			require.NotNil(t, rpcErr)
			assert.Equal(t, CodeInvalidRequest, rpcErr.Code)
			assert.Equal(t, tt.message, rpcErr.Message)
		})
	}
}

func TestParseRequestEmptyParamsObject(t *testing.T) {
	req, rpcErr := ParseRequest([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	require.Nil(t, rpcErr)
	assert.NotNil(t, req.Params)
	assert.Empty(t, req.Params)
}

func TestResponseEnvelopes(t *testing.T) {
	ok := NewResult(1, map[string]interface{}{"x": 1})
	assert.Equal(t, "2.0", ok.JSONRPC)
	assert.Nil(t, ok.Error)

	bad := NewError(nil, CodeMethodNotFound, "method not found: nope")
	require.NotNil(t, bad.Error)
	assert.Equal(t, CodeMethodNotFound, bad.Error.Code)
	assert.Nil(t, bad.Result)
}
