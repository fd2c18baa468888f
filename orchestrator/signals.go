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
	"encoding/json"
	"fmt"
	"sort"

	"admesh/platform/shared/types"
)

// Field aliases accepted from signals agents. Vendors disagree on naming;
// the first populated alias wins.
var (
	signalIDAliases = []string{"id", "signal_id", "signalId"}
	nameAliases     = []string{"name", "title", "signal_name"}
	reasonAliases   = []string{"reason", "rationale", "description"}
	scoreAliases    = []string{"score", "confidence", "relevance"}
)

// normalizeSignals converts a signals agent's result document into the
// canonical signal shape. The document may be {"signals": [...]} or a bare
// array. An entry counts as valid only when it carries both an id and a
// name; a document with entries but no valid ones is an agent bug and is
// reported with the keys seen, to make vendor triage possible from the
// error alone.
func normalizeSignals(raw json.RawMessage) ([]types.Signal, error) {
	entries, err := signalEntries(raw)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []types.Signal{}, nil
	}

	signals := make([]types.Signal, 0, len(entries))
	for _, entry := range entries {
		sig := types.Signal{
			SignalID: firstString(entry, signalIDAliases),
			Name:     firstString(entry, nameAliases),
			Reason:   firstString(entry, reasonAliases),
			Score:    firstFloat(entry, scoreAliases),
		}
		if sig.SignalID == "" || sig.Name == "" {
			continue
		}
		signals = append(signals, sig)
	}

	if len(signals) == 0 {
		return nil, fmt.Errorf("invalid_response: no valid signals found; keys=%v", sortedKeys(entries[0]))
	}
	return signals, nil
}

// signalEntries accepts both wrapped and bare signal lists.
func signalEntries(raw json.RawMessage) ([]map[string]interface{}, error) {
	var wrapped struct {
		Signals []map[string]interface{} `json:"signals"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Signals != nil {
		return wrapped.Signals, nil
	}

	var bare []map[string]interface{}
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("invalid_response: signals payload is neither an object nor an array")
}

func firstString(entry map[string]interface{}, aliases []string) string {
	for _, key := range aliases {
		if v, ok := entry[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(entry map[string]interface{}, aliases []string) *float64 {
	for _, key := range aliases {
		if v, ok := entry[key].(float64); ok {
			return &v
		}
	}
	return nil
}

func sortedKeys(entry map[string]interface{}) []string {
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
