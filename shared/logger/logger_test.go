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

package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"
)

// TestNew tests logger initialization
func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		component      string
		instanceID     string
		expectedComp   string
		expectedInstID string
	}{
		{
			name:           "with instance ID set",
			component:      "mcp-gateway",
			instanceID:     "instance-123",
			expectedComp:   "mcp-gateway",
			expectedInstID: "instance-123",
		},
		{
			name:           "without instance ID",
			component:      "orchestrator",
			instanceID:     "",
			expectedComp:   "orchestrator",
			expectedInstID: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.instanceID != "" {
				if err := os.Setenv("INSTANCE_ID", tt.instanceID); err != nil {
					t.Fatalf("Failed to set INSTANCE_ID: %v", err)
				}
				defer func() {
					if err := os.Unsetenv("INSTANCE_ID"); err != nil {
						t.Errorf("Failed to unset INSTANCE_ID: %v", err)
					}
				}()
			} else {
				if err := os.Unsetenv("INSTANCE_ID"); err != nil {
					t.Fatalf("Failed to unset INSTANCE_ID: %v", err)
				}
			}

			l := New(tt.component)

			if l.Component != tt.expectedComp {
				t.Errorf("Expected component %s, got %s", tt.expectedComp, l.Component)
			}
			if l.InstanceID != tt.expectedInstID {
				t.Errorf("Expected instance ID %s, got %s", tt.expectedInstID, l.InstanceID)
			}
			if l.Container == "" {
				t.Error("Expected container to be set from hostname")
			}
		})
	}
}

// TestLogEntryShape verifies that entries serialize with the tenant and
// request id fields intact.
func TestLogEntryShape(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := New("mcp-gateway")
	l.Info("acme", "req-42", "rpc dispatched", map[string]interface{}{"method": "rank_products"})

	line := buf.String()
	start := strings.Index(line, "{")
	if start < 0 {
		t.Fatalf("expected JSON log line, got %q", line)
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(line[start:])), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}

	if entry.Level != INFO {
		t.Errorf("expected level INFO, got %s", entry.Level)
	}
	if entry.Tenant != "acme" {
		t.Errorf("expected tenant acme, got %s", entry.Tenant)
	}
	if entry.RequestID != "req-42" {
		t.Errorf("expected request id req-42, got %s", entry.RequestID)
	}
	if entry.Fields["method"] != "rank_products" {
		t.Errorf("expected method field, got %v", entry.Fields)
	}
}

// TestInfoWithDuration verifies the duration field is attached
func TestInfoWithDuration(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := New("orchestrator")
	l.InfoWithDuration("", "", "fan-out complete", 12.5, nil)

	if !strings.Contains(buf.String(), `"duration_ms":12.5`) {
		t.Errorf("expected duration_ms field, got %q", buf.String())
	}
}
