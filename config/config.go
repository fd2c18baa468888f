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

// Package config loads service configuration from the environment and the
// optional external agent registry file.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"admesh/platform/shared/types"
)

// Config is the full environment surface of the service.
type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	RedisURL       string `envconfig:"REDIS_URL"`
	ServiceBaseURL string `envconfig:"SERVICE_BASE_URL" default:"http://localhost:8080"`
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	AgentsFile     string `envconfig:"AGENTS_FILE"`

	// Orchestration knobs.
	OrchTimeoutMS   int `envconfig:"ORCH_TIMEOUT_MS_DEFAULT" default:"8000"`
	OrchConcurrency int `envconfig:"ORCH_CONCURRENCY" default:"8"`
	BreakerFails    int `envconfig:"CB_FAILS" default:"2"`
	BreakerTTLS     int `envconfig:"CB_TTL_S" default:"60"`

	// Session TTL in seconds; values below one second are raised to it.
	SessionTTLS int `envconfig:"MCP_SESSION_TTL_S" default:"60"`
}

// Load reads the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// agentsFile is the on-disk shape of the external agent registry.
type agentsFile struct {
	Agents []types.AgentDescriptor `yaml:"agents"`
}

// LoadAgents reads the external agent registry. An empty path means no file
// is configured and yields an empty registry.
func LoadAgents(path string) ([]types.AgentDescriptor, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents file: %w", err)
	}

	var file agentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse agents file: %w", err)
	}

	for i, agent := range file.Agents {
		if agent.Name == "" || agent.URL == "" {
			return nil, fmt.Errorf("agents file entry %d: name and url are required", i)
		}
		if agent.Type != types.AgentTypeSales && agent.Type != types.AgentTypeSignals {
			return nil, fmt.Errorf("agents file entry %d: unknown agent type %q", i, agent.Type)
		}
	}
	return file.Agents, nil
}
