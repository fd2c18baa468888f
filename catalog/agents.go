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

package catalog

import (
	"context"
	"fmt"

	"admesh/platform/shared/types"
)

// EnabledExternalAgents lists the registered external agents of the given
// type that are enabled, as descriptors the orchestrator can fan out to.
func (s *Store) EnabledExternalAgents(ctx context.Context, agentType types.AgentType) ([]types.AgentDescriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, base_url, agent_type, protocol FROM external_agents "+
			"WHERE enabled = TRUE AND agent_type = $1 ORDER BY id",
		string(agentType))
	if err != nil {
		return nil, fmt.Errorf("failed to list external agents: %w", err)
	}
	defer rows.Close()

	var agents []types.AgentDescriptor
	for rows.Next() {
		var a types.AgentDescriptor
		var at string
		if err := rows.Scan(&a.Name, &a.URL, &at, &a.Protocol); err != nil {
			return nil, fmt.Errorf("failed to scan external agent: %w", err)
		}
		a.Type = types.AgentType(at)
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
