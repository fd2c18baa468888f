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
	"database/sql"
	"errors"
	"fmt"
)

// Tenant is one publisher account whose catalog the gateway serves.
type Tenant struct {
	ID           int64
	Name         string
	Slug         string
	CustomPrompt string // empty means the default sales prompt applies
}

const tenantColumns = "id, name, slug, COALESCE(custom_prompt, '')"

// TenantBySlug returns the tenant with the given slug, or nil when no such
// tenant exists.
func (s *Store) TenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE slug = $1", slug)
	return scanTenant(row)
}

// TenantByID returns the tenant with the given id, or nil when no such
// tenant exists.
func (s *Store) TenantByID(ctx context.Context, id int64) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
	return scanTenant(row)
}

func scanTenant(row *sql.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.CustomPrompt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return &t, nil
}
