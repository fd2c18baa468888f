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
)

// Product is one sellable inventory entry in a tenant's catalog.
type Product struct {
	ID            int64
	TenantID      int64
	Name          string
	Description   string
	DeliveryType  string
	PriceCPM      float64
	FormatsJSON   string // raw JSON array, decoded leniently at the wire edge
	TargetingJSON string // raw JSON object, decoded leniently at the wire edge
}

const productColumns = "id, tenant_id, name, COALESCE(description, ''), " +
	"COALESCE(delivery_type, ''), COALESCE(price_cpm, 0), " +
	"COALESCE(formats_json, ''), COALESCE(targeting_json, '')"

// ProductsByTenant lists a tenant's products, oldest first, up to limit.
func (s *Store) ProductsByTenant(ctx context.Context, tenantID int64, limit int) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE tenant_id = $1 ORDER BY id LIMIT $2",
		tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description,
			&p.DeliveryType, &p.PriceCPM, &p.FormatsJSON, &p.TargetingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
