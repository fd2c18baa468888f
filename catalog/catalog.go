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

// Package catalog provides read access to the tenant, product, and external
// agent tables. The catalog is read-mostly from the gateway's perspective;
// writes belong to the operator CRUD layer, which is a separate concern.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"admesh/platform/shared/logger"
)

// Store wraps the catalog database.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// NewStore wraps an existing database handle. Tests pass a sqlmock handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, log: logger.New("catalog")}
}

// Open connects to PostgreSQL, configures the pool, and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(db), nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}
