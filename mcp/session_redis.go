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
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	redisSessionPrefix = "mcp:session:"
	redisTenantPrefix  = "mcp:tenant:"
)

// RedisSessionStore keeps sessions in Redis so multiple gateway replicas
// share one session table. Expiry rides on native key TTLs, which matches
// the lazy-expiry contract: a key that outlived its TTL is simply gone on
// the next lookup.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to Redis and verifies the connection.
func NewRedisSessionStore(redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionStore{client: client, ttl: clampTTL(ttl)}, nil
}

// NewRedisSessionStoreWithClient wraps an existing client. Tests use this
// with miniredis.
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: clampTTL(ttl)}
}

// Create implements SessionStore.
func (s *RedisSessionStore) Create(ctx context.Context, tenant string) (string, error) {
	id := uuid.NewString()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisSessionPrefix+id, tenant, s.ttl)
	pipe.Set(ctx, redisTenantPrefix+tenant, id, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

// Validate implements SessionStore. Redis errors are treated as an invalid
// session; the caller re-initializes rather than crashing the request.
func (s *RedisSessionStore) Validate(ctx context.Context, sessionID string) (string, bool) {
	tenant, err := s.client.Get(ctx, redisSessionPrefix+sessionID).Result()
	if err != nil {
		return "", false
	}
	return tenant, true
}

// HasActive implements SessionStore.
func (s *RedisSessionStore) HasActive(ctx context.Context, tenant string) bool {
	id, err := s.client.Get(ctx, redisTenantPrefix+tenant).Result()
	if err != nil {
		return false
	}
	if _, live := s.Validate(ctx, id); !live {
		// Stale index entry; heal it.
		s.client.Del(ctx, redisTenantPrefix+tenant)
		return false
	}
	return true
}

// Delete implements SessionStore.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) {
	tenant, err := s.client.Get(ctx, redisSessionPrefix+sessionID).Result()
	if err == nil {
		if indexed, err := s.client.Get(ctx, redisTenantPrefix+tenant).Result(); err == nil && indexed == sessionID {
			s.client.Del(ctx, redisTenantPrefix+tenant)
		}
	}
	s.client.Del(ctx, redisSessionPrefix+sessionID)
}
