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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStoreWithClient(client, ttl), mr
}

func TestRedisSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, time.Minute)

	id, err := store.Create(ctx, "acme")
	require.NoError(t, err)

	tenant, ok := store.Validate(ctx, id)
	assert.True(t, ok)
	assert.Equal(t, "acme", tenant)
	assert.True(t, store.HasActive(ctx, "acme"))

	store.Delete(ctx, id)
	_, ok = store.Validate(ctx, id)
	assert.False(t, ok)
	assert.False(t, store.HasActive(ctx, "acme"))
}

func TestRedisSessionExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	id, err := store.Create(ctx, "acme")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok := store.Validate(ctx, id)
	assert.False(t, ok)
	assert.False(t, store.HasActive(ctx, "acme"))
}

func TestRedisCreateOverwritesTenantIndex(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, time.Minute)

	first, err := store.Create(ctx, "acme")
	require.NoError(t, err)
	second, err := store.Create(ctx, "acme")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Deleting the superseded session leaves the tenant's current one alone.
	store.Delete(ctx, first)
	assert.True(t, store.HasActive(ctx, "acme"))
}

func TestRedisHasActiveHealsStaleIndex(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	id, err := store.Create(ctx, "acme")
	require.NoError(t, err)

	// Simulate the session key dying while the index key survives.
	mr.Del(redisSessionPrefix + id)

	assert.False(t, store.HasActive(ctx, "acme"))
	assert.False(t, mr.Exists(redisTenantPrefix+"acme"), "stale index entry is removed")
}
