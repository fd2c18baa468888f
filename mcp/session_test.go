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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	store := NewMemorySessionStoreWithClock(time.Minute, clock.Now)

	assert.False(t, store.HasActive(ctx, "acme"))

	id, err := store.Create(ctx, "acme")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	tenant, ok := store.Validate(ctx, id)
	assert.True(t, ok)
	assert.Equal(t, "acme", tenant)
	assert.True(t, store.HasActive(ctx, "acme"))

	store.Delete(ctx, id)
	_, ok = store.Validate(ctx, id)
	assert.False(t, ok)
	assert.False(t, store.HasActive(ctx, "acme"))
}

func TestSessionExpiryBoundary(t *testing.T) {
	// A session is live up to and including its expiry instant; it becomes
	// invalid strictly after it.
	ctx := context.Background()
	clock := newStepClock()
	store := NewMemorySessionStoreWithClock(time.Minute, clock.Now)

	id, err := store.Create(ctx, "acme")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, ok := store.Validate(ctx, id)
	assert.True(t, ok, "session still valid exactly at expiry")

	clock.Advance(time.Nanosecond)
	_, ok = store.Validate(ctx, id)
	assert.False(t, ok, "session invalid strictly after expiry")
}

func TestSessionExpiryHealsTenantIndex(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	store := NewMemorySessionStoreWithClock(time.Minute, clock.Now)

	_, err := store.Create(ctx, "acme")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	assert.False(t, store.HasActive(ctx, "acme"), "expired session must not count as active")
}

func TestCreateOverwritesTenantIndex(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute)

	first, err := store.Create(ctx, "acme")
	require.NoError(t, err)
	second, err := store.Create(ctx, "acme")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Both ids validate, but the tenant index points at the newer one:
	// deleting the older session must not clear the index.
	store.Delete(ctx, first)
	assert.True(t, store.HasActive(ctx, "acme"))

	store.Delete(ctx, second)
	assert.False(t, store.HasActive(ctx, "acme"))
}

func TestValidateUnknownSession(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	_, ok := store.Validate(context.Background(), "nope")
	assert.False(t, ok)
}

func TestTTLClamping(t *testing.T) {
	assert.Equal(t, DefaultSessionTTL, clampTTL(0))
	assert.Equal(t, DefaultSessionTTL, clampTTL(-time.Second))
	assert.Equal(t, MinSessionTTL, clampTTL(time.Millisecond))
	assert.Equal(t, 5*time.Minute, clampTTL(5*time.Minute))
}
