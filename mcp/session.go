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
	"time"

	"github.com/google/uuid"
)

// MinSessionTTL is the floor applied to configured session TTLs so a
// deployment cannot accidentally run with sub-second sessions.
const MinSessionTTL = time.Second

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 60 * time.Second

// SessionStore binds opaque session ids to tenant slugs with TTL expiry.
// Expiry is enforced lazily on lookup; there is no background sweep.
type SessionStore interface {
	// Create mints a new unguessable session id for the tenant and
	// overwrites the tenant's active-session index.
	Create(ctx context.Context, tenant string) (string, error)
	// Validate returns the owning tenant while the session is live. An
	// expired session is deleted on observation.
	Validate(ctx context.Context, sessionID string) (string, bool)
	// HasActive reports whether the tenant currently holds a live session,
	// re-validating through the tenant index so stale entries self-heal.
	HasActive(ctx context.Context, tenant string) bool
	// Delete removes a session. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, sessionID string)
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultSessionTTL
	}
	if ttl < MinSessionTTL {
		return MinSessionTTL
	}
	return ttl
}

type sessionEntry struct {
	tenant    string
	expiresAt time.Time
}

// MemorySessionStore is the in-process SessionStore. A mutex guards both the
// session table and the tenant index; the two are always updated together.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	tenants  map[string]string // tenant slug -> session id
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a store with the given TTL (clamped to the
// documented floor).
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]sessionEntry),
		tenants:  make(map[string]string),
		ttl:      clampTTL(ttl),
		now:      time.Now,
	}
}

// NewMemorySessionStoreWithClock injects a clock for deterministic expiry
// tests.
func NewMemorySessionStoreWithClock(ttl time.Duration, now func() time.Time) *MemorySessionStore {
	s := NewMemorySessionStore(ttl)
	s.now = now
	return s
}

// Create implements SessionStore.
func (s *MemorySessionStore) Create(_ context.Context, tenant string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.sessions[id] = sessionEntry{tenant: tenant, expiresAt: s.now().Add(s.ttl)}
	s.tenants[tenant] = id
	return id, nil
}

// Validate implements SessionStore.
func (s *MemorySessionStore) Validate(_ context.Context, sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(sessionID)
}

// validateLocked is the lazy-expiry core; the caller holds the lock.
func (s *MemorySessionStore) validateLocked(sessionID string) (string, bool) {
	entry, ok := s.sessions[sessionID]
	if !ok {
		return "", false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		if s.tenants[entry.tenant] == sessionID {
			delete(s.tenants, entry.tenant)
		}
		return "", false
	}
	return entry.tenant, true
}

// HasActive implements SessionStore.
func (s *MemorySessionStore) HasActive(_ context.Context, tenant string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.tenants[tenant]
	if !ok {
		return false
	}
	_, live := s.validateLocked(id)
	return live
}

// Delete implements SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(s.sessions, sessionID)
	if s.tenants[entry.tenant] == sessionID {
		delete(s.tenants, entry.tenant)
	}
}
