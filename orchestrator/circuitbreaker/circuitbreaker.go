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

// Package circuitbreaker tracks consecutive failures per upstream endpoint
// and short-circuits calls to endpoints that keep failing.
//
// The registry is process-wide shared state: one instance is constructed at
// startup and injected into every call site. Thresholds and cooldowns are
// per-call parameters, not per-endpoint state, so different call sites can
// apply different policies against the same registry.
package circuitbreaker

import (
	"sync"
	"time"
)

// entry holds breaker state for one endpoint. Entries are created lazily on
// first failure and never deleted; the endpoint set is bounded by the
// configured agents.
type entry struct {
	consecutiveFails int
	trippedUntil     time.Time
}

// Registry is a concurrency-safe per-endpoint failure counter with cooldown
// gating. The zero value is not usable; construct with New.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	// now is swappable for deterministic tests. time.Time carries a
	// monotonic reading, so wall-clock jumps do not untrip breakers early.
	now func() time.Time
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// NewWithClock returns a registry using the given clock. Tests use this to
// advance time without sleeping.
func NewWithClock(now func() time.Time) *Registry {
	r := New()
	r.now = now
	return r
}

// Allow reports whether calls to the endpoint may proceed. It returns false
// only while a trip is active. Observing an elapsed cooldown clears the trip
// marker as a side effect, but deliberately does not reset the failure
// count: only an explicit RecordSuccess does that.
func (r *Registry) Allow(endpointKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[endpointKey]
	if !ok {
		return true
	}

	if !e.trippedUntil.IsZero() {
		if e.trippedUntil.After(r.now()) {
			return false
		}
		// Cooldown elapsed; clear the trip marker.
		e.trippedUntil = time.Time{}
	}
	return true
}

// RecordFailure increments the endpoint's consecutive failure count and
// trips the breaker for cooldown once the count reaches failThreshold.
func (r *Registry) RecordFailure(endpointKey string, failThreshold int, cooldown time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[endpointKey]
	if !ok {
		e = &entry{}
		r.entries[endpointKey] = e
	}

	e.consecutiveFails++
	if e.consecutiveFails >= failThreshold {
		e.trippedUntil = r.now().Add(cooldown)
	}
}

// RecordSuccess zeroes the failure count and clears any active trip.
func (r *Registry) RecordSuccess(endpointKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[endpointKey]; ok {
		e.consecutiveFails = 0
		e.trippedUntil = time.Time{}
	}
}
