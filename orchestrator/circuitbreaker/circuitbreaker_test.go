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

package circuitbreaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestAllowUnknownEndpoint(t *testing.T) {
	r := New()
	assert.True(t, r.Allow("https://agent.example.com"))
}

// TestTripsExactlyAtThreshold verifies the breaker opens on the call
// immediately following the threshold-th consecutive failure, not before.
func TestTripsExactlyAtThreshold(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(clock.Now)
	const key = "https://agent.example.com"

	r.RecordFailure(key, 3, time.Minute)
	assert.True(t, r.Allow(key), "one failure below threshold must not trip")

	r.RecordFailure(key, 3, time.Minute)
	assert.True(t, r.Allow(key), "two failures below threshold must not trip")

	r.RecordFailure(key, 3, time.Minute)
	assert.False(t, r.Allow(key), "third failure reaches threshold and trips")
}

func TestSuccessResetsCounter(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(clock.Now)
	const key = "https://agent.example.com"

	r.RecordFailure(key, 2, time.Minute)
	r.RecordSuccess(key)

	// Counter restarted from zero: one more failure must not trip.
	r.RecordFailure(key, 2, time.Minute)
	assert.True(t, r.Allow(key))

	r.RecordFailure(key, 2, time.Minute)
	assert.False(t, r.Allow(key))
}

// TestCooldownExpiryReopens verifies Allow flips back to true after the
// cooldown without an explicit reset call.
func TestCooldownExpiryReopens(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(clock.Now)
	const key = "https://agent.example.com"

	r.RecordFailure(key, 1, 30*time.Second)
	assert.False(t, r.Allow(key))

	clock.Advance(29 * time.Second)
	assert.False(t, r.Allow(key), "cooldown not yet elapsed")

	clock.Advance(2 * time.Second)
	assert.True(t, r.Allow(key), "cooldown elapsed; breaker half-opens")
}

// TestExpiryDoesNotResetCounter pins the asymmetry: observing an elapsed
// cooldown clears the trip but keeps the failure count, so a single new
// failure re-trips immediately.
func TestExpiryDoesNotResetCounter(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(clock.Now)
	const key = "https://agent.example.com"

	r.RecordFailure(key, 2, 10*time.Second)
	r.RecordFailure(key, 2, 10*time.Second)
	assert.False(t, r.Allow(key))

	clock.Advance(11 * time.Second)
	assert.True(t, r.Allow(key))

	// Count is still at 2, so the next failure is over threshold.
	r.RecordFailure(key, 2, 10*time.Second)
	assert.False(t, r.Allow(key))
}

func TestEndpointsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(clock.Now)

	r.RecordFailure("https://a.example.com", 1, time.Minute)
	assert.False(t, r.Allow("https://a.example.com"))
	assert.True(t, r.Allow("https://b.example.com"))
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	const key = "https://agent.example.com"

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.RecordFailure(key, 1000, time.Minute)
			r.Allow(key)
		}()
		go func() {
			defer wg.Done()
			r.RecordSuccess(key)
		}()
	}
	wg.Wait()

	assert.True(t, r.Allow(key))
}
