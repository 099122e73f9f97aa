// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package quota_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward explicitly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker() (*quota.Tracker, *fakeClock) {
	clock := newFakeClock()
	tracker := quota.NewTracker(quota.DefaultPolicy())
	tracker.SetClock(clock.Now)
	return tracker, clock
}

func TestAcquire_AnonymousCap(t *testing.T) {
	tracker, _ := newTestTracker()

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Acquire("198.51.100.7", false))
	}

	err := tracker.Acquire("198.51.100.7", false)
	require.Error(t, err)

	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.False(t, exceeded.Authenticated)
	assert.Equal(t, 2*time.Hour, exceeded.RetryAfter)
}

func TestAcquire_AuthenticatedCap(t *testing.T) {
	tracker, _ := newTestTracker()

	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.Acquire("42", true))
	}

	err := tracker.Acquire("42", true)
	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.True(t, exceeded.Authenticated)
}

func TestAcquire_IdentitiesAreIndependent(t *testing.T) {
	tracker, _ := newTestTracker()

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Acquire("198.51.100.7", false))
	}

	// A different IP still has its full allowance.
	assert.NoError(t, tracker.Acquire("203.0.113.9", false))
}

func TestAcquire_WindowResetsLazily(t *testing.T) {
	tracker, clock := newTestTracker()

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Acquire("198.51.100.7", false))
	}
	require.Error(t, tracker.Acquire("198.51.100.7", false))

	clock.Advance(2*time.Hour + time.Second)

	// Past the window the identity gets a fresh allowance; the accepted
	// upload counts as the first of the new window, not the fourth.
	require.NoError(t, tracker.Acquire("198.51.100.7", false))
	assert.Equal(t, 2, tracker.Remaining("198.51.100.7", false))
}

func TestAcquire_WindowNotExtendedByActivity(t *testing.T) {
	tracker, clock := newTestTracker()

	require.NoError(t, tracker.Acquire("198.51.100.7", false))

	// Uploads late in the window must not push the reset point out.
	clock.Advance(90 * time.Minute)
	require.NoError(t, tracker.Acquire("198.51.100.7", false))
	require.NoError(t, tracker.Acquire("198.51.100.7", false))

	err := tracker.Acquire("198.51.100.7", false)
	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 30*time.Minute, exceeded.RetryAfter)
}

func TestAcquire_RetryAfterShrinksWithElapsedTime(t *testing.T) {
	tracker, clock := newTestTracker()

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Acquire("198.51.100.7", false))
	}

	clock.Advance(45 * time.Minute)

	err := tracker.Acquire("198.51.100.7", false)
	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, time.Hour+15*time.Minute, exceeded.RetryAfter)
}

func TestReclaim_DecrementsByOne(t *testing.T) {
	tracker, _ := newTestTracker()

	// Authenticated user with 7 of 10 used deletes one document.
	for i := 0; i < 7; i++ {
		require.NoError(t, tracker.Acquire("42", true))
	}
	require.Equal(t, 3, tracker.Remaining("42", true))

	tracker.Reclaim("42", true)

	assert.Equal(t, 4, tracker.Remaining("42", true))
}

func TestReclaim_FlooredAtZero(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.Reclaim("42", true)
	tracker.Reclaim("42", true)

	// Reclaims on an empty record never expand the allowance beyond cap.
	assert.Equal(t, 10, tracker.Remaining("42", true))
}

func TestReclaim_RefreshesWindowStart(t *testing.T) {
	tracker, clock := newTestTracker()

	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.Acquire("198.51.100.7", false))
	}

	clock.Advance(time.Hour)
	tracker.Reclaim("198.51.100.7", false)

	// The reclaim restarted the window, so the full wait applies again.
	require.NoError(t, tracker.Acquire("198.51.100.7", false))
	err := tracker.Acquire("198.51.100.7", false)
	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 2*time.Hour, exceeded.RetryAfter)
}

func TestSweep_EvictsStaleRecords(t *testing.T) {
	tracker, clock := newTestTracker()

	require.NoError(t, tracker.Acquire("198.51.100.7", false))
	require.NoError(t, tracker.Acquire("42", true))
	require.Equal(t, 2, tracker.Len())

	// 2x the anonymous window: only the anonymous record is stale.
	clock.Advance(4 * time.Hour)
	assert.Equal(t, 1, tracker.Sweep())
	assert.Equal(t, 1, tracker.Len())

	// 2x the authenticated window clears the rest.
	clock.Advance(44 * time.Hour)
	assert.Equal(t, 1, tracker.Sweep())
	assert.Equal(t, 0, tracker.Len())
}

func TestSweep_KeepsActiveRecords(t *testing.T) {
	tracker, clock := newTestTracker()

	require.NoError(t, tracker.Acquire("198.51.100.7", false))
	clock.Advance(time.Hour)

	assert.Equal(t, 0, tracker.Sweep())
	assert.Equal(t, 1, tracker.Len())
}

func TestAcquire_Concurrent(t *testing.T) {
	tracker := quota.NewTracker(quota.Policy{
		AnonymousLimit:      3,
		AnonymousWindow:     2 * time.Hour,
		AuthenticatedLimit:  50,
		AuthenticatedWindow: 24 * time.Hour,
		SweepInterval:       time.Hour,
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tracker.Acquire("42", true); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly the cap passes, no matter the interleaving.
	assert.Equal(t, 50, accepted)
}

func TestStop_Idempotent(t *testing.T) {
	tracker := quota.NewTracker(quota.DefaultPolicy())
	tracker.Start()
	tracker.Stop()
	tracker.Stop()
}

func TestExceededError_Message(t *testing.T) {
	err := &quota.ExceededError{RetryAfter: 30 * time.Minute}
	assert.True(t, errors.As(error(err), new(*quota.ExceededError)))
	assert.Contains(t, err.Error(), "quota exceeded")
}
