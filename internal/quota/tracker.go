// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package quota enforces per-identity upload limits over rolling time
// windows. State is in-memory and per-process; a restart resets it.
package quota

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Policy holds the caps and window lengths for both identity classes.
type Policy struct { //nolint:govet // fieldalignment: readability over optimization
	AnonymousLimit      int
	AnonymousWindow     time.Duration
	AuthenticatedLimit  int
	AuthenticatedWindow time.Duration
	SweepInterval       time.Duration
}

// DefaultPolicy mirrors the product defaults: 3 uploads per 2 hours for
// anonymous visitors, 10 per day for account holders, hourly GC.
func DefaultPolicy() Policy {
	return Policy{
		AnonymousLimit:      3,
		AnonymousWindow:     2 * time.Hour,
		AuthenticatedLimit:  10,
		AuthenticatedWindow: 24 * time.Hour,
		SweepInterval:       time.Hour,
	}
}

func (p Policy) limit(authenticated bool) int {
	if authenticated {
		return p.AuthenticatedLimit
	}
	return p.AnonymousLimit
}

func (p Policy) window(authenticated bool) time.Duration {
	if authenticated {
		return p.AuthenticatedWindow
	}
	return p.AnonymousWindow
}

// ExceededError is returned by Acquire when an identity is at its cap.
// RetryAfter is the time left until the current window resets.
type ExceededError struct {
	RetryAfter    time.Duration
	Authenticated bool
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("upload quota exceeded, retry in %s", e.RetryAfter)
}

// record tracks consumption for one identity. windowStart marks the
// beginning of the current window; it is only moved by a lazy reset or a
// reclaim, never by an accepted upload.
type record struct {
	count         int
	windowStart   time.Time
	authenticated bool
}

// Tracker is a shared counter map guarded by a single mutex. Every
// check-then-increment happens under one lock hold, so two concurrent
// requests can never both pass a cap check that only one should pass.
type Tracker struct { //nolint:govet // fieldalignment: readability over optimization
	mu      sync.Mutex
	records map[string]*record
	policy  Policy

	now func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// NewTracker creates a tracker with the given policy. The sweeper is not
// running until Start is called.
func NewTracker(policy Policy) *Tracker {
	return &Tracker{
		records: make(map[string]*record),
		policy:  policy,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// SetClock replaces the time source. Tests use this to step through
// windows deterministically.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// get returns the record for key, creating it lazily and applying the
// rolling-window reset. Callers must hold t.mu.
func (t *Tracker) get(key string, authenticated bool, now time.Time) *record {
	rec, ok := t.records[key]
	if !ok {
		rec = &record{windowStart: now, authenticated: authenticated}
		t.records[key] = rec
	}
	rec.authenticated = authenticated

	// Lazy reset happens before any cap check.
	if now.Sub(rec.windowStart) >= t.policy.window(authenticated) {
		rec.count = 0
		rec.windowStart = now
	}
	return rec
}

// Acquire consumes one quota unit for the identity. At the cap it returns
// an *ExceededError and consumes nothing.
func (t *Tracker) Acquire(key string, authenticated bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.get(key, authenticated, now)

	if rec.count >= t.policy.limit(authenticated) {
		retryAfter := t.policy.window(authenticated) - now.Sub(rec.windowStart)
		return &ExceededError{RetryAfter: retryAfter, Authenticated: authenticated}
	}

	rec.count++
	return nil
}

// Reclaim hands one unit back after a document deletion. The count is
// floored at zero and the window restarts from now.
func (t *Tracker) Reclaim(key string, authenticated bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.get(key, authenticated, now)
	if rec.count > 0 {
		rec.count--
	}
	rec.windowStart = now
}

// Remaining reports how many units the identity has left in the current
// window.
func (t *Tracker) Remaining(key string, authenticated bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.get(key, authenticated, t.now())
	remaining := t.policy.limit(authenticated) - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Len returns the number of tracked identities.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Start launches the background sweep. It runs until Stop is called.
func (t *Tracker) Start() {
	interval := t.policy.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				evicted := t.Sweep()
				if evicted > 0 {
					slog.Debug("quota_sweep", "evicted", evicted)
				}
			case <-t.done:
				return
			}
		}
	}()
}

// Stop terminates the background sweep. Safe to call more than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// Sweep evicts records idle for more than twice their class window, so
// one-off anonymous visitors do not grow the map without bound. Returns
// the number of evicted records.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	evicted := 0
	for key, rec := range t.records {
		if now.Sub(rec.windowStart) >= 2*t.policy.window(rec.authenticated) {
			delete(t.records, key)
			evicted++
		}
	}
	return evicted
}
