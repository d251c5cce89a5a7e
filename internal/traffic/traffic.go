// Package traffic keeps sliding windows of API request outcomes for health evaluation.
package traffic

import (
	"sync"
	"time"
)

// Outcome classifies a finished request.
type Outcome int

const (
	// Success is a request answered below 500.
	Success Outcome = iota
	// Failure is a request answered with a 5xx status.
	Failure
	// Denied is a request rejected by the rate limiter.
	Denied
	numOutcomes
)

// retention bounds memory; health windows are shorter.
const retention = 5 * time.Minute

var defaultTracker = NewTracker()

// Record records an outcome on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// RequestCount returns outcomes of all kinds within window on the process-wide tracker.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns rate-limit denials within window on the process-wide tracker.
func DenialCount(window time.Duration) int {
	return defaultTracker.Count(Denied, window)
}

// ErrorRate returns (failures, failures+successes) within window on the process-wide tracker.
func ErrorRate(window time.Duration) (failures, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears the process-wide tracker. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker holds one timestamp series per outcome.
type Tracker struct {
	mu     sync.Mutex
	series [numOutcomes][]time.Time
	now    func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Record appends an outcome at the current time.
func (t *Tracker) Record(o Outcome) {
	if o < 0 || o >= numOutcomes {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.series[o] = append(t.series[o], now)
	t.pruneLocked(now)
}

// Count returns how many o outcomes fall within window.
func (t *Tracker) Count(o Outcome, window time.Duration) int {
	if o < 0 || o >= numOutcomes {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return countSince(t.series[o], t.now().Add(-window))
}

// RequestCount returns the number of outcomes of every kind within window.
func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	n := 0
	for _, s := range t.series {
		n += countSince(s, cutoff)
	}
	return n
}

// ErrorRate returns (failures, failures+successes) within window. Denials are excluded.
func (t *Tracker) ErrorRate(window time.Duration) (failures, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	failures = countSince(t.series[Failure], cutoff)
	return failures, failures + countSince(t.series[Success], cutoff)
}

// Reset clears all series.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.series {
		t.series[i] = nil
	}
}

// countSince counts timestamps not before cutoff. Series are append-only in time order.
func countSince(times []time.Time, cutoff time.Time) int {
	for i, ts := range times {
		if !ts.Before(cutoff) {
			return len(times) - i
		}
	}
	return 0
}

func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	for i, s := range t.series {
		drop := len(s) - countSince(s, cutoff)
		if drop > 0 {
			t.series[i] = append(s[:0], s[drop:]...)
		}
	}
}
