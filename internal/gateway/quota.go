package gateway

import (
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
)

const (
	// throttleThreshold is the remaining-request count below which outgoing
	// calls proactively wait for the quota window to reset.
	throttleThreshold = 100

	// maxThrottleWait caps how long a single proactive wait may be. Beyond
	// this the caller proceeds anyway rather than stalling indefinitely; the
	// server's own rate limiting is the real enforcement.
	maxThrottleWait = 1 * time.Hour

	// throttleGrace is added on top of the reset delay so the first request
	// after the reset does not race the server clock.
	throttleGrace = 5 * time.Second
)

// QuotaTracker holds the API quota state derived from response headers.
// It is shared by every concurrent fetch and safe for concurrent use.
// It never sleeps itself; callers decide what to do with WaitDuration.
type QuotaTracker struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
}

// NewQuotaTracker starts from an optimistic default so the first requests of
// a run are never throttled. Nothing is persisted across runs.
func NewQuotaTracker() *QuotaTracker {
	return &QuotaTracker{remaining: 5000}
}

// Observe updates the tracker from a response's rate-limit headers.
// Responses without rate information leave the state untouched.
func (q *QuotaTracker) Observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	q.mu.Lock()
	q.remaining = resp.Rate.Remaining
	q.reset = resp.Rate.Reset.Time
	q.mu.Unlock()
}

// ShouldThrottle reports whether the remaining quota has dropped low enough
// that the caller should wait for the reset before dispatching. The
// read-then-decide sequence is advisory: two concurrent operations may both
// decide to wait, which is acceptable.
func (q *QuotaTracker) ShouldThrottle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining < throttleThreshold
}

// WaitDuration returns how long to wait before the quota resets: the delay
// until the reset plus a small grace period, never negative and never more
// than maxThrottleWait.
func (q *QuotaTracker) WaitDuration(now time.Time) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	wait := q.reset.Sub(now)
	if wait < 0 {
		wait = 0
	}
	wait += throttleGrace
	if wait > maxThrottleWait {
		wait = maxThrottleWait
	}
	return wait
}

// Remaining returns the last observed remaining-request count.
func (q *QuotaTracker) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining
}
