package gateway

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuki-h/gh-org-activity/internal/progress"
)

// newBareGateway builds a gateway without HTTP clients, recording every
// sleep instead of actually waiting. Enough for exercising the retry loop
// with hand-written operation funcs.
func newBareGateway(sleeps *[]time.Duration) *Gateway {
	return &Gateway{
		quota:    NewQuotaTracker(),
		branches: NewBranchCache(),
		progress: progress.Noop{},
		logger:   log.New(io.Discard, "", 0),
		sleep: func(_ context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return nil
		},
		cfg: Config{Organization: "acme", PageSize: 100},
	}
}

func statusErr(code int) error {
	return &github.ErrorResponse{Response: &http.Response{StatusCode: code}}
}

func TestGateway_Call_RetryTermination(t *testing.T) {
	var sleeps []time.Duration
	g := newBareGateway(&sleeps)

	attempts := 0
	err := g.call(context.Background(), "widgets", "count commits", func() (*github.Response, error) {
		attempts++
		return nil, statusErr(http.StatusServiceUnavailable)
	})

	// A permanently failing retryable operation is attempted exactly three
	// times, then propagated with repository and operation context.
	assert.Equal(t, 3, attempts)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "widgets", opErr.Repo)
	assert.Equal(t, "count commits", opErr.Op)
	assert.Equal(t, http.StatusServiceUnavailable, opErr.Status)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, sleeps)
}

func TestGateway_Call_Classification(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		wantAttempts int
		wantFatal    bool
	}{
		{name: "502 is retryable", err: statusErr(http.StatusBadGateway), wantAttempts: 3, wantFatal: true},
		{name: "429 is retryable", err: statusErr(http.StatusTooManyRequests), wantAttempts: 3, wantFatal: true},
		{name: "network error is retryable", err: &net.DNSError{Err: "no such host"}, wantAttempts: 3, wantFatal: true},
		{name: "401 is fatal immediately", err: statusErr(http.StatusUnauthorized), wantAttempts: 1, wantFatal: true},
		{name: "500 is fatal immediately", err: statusErr(http.StatusInternalServerError), wantAttempts: 1, wantFatal: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sleeps []time.Duration
			g := newBareGateway(&sleeps)

			attempts := 0
			err := g.call(context.Background(), "widgets", "op", func() (*github.Response, error) {
				attempts++
				return nil, tc.err
			})

			assert.Equal(t, tc.wantAttempts, attempts)
			if tc.wantFatal {
				var opErr *OperationError
				assert.ErrorAs(t, err, &opErr)
			}
		})
	}
}

func TestGateway_Call_EmptyHistoryPassesThrough(t *testing.T) {
	var sleeps []time.Duration
	g := newBareGateway(&sleeps)

	attempts := 0
	err := g.call(context.Background(), "widgets", "op", func() (*github.Response, error) {
		attempts++
		return nil, statusErr(http.StatusConflict)
	})

	// Missing history is data, not failure: one attempt, no wrapping, so the
	// caller can classify it and degrade to a zero value.
	assert.Equal(t, 1, attempts)
	assert.True(t, isEmptyHistory(err))
	var opErr *OperationError
	assert.False(t, errors.As(err, &opErr))
}

func TestGateway_Call_RecoversAfterTransientFailure(t *testing.T) {
	var sleeps []time.Duration
	g := newBareGateway(&sleeps)

	attempts := 0
	err := g.call(context.Background(), "widgets", "op", func() (*github.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, statusErr(http.StatusBadGateway)
		}
		return nil, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestGateway_Call_ProactiveThrottle(t *testing.T) {
	var sleeps []time.Duration
	g := newBareGateway(&sleeps)
	g.quota.Observe(&github.Response{Rate: github.Rate{
		Limit:     5000,
		Remaining: 10,
		Reset:     github.Timestamp{Time: time.Now().Add(10 * time.Second)},
	}})

	err := g.call(context.Background(), "widgets", "op", func() (*github.Response, error) {
		return nil, nil
	})

	require.NoError(t, err)
	require.Len(t, sleeps, 1)
	// Roughly reset delay plus the 5s grace; the exact value depends on when
	// time.Now is sampled inside the call.
	assert.InDelta(t, float64(15*time.Second), float64(sleeps[0]), float64(time.Second))
}

func TestBackoffDelay(t *testing.T) {
	testCases := []struct {
		name    string
		attempt int
		status  int
		want    time.Duration
	}{
		{name: "first retry", attempt: 1, status: http.StatusBadGateway, want: 1 * time.Second},
		{name: "second retry doubles", attempt: 2, status: http.StatusBadGateway, want: 2 * time.Second},
		{name: "third retry doubles again", attempt: 3, status: http.StatusBadGateway, want: 4 * time.Second},
		{name: "403 forces the rate-limit floor", attempt: 1, status: http.StatusForbidden, want: 60 * time.Second},
		{name: "403 floor holds on later attempts", attempt: 3, status: http.StatusForbidden, want: 60 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, backoffDelay(tc.attempt, tc.status))
		})
	}
}
