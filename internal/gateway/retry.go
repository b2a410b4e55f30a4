package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
)

const (
	maxAttempts        = 3
	backoffBase        = 1 * time.Second
	rateLimitWaitFloor = 60 * time.Second
)

// OperationError is the fatal-error wrapper: it names the repository and the
// operation that failed so the top-level failure is actionable without logs.
type OperationError struct {
	Repo   string
	Op     string
	Status int
	Err    error
}

func (e *OperationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failed (HTTP %d): %v", e.Repo, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Repo, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// ErrEmptyRepository signals that a repository has no usable history for an
// operation. Collectors degrade to zero values on it instead of failing.
var ErrEmptyRepository = errors.New("repository has no usable history")

// httpStatus extracts the HTTP status code from a go-github error, or 0.
func httpStatus(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}
	return 0
}

// isEmptyHistory reports whether err is the API's way of saying a repository
// has no history for the requested operation (missing branch, empty repo,
// unprocessable range). These are data, not failures.
func isEmptyHistory(err error) bool {
	if errors.Is(err, ErrEmptyRepository) {
		return true
	}
	switch httpStatus(err) {
	case http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// isRetryable classifies a failure. Connection-level failures and a fixed set
// of HTTP statuses are transient; everything else is fatal.
func isRetryable(err error) bool {
	switch httpStatus(err) {
	case http.StatusForbidden,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// backoffDelay computes the delay before the given 1-based retry attempt.
// A 403 is conservatively treated as quota exhaustion and forces a 60s floor
// even though it can also mean a permission problem on one repository; see
// the note in DESIGN.md before changing this.
func backoffDelay(attempt, status int) time.Duration {
	delay := backoffBase << (attempt - 1)
	if status == http.StatusForbidden && delay < rateLimitWaitFloor {
		delay = rateLimitWaitFloor
	}
	return delay
}

// sleepFunc waits for d or until the context is done. Swapped out in tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// call runs one remote operation with the proactive throttle, the retry loop
// and fatal-error wrapping. fn returns the response so the quota tracker can
// observe rate-limit headers on every attempt that produced one.
func (g *Gateway) call(ctx context.Context, repo, op string, fn func() (*github.Response, error)) error {
	g.progress.Notify(repo, op)

	if g.quota.ShouldThrottle() {
		wait := g.quota.WaitDuration(time.Now())
		g.logger.Printf("quota low (%d remaining), waiting %v before %s on %s", g.quota.Remaining(), wait, op, repo)
		if err := g.sleep(ctx, wait); err != nil {
			return &OperationError{Repo: repo, Op: op, Err: err}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := fn()
		g.quota.Observe(resp)
		if err == nil {
			return nil
		}
		lastErr = err

		if isEmptyHistory(err) {
			// Not retried and not fatal: the caller decides what zero means.
			return err
		}
		if !isRetryable(err) {
			break
		}
		if attempt == maxAttempts {
			break
		}

		delay := backoffDelay(attempt, httpStatus(err))
		g.logger.Printf("%s on %s failed (attempt %d/%d), retrying in %v: %v", op, repo, attempt, maxAttempts, delay, err)
		if err := g.sleep(ctx, delay); err != nil {
			return &OperationError{Repo: repo, Op: op, Err: err}
		}
	}

	return &OperationError{Repo: repo, Op: op, Status: httpStatus(lastErr), Err: lastErr}
}
