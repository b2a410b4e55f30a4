// Package gateway implements the GitHub-facing collection engine: a REST and
// GraphQL client pair wrapped with quota tracking, retry/backoff, pagination
// and the per-repository metric collectors built on top of them.
package gateway

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/mizuki-h/gh-org-activity/internal/progress"
)

// Config is the slice of the run configuration the gateway consumes.
type Config struct {
	Organization  string
	PageSize      int
	SkipLineStats bool
}

// Gateway talks to the GitHub API on behalf of the collectors. The quota
// tracker and branch cache are shared across all concurrent fetches.
type Gateway struct {
	rest     *github.Client
	graphql  *githubv4.Client
	quota    *QuotaTracker
	branches *BranchCache
	progress progress.Sink
	logger   *log.Logger
	sleep    sleepFunc
	cfg      Config
}

// NewGateway builds a Gateway whose HTTP transport stacks the oauth2 token
// source on top of the secondary-rate-limit waiter, so abuse-limit sleeps
// happen below the retry policy.
func NewGateway(token string, cfg Config, sink progress.Sink, logger *log.Logger) (*Gateway, error) {
	waiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   waiter,
			Source: ts,
		},
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Gateway{
		rest:     github.NewClient(httpClient),
		graphql:  githubv4.NewClient(httpClient),
		quota:    NewQuotaTracker(),
		branches: NewBranchCache(),
		progress: sink,
		logger:   logger,
		sleep:    sleepWithContext,
		cfg:      cfg,
	}, nil
}
