package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-github/v62/github"
)

// BranchCache maps repository names to their resolved default branch. It is
// shared across all concurrent fetches; Clear gives callers a fresh view,
// e.g. between two comparison periods.
type BranchCache struct {
	mu       sync.Mutex
	branches map[string]string
}

func NewBranchCache() *BranchCache {
	return &BranchCache{branches: make(map[string]string)}
}

func (c *BranchCache) get(repo string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	branch, ok := c.branches[repo]
	return branch, ok
}

func (c *BranchCache) put(repo, branch string) {
	c.mu.Lock()
	c.branches[repo] = branch
	c.mu.Unlock()
}

// Clear drops every cached entry.
func (c *BranchCache) Clear() {
	c.mu.Lock()
	c.branches = make(map[string]string)
	c.mu.Unlock()
}

// ResolveDefaultBranch returns the repository's default branch, consulting
// the cache first. A not-found or empty-history answer here is authoritative:
// the whole repository is treated as empty and ErrEmptyRepository is
// returned instead of a fatal error.
func (g *Gateway) ResolveDefaultBranch(ctx context.Context, repo string) (string, error) {
	if branch, ok := g.branches.get(repo); ok {
		return branch, nil
	}

	var branch string
	err := g.call(ctx, repo, "detect default branch", func() (*github.Response, error) {
		r, resp, err := g.rest.Repositories.Get(ctx, g.cfg.Organization, repo)
		if err != nil {
			return resp, err
		}
		branch = r.GetDefaultBranch()
		return resp, nil
	})
	if err != nil {
		if isEmptyHistory(err) {
			return "", fmt.Errorf("%s: %w", repo, ErrEmptyRepository)
		}
		return "", err
	}
	if branch == "" {
		return "", fmt.Errorf("%s: %w", repo, ErrEmptyRepository)
	}

	g.branches.put(repo, branch)
	return branch, nil
}
