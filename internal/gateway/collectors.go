package gateway

import (
	"context"
	"sort"

	"github.com/google/go-github/v62/github"
	"golang.org/x/sync/errgroup"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

// CountCommits counts the commits on branch whose timestamps fall in the
// range. The window is filtered server-side, so pagination alone terminates.
func (g *Gateway) CountCommits(ctx context.Context, repo, branch string, rng domain.DateRange) (int, error) {
	count := 0
	err := fetchPages(ctx, g, repo, "count commits",
		func(page int) ([]*github.RepositoryCommit, *github.Response, error) {
			return g.rest.Repositories.ListCommits(ctx, g.cfg.Organization, repo, &github.CommitsListOptions{
				SHA:         branch,
				Since:       rng.Start,
				Until:       rng.End,
				ListOptions: github.ListOptions{Page: page, PerPage: g.cfg.PageSize},
			})
		},
		func(*github.RepositoryCommit) bool {
			count++
			return true
		})
	if err != nil {
		if isEmptyHistory(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// CollectContributors returns the deduplicated set of commit author
// identities in the range. An identity is the author's login when present,
// otherwise the commit email.
func (g *Gateway) CollectContributors(ctx context.Context, repo, branch string, rng domain.DateRange) ([]string, error) {
	seen := make(map[string]struct{})
	err := fetchPages(ctx, g, repo, "collect contributors",
		func(page int) ([]*github.RepositoryCommit, *github.Response, error) {
			return g.rest.Repositories.ListCommits(ctx, g.cfg.Organization, repo, &github.CommitsListOptions{
				SHA:         branch,
				Since:       rng.Start,
				Until:       rng.End,
				ListOptions: github.ListOptions{Page: page, PerPage: g.cfg.PageSize},
			})
		},
		func(c *github.RepositoryCommit) bool {
			identity := c.GetAuthor().GetLogin()
			if identity == "" {
				identity = c.GetCommit().GetAuthor().GetEmail()
			}
			if identity != "" {
				seen[identity] = struct{}{}
			}
			return true
		})
	if err != nil {
		if isEmptyHistory(err) {
			return nil, nil
		}
		return nil, err
	}

	identities := make([]string, 0, len(seen))
	for identity := range seen {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	return identities, nil
}

// CountPullRequests counts pull requests created inside the range. The list
// is sorted by creation time descending, so the first item older than the
// window proves every remaining page is older too.
func (g *Gateway) CountPullRequests(ctx context.Context, repo string, rng domain.DateRange) (int, error) {
	count := 0
	err := fetchPages(ctx, g, repo, "count pull requests",
		func(page int) ([]*github.PullRequest, *github.Response, error) {
			return g.rest.PullRequests.List(ctx, g.cfg.Organization, repo, &github.PullRequestListOptions{
				State:       "all",
				Sort:        "created",
				Direction:   "desc",
				ListOptions: github.ListOptions{Page: page, PerPage: g.cfg.PageSize},
			})
		},
		func(pr *github.PullRequest) bool {
			created := pr.GetCreatedAt().Time
			if created.Before(rng.Start) {
				return false
			}
			if rng.Contains(created) {
				count++
			}
			return true
		})
	if err != nil {
		if isEmptyHistory(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// CountReleases counts releases created inside the range, with the same
// descending-sort early stop as pull requests. The publish timestamp wins
// over the creation timestamp when both are present.
func (g *Gateway) CountReleases(ctx context.Context, repo string, rng domain.DateRange) (int, error) {
	count := 0
	err := fetchPages(ctx, g, repo, "count releases",
		func(page int) ([]*github.RepositoryRelease, *github.Response, error) {
			return g.rest.Repositories.ListReleases(ctx, g.cfg.Organization, repo, &github.ListOptions{
				Page: page, PerPage: g.cfg.PageSize,
			})
		},
		func(rel *github.RepositoryRelease) bool {
			ts := rel.GetCreatedAt().Time
			if rel.PublishedAt != nil {
				ts = rel.GetPublishedAt().Time
			}
			if ts.Before(rng.Start) {
				return false
			}
			if rng.Contains(ts) {
				count++
			}
			return true
		})
	if err != nil {
		if isEmptyHistory(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// CollectRepoMetrics assembles the full metric record for one repository.
// The branch resolve runs first; an empty repository short-circuits to a
// zero-filled record. The six collectors then run concurrently, and each one
// degrades to its zero value on an empty-history answer, so one API surprise
// cannot discard the others' results.
func (g *Gateway) CollectRepoMetrics(ctx context.Context, repo domain.Repository, rng domain.DateRange) (*domain.RepoMetrics, error) {
	m := &domain.RepoMetrics{Name: repo.Name, Archived: repo.Archived}

	branch, err := g.ResolveDefaultBranch(ctx, repo.Name)
	if err != nil {
		if isEmptyHistory(err) {
			g.logger.Printf("%s: empty repository, recording zero metrics", repo.Name)
			return m, nil
		}
		return nil, err
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		m.Commits, err = g.CountCommits(egCtx, repo.Name, branch, rng)
		return err
	})
	eg.Go(func() error {
		delta, err := g.CollectLineDelta(egCtx, repo.Name, branch, rng)
		if err != nil {
			return err
		}
		m.LinesAdded = delta.Added
		m.LinesDeleted = delta.Deleted
		return nil
	})
	eg.Go(func() error {
		var err error
		m.PullRequests, err = g.CountPullRequests(egCtx, repo.Name, rng)
		return err
	})
	eg.Go(func() error {
		var err error
		m.ContributorIdentities, err = g.CollectContributors(egCtx, repo.Name, branch, rng)
		return err
	})
	eg.Go(func() error {
		var err error
		m.Releases, err = g.CountReleases(egCtx, repo.Name, rng)
		return err
	})
	eg.Go(func() error {
		var err error
		m.Issues, err = g.CountIssues(egCtx, repo.Name, rng)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m.Contributors = len(m.ContributorIdentities)
	m.TotalLines = m.LinesAdded + m.LinesDeleted
	g.progress.Notify(repo.Name, "collection complete")
	return m, nil
}
