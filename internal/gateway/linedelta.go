package gateway

import (
	"context"
	"time"

	"github.com/google/go-github/v62/github"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

// The line-delta resolution runs as a small state machine rather than nested
// conditionals, so the fallback policy stays auditable. The happy path is
// resolvingHead -> resolvingBase -> comparing -> done; when no commit exists
// before the window the machine detours through fallbackRootParent.
type deltaState int

const (
	stateResolvingHead deltaState = iota
	stateResolvingBase
	stateFallbackRootParent
	stateComparing
	stateDone
)

// deltaRun carries the machine's working set between states.
type deltaRun struct {
	repo   string
	branch string
	rng    domain.DateRange

	head   string
	base   string
	result domain.LineDelta
}

// CollectLineDelta computes the net added/deleted lines on branch within the
// range, using only point queries: "latest commit at or before T" and a
// two-commit comparison. The single base->head comparison captures the net
// effect of every commit in the window, so reverted lines are not counted
// twice.
//
// Missing history (404/409/422) at any step yields a zero delta, never an
// error.
func (g *Gateway) CollectLineDelta(ctx context.Context, repo, branch string, rng domain.DateRange) (domain.LineDelta, error) {
	if g.cfg.SkipLineStats {
		return domain.LineDelta{}, nil
	}

	run := &deltaRun{repo: repo, branch: branch, rng: rng}
	state := stateResolvingHead
	for state != stateDone {
		var err error
		switch state {
		case stateResolvingHead:
			state, err = g.resolveHead(ctx, run)
		case stateResolvingBase:
			state, err = g.resolveBase(ctx, run)
		case stateFallbackRootParent:
			state, err = g.fallbackToRootParent(ctx, run)
		case stateComparing:
			state, err = g.compare(ctx, run)
		}
		if err != nil {
			if isEmptyHistory(err) {
				return domain.LineDelta{}, nil
			}
			return domain.LineDelta{}, err
		}
	}
	return run.result, nil
}

// latestCommitUntil returns the SHA of the most recent commit on the branch
// with a timestamp at or before until, or "" when no such commit exists.
func (g *Gateway) latestCommitUntil(ctx context.Context, repo, branch, op string, until time.Time) (string, error) {
	var sha string
	err := g.call(ctx, repo, op, func() (*github.Response, error) {
		commits, resp, err := g.rest.Repositories.ListCommits(ctx, g.cfg.Organization, repo, &github.CommitsListOptions{
			SHA:         branch,
			Until:       until,
			ListOptions: github.ListOptions{PerPage: 1},
		})
		if err != nil {
			return resp, err
		}
		if len(commits) > 0 {
			sha = commits[0].GetSHA()
		}
		return resp, nil
	})
	return sha, err
}

// resolveHead finds the newest commit at or before the end of the range.
// No such commit means the repository has no history up to the range end.
func (g *Gateway) resolveHead(ctx context.Context, run *deltaRun) (deltaState, error) {
	sha, err := g.latestCommitUntil(ctx, run.repo, run.branch, "resolve head commit", run.rng.End)
	if err != nil {
		return stateDone, err
	}
	if sha == "" {
		return stateDone, nil
	}
	run.head = sha
	return stateResolvingBase, nil
}

// resolveBase finds the last commit strictly before the window, the baseline
// for the comparison. When the range start predates all history the machine
// falls back to the root-parent strategy.
func (g *Gateway) resolveBase(ctx context.Context, run *deltaRun) (deltaState, error) {
	sha, err := g.latestCommitUntil(ctx, run.repo, run.branch, "resolve baseline commit", run.rng.Start.Add(-time.Millisecond))
	if err != nil {
		return stateDone, err
	}
	if sha == "" {
		return stateFallbackRootParent, nil
	}
	run.base = sha
	return stateComparing, nil
}

// fallbackToRootParent handles a window that starts before the first commit:
// list the in-range commits, take the oldest, and use its parent as the
// baseline. A parentless oldest commit is the repository's root commit, and
// its own recorded stats are the answer, since everything in it was added
// relative to an empty tree.
func (g *Gateway) fallbackToRootParent(ctx context.Context, run *deltaRun) (deltaState, error) {
	var inRange []*github.RepositoryCommit
	err := fetchPages(ctx, g, run.repo, "list commits in range",
		func(page int) ([]*github.RepositoryCommit, *github.Response, error) {
			return g.rest.Repositories.ListCommits(ctx, g.cfg.Organization, run.repo, &github.CommitsListOptions{
				SHA:         run.branch,
				Since:       run.rng.Start,
				Until:       run.rng.End,
				ListOptions: github.ListOptions{Page: page, PerPage: g.cfg.PageSize},
			})
		},
		func(c *github.RepositoryCommit) bool {
			inRange = append(inRange, c)
			return true
		})
	if err != nil {
		return stateDone, err
	}
	if len(inRange) == 0 {
		return stateDone, nil
	}

	// The API returns commits newest first, so the oldest is last.
	oldest := inRange[len(inRange)-1].GetSHA()

	var detail *github.RepositoryCommit
	err = g.call(ctx, run.repo, "inspect oldest commit", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		detail, resp, err = g.rest.Repositories.GetCommit(ctx, g.cfg.Organization, run.repo, oldest, nil)
		return resp, err
	})
	if err != nil {
		return stateDone, err
	}

	if len(detail.Parents) == 0 {
		run.result = domain.LineDelta{
			Added:   detail.GetStats().GetAdditions(),
			Deleted: detail.GetStats().GetDeletions(),
		}
		return stateDone, nil
	}

	run.base = detail.Parents[0].GetSHA()
	return stateComparing, nil
}

// compare issues the single base->head comparison and sums the per-file
// counts. base == head means no commits happened inside the window.
func (g *Gateway) compare(ctx context.Context, run *deltaRun) (deltaState, error) {
	if run.base == run.head {
		return stateDone, nil
	}

	var cmp *github.CommitsComparison
	err := g.call(ctx, run.repo, "compare baseline and head", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		cmp, resp, err = g.rest.Repositories.CompareCommits(ctx, g.cfg.Organization, run.repo, run.base, run.head, nil)
		return resp, err
	})
	if err != nil {
		return stateDone, err
	}

	var delta domain.LineDelta
	for _, f := range cmp.Files {
		delta.Added += f.GetAdditions()
		delta.Deleted += f.GetDeletions()
	}
	run.result = delta
	return stateDone, nil
}
