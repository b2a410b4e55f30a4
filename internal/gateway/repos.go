package gateway

import (
	"context"
	"fmt"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

// ListOrgRepositories pages through the organization's repository listing
// and returns the handles in the API's order. This order is what the batch
// scheduler later preserves in the report.
func (g *Gateway) ListOrgRepositories(ctx context.Context) ([]domain.Repository, error) {
	var repos []domain.Repository
	err := fetchPages(ctx, g, g.cfg.Organization, "list organization repositories",
		func(page int) ([]*github.Repository, *github.Response, error) {
			return g.rest.Repositories.ListByOrg(ctx, g.cfg.Organization, &github.RepositoryListByOrgOptions{
				Type:        "all",
				ListOptions: github.ListOptions{Page: page, PerPage: g.cfg.PageSize},
			})
		},
		func(r *github.Repository) bool {
			repos = append(repos, domain.Repository{
				Name:     r.GetName(),
				Archived: r.GetArchived(),
			})
			return true
		})
	if err != nil {
		return nil, err
	}
	return repos, nil
}

// issueCountQuery asks the search endpoint for a bare count, which is one
// point query instead of a paged listing.
type issueCountQuery struct {
	Search struct {
		IssueCount githubv4.Int
	} `graphql:"search(query: $query, type: ISSUE, first: 1)"`
}

// CountIssues returns the number of issues created in the range, via a
// single GraphQL search. Pull requests are excluded by the is:issue
// qualifier.
func (g *Gateway) CountIssues(ctx context.Context, repo string, rng domain.DateRange) (int, error) {
	const day = "2006-01-02"
	query := fmt.Sprintf("repo:%s/%s is:issue created:%s..%s",
		g.cfg.Organization, repo, rng.Start.Format(day), rng.End.Format(day))

	var q issueCountQuery
	err := g.call(ctx, repo, "count issues", func() (*github.Response, error) {
		return nil, g.graphql.Query(ctx, &q, map[string]interface{}{
			"query": githubv4.String(query),
		})
	})
	if err != nil {
		if isEmptyHistory(err) {
			return 0, nil
		}
		return 0, err
	}
	return int(q.Search.IssueCount), nil
}
