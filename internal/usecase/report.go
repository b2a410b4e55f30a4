package usecase

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

// BuildReport sums the per-repository records into organization totals.
// Contributor totals count distinct identities across the whole
// organization, not the sum of per-repository counts.
func BuildReport(org string, rng domain.DateRange, metrics []*domain.RepoMetrics) (*domain.OrgReport, error) {
	totals := domain.OrgTotals{Repositories: len(metrics)}
	identities := make(map[string]struct{})
	commitCounts := make([]float64, 0, len(metrics))

	for _, m := range metrics {
		totals.Commits += m.Commits
		totals.LinesAdded += m.LinesAdded
		totals.LinesDeleted += m.LinesDeleted
		totals.PullRequests += m.PullRequests
		totals.Releases += m.Releases
		totals.Issues += m.Issues
		for _, identity := range m.ContributorIdentities {
			identities[identity] = struct{}{}
		}
		commitCounts = append(commitCounts, float64(m.Commits))
	}
	totals.Contributors = len(identities)

	if len(commitCounts) > 0 {
		mean, err := stats.Mean(commitCounts)
		if err != nil {
			return nil, fmt.Errorf("failed to compute mean commits: %w", err)
		}
		median, err := stats.Median(commitCounts)
		if err != nil {
			return nil, fmt.Errorf("failed to compute median commits: %w", err)
		}
		totals.MeanCommits = mean
		totals.MedianCommits = median
	}

	return &domain.OrgReport{
		Organization: org,
		Range:        rng,
		Repositories: metrics,
		Totals:       totals,
	}, nil
}
