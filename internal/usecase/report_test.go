package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

func TestBuildReport(t *testing.T) {
	rng := domain.NewDateRange(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	metrics := []*domain.RepoMetrics{
		{
			Name:                  "alpha",
			Archived:              false,
			Commits:               150,
			LinesAdded:            900,
			LinesDeleted:          300,
			PullRequests:          12,
			Contributors:          2,
			ContributorIdentities: []string{"alice", "bob"},
			Releases:              2,
			Issues:                5,
		},
		{
			Name:                  "beta",
			Archived:              true,
			Commits:               20,
			LinesAdded:            100,
			LinesDeleted:          40,
			PullRequests:          3,
			Contributors:          2,
			ContributorIdentities: []string{"bob", "carol"},
			Releases:              1,
			Issues:                1,
		},
	}

	report, err := BuildReport("acme", rng, metrics)
	require.NoError(t, err)

	assert.Equal(t, "acme", report.Organization)
	assert.Equal(t, rng, report.Range)

	// The per-repo breakdown keeps the input order and the archived flags.
	require.Len(t, report.Repositories, 2)
	assert.Equal(t, "alpha", report.Repositories[0].Name)
	assert.False(t, report.Repositories[0].Archived)
	assert.Equal(t, "beta", report.Repositories[1].Name)
	assert.True(t, report.Repositories[1].Archived)

	assert.Equal(t, domain.OrgTotals{
		Repositories:  2,
		Commits:       170,
		LinesAdded:    1000,
		LinesDeleted:  340,
		PullRequests:  15,
		Releases:      3,
		Issues:        6,
		Contributors:  3, // distinct identities across repos, bob counted once
		MeanCommits:   85,
		MedianCommits: 85,
	}, report.Totals)
}

func TestBuildReport_NoRepositories(t *testing.T) {
	rng := domain.NewDateRange(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	)

	report, err := BuildReport("acme", rng, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrgTotals{}, report.Totals)
	assert.Empty(t, report.Repositories)
}
