// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Repository identifies one repository of the organization listing.
// Identity is the name; the archived flag is carried through to the report unchanged.
type Repository struct {
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// DateRange is the reporting window. Both bounds are inclusive: a record at
// timestamp T is in range iff Start <= T <= End, where End has already been
// pushed to the last instant of its day by NewDateRange.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a range from two calendar dates, extending the end date
// to 23:59:59 so that activity on the end day itself is included.
func NewDateRange(start, end time.Time) DateRange {
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	return DateRange{Start: start, End: end}
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// LineDelta is the net added/deleted line count over a date range.
// It is derived per call, never stored.
type LineDelta struct {
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// RepoMetrics holds the activity counts for a single repository.
// It is assembled once per repository and immutable afterwards.
type RepoMetrics struct {
	Name                  string   `json:"name"`
	Archived              bool     `json:"archived"`
	Commits               int      `json:"commits"`
	LinesAdded            int      `json:"lines_added"`
	LinesDeleted          int      `json:"lines_deleted"`
	TotalLines            int      `json:"total_lines"`
	PullRequests          int      `json:"pull_requests"`
	Contributors          int      `json:"contributors"`
	ContributorIdentities []string `json:"contributor_identities,omitempty"`
	Releases              int      `json:"releases"`
	Issues                int      `json:"issues"`
}

// OrgReport is the final aggregate handed to the output layer: the ordered
// per-repository records plus organization-wide totals for the same window.
type OrgReport struct {
	Organization string         `json:"organization"`
	Range        DateRange      `json:"range"`
	Repositories []*RepoMetrics `json:"repositories"`
	Totals       OrgTotals      `json:"totals"`
}

// OrgTotals sums the per-repository metrics and carries two distribution
// figures so a large organization's report is readable at a glance.
type OrgTotals struct {
	Repositories  int     `json:"repositories"`
	Commits       int     `json:"commits"`
	LinesAdded    int     `json:"lines_added"`
	LinesDeleted  int     `json:"lines_deleted"`
	PullRequests  int     `json:"pull_requests"`
	Releases      int     `json:"releases"`
	Issues        int     `json:"issues"`
	Contributors  int     `json:"contributors"`
	MeanCommits   float64 `json:"mean_commits_per_repo"`
	MedianCommits float64 `json:"median_commits_per_repo"`
}
