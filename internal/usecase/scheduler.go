// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

// Collector produces the metric record for one repository.
type Collector interface {
	CollectRepoMetrics(ctx context.Context, repo domain.Repository, rng domain.DateRange) (*domain.RepoMetrics, error)
}

// Scheduler drives the collector across the organization's repositories in
// consecutive batches of a fixed size. The batch model caps peak concurrent
// quota use at exactly the concurrency limit; the trade-off is that one slow
// repository stalls its batch's tail.
type Scheduler struct {
	collector   Collector
	concurrency int
	logger      *log.Logger
}

// NewScheduler creates a Scheduler. A non-positive concurrency collapses to
// sequential collection.
func NewScheduler(collector Collector, concurrency int, logger *log.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{
		collector:   collector,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run collects metrics for every repository and returns the records in the
// same order as the input list, regardless of completion order inside a
// batch. A fatal error in any repository aborts the whole run.
func (s *Scheduler) Run(ctx context.Context, repos []domain.Repository, rng domain.DateRange) ([]*domain.RepoMetrics, error) {
	results := make([]*domain.RepoMetrics, len(repos))

	for start := 0; start < len(repos); start += s.concurrency {
		end := min(start+s.concurrency, len(repos))
		s.logger.Printf("collecting repositories %d-%d of %d", start+1, end, len(repos))

		eg, egCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			eg.Go(func() error {
				m, err := s.collector.CollectRepoMetrics(egCtx, repos[i], rng)
				if err != nil {
					return err
				}
				results[i] = m
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// FilterRepositories applies the include/exclude name lists from the run
// configuration. An empty include list means every repository is eligible.
func FilterRepositories(repos []domain.Repository, include, exclude []string) []domain.Repository {
	included := make(map[string]bool, len(include))
	for _, name := range include {
		included[name] = true
	}
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	filtered := make([]domain.Repository, 0, len(repos))
	for _, repo := range repos {
		if len(included) > 0 && !included[repo.Name] {
			continue
		}
		if excluded[repo.Name] {
			continue
		}
		filtered = append(filtered, repo)
	}
	return filtered
}
