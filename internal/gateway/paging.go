package gateway

import (
	"context"

	"github.com/google/go-github/v62/github"
)

// pageFunc fetches one page of a list endpoint.
type pageFunc[T any] func(page int) ([]T, *github.Response, error)

// fetchPages drives every list-style operation through the same loop: fetch
// page N, stop on an empty page, hand each item to visit, stop early when
// visit returns false (the descending-sort early-stop), stop after a short
// page. Each page request goes through the retry policy and the quota
// tracker via Gateway.call.
//
// The early-stop matters for endpoints sorted by time descending: once one
// item falls before the window, every later item does too, so remaining
// pages are never requested.
func fetchPages[T any](ctx context.Context, g *Gateway, repo, op string, fetch pageFunc[T], visit func(T) bool) error {
	perPage := g.cfg.PageSize
	for page := 1; ; page++ {
		var items []T
		err := g.call(ctx, repo, op, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			items, resp, err = fetch(page)
			return resp, err
		})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for _, item := range items {
			if !visit(item) {
				return nil
			}
		}
		if len(items) < perPage {
			return nil
		}
	}
}
