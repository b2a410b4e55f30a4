package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
)

func TestGateway_ListOrgRepositories(t *testing.T) {
	pages := []string{
		`[{"name": "alpha", "archived": false}, {"name": "beta", "archived": true}]`,
		`[{"name": "gamma", "archived": false}]`,
	}
	var requested []int
	g, _ := setupTestGateway(t, pagedHandler(pages, &requested))
	g.cfg.PageSize = 2

	repos, err := g.ListOrgRepositories(context.Background())
	require.NoError(t, err)

	// The listing order and the archived flags carry through unchanged.
	assert.Equal(t, []domain.Repository{
		{Name: "alpha", Archived: false},
		{Name: "beta", Archived: true},
		{Name: "gamma", Archived: false},
	}, repos)
	assert.Equal(t, []int{1, 2}, requested)
}

func TestGateway_CountIssues(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "repo:acme/widgets is:issue created:2026-01-10..2026-01-20")
		fmt.Fprint(w, `{"data": {"search": {"issueCount": 7}}}`)
	})
	g, _ := setupTestGateway(t, handler)

	count, err := g.CountIssues(context.Background(), "widgets", testRange)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
