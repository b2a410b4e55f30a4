package gateway

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/require"

	"github.com/mizuki-h/gh-org-activity/internal/progress"
)

// setupTestGateway creates a Gateway that communicates with a mock HTTP server.
// Sleeps are recorded instead of executed so retry paths stay fast.
func setupTestGateway(t *testing.T, handler http.Handler) (*Gateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	// Point the REST client at the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// NewEnterpriseClient points the GraphQL client at the mock server too.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL+"/graphql", server.Client())

	g := &Gateway{
		rest:     restClient,
		graphql:  graphqlClient,
		quota:    NewQuotaTracker(),
		branches: NewBranchCache(),
		progress: progress.Noop{},
		logger:   log.New(io.Discard, "", 0),
		sleep:    func(context.Context, time.Duration) error { return nil },
		cfg:      Config{Organization: "acme", PageSize: 100},
	}
	return g, server
}
