package contract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, mux *http.ServeMux) *GitHubFetcher {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return NewGitHubFetcherWithClient(client)
}

func TestGitHubFetcherSearchRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "language:Java", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.Header().Set("Link", `<https://api.github.com/search/repositories?page=2>; rel="next"`)
		_, _ = fmt.Fprint(w, `{"total_count": 3, "items": [
			{"name": "guava", "full_name": "google/guava", "html_url": "https://github.com/google/guava",
			 "stargazers_count": 50000, "language": "Java", "disabled": false,
			 "created_at": "2014-05-29T16:23:17Z", "owner": {"login": "google"}},
			{"name": "old", "full_name": "acme/old", "html_url": "https://github.com/acme/old",
			 "stargazers_count": 10, "language": "Kotlin", "disabled": true,
			 "created_at": "2010-01-01T00:00:00Z", "owner": {"login": "acme"}}
		]}`)
	})
	f := newTestFetcher(t, mux)

	repos, next, err := f.SearchRepos(context.Background(), "language:Java", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	require.Len(t, repos, 2)
	assert.Equal(t, "google/guava", repos[0].FullName)
	assert.Equal(t, "google", repos[0].Owner)
	assert.Equal(t, int64(50000), repos[0].Stars)
	assert.Equal(t, time.Date(2014, 5, 29, 16, 23, 17, 0, time.UTC), repos[0].CreatedAt.UTC())
	assert.True(t, repos[1].Disabled)
	assert.Equal(t, "Kotlin", repos[1].Language)
}

func TestGitHubFetcherCountReleases(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/google/guava/releases", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", `<https://api.github.com/repos/google/guava/releases?per_page=1&page=2>; rel="next", `+
			`<https://api.github.com/repos/google/guava/releases?per_page=1&page=42>; rel="last"`)
		_, _ = fmt.Fprint(w, `[{"id": 1}]`)
	})
	mux.HandleFunc("/repos/acme/one/releases", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[{"id": 1}]`)
	})
	mux.HandleFunc("/repos/acme/none/releases", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/acme/gone/releases", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	f := newTestFetcher(t, mux)
	ctx := context.Background()

	n, err := f.CountReleases(ctx, "google", "guava")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = f.CountReleases(ctx, "acme", "one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.CountReleases(ctx, "acme", "none")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = f.CountReleases(ctx, "acme", "gone")
	assert.Error(t, err)
}
