package contract

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubFetcher implements the RepoFetcher interface against the GitHub REST API.
type GitHubFetcher struct {
	client *github.Client
}

var _ RepoFetcher = &GitHubFetcher{} // Compile-time check

// NewGitHubFetcher creates a fetcher. An empty token yields an unauthenticated
// client with lower rate limits.
func NewGitHubFetcher(ctx context.Context, token string) *GitHubFetcher {
	if token == "" {
		return &GitHubFetcher{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHubFetcher{client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// NewGitHubFetcherWithClient wraps an existing client, e.g. one pointed at a test server.
func NewGitHubFetcherWithClient(client *github.Client) *GitHubFetcher {
	return &GitHubFetcher{client: client}
}

// SearchRepos implements the RepoFetcher interface. Results are sorted by stars, descending.
func (f *GitHubFetcher) SearchRepos(ctx context.Context, query string, page, perPage int) ([]RemoteRepo, int, error) {
	opts := &github.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}
	result, resp, err := f.client.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("repository search failed on page %d: %w", page, err)
	}

	repos := make([]RemoteRepo, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, RemoteRepo{
			Owner:     r.GetOwner().GetLogin(),
			Name:      r.GetName(),
			FullName:  r.GetFullName(),
			HTMLURL:   r.GetHTMLURL(),
			Stars:     int64(r.GetStargazersCount()),
			Language:  r.GetLanguage(),
			Disabled:  r.GetDisabled(),
			CreatedAt: r.GetCreatedAt().Time,
		})
	}
	next := 0
	if resp != nil {
		next = resp.NextPage
	}
	return repos, next, nil
}

// CountReleases implements the RepoFetcher interface.
// With one release per page, the last page number equals the release count.
func (f *GitHubFetcher) CountReleases(ctx context.Context, owner, name string) (int64, error) {
	releases, resp, err := f.client.Repositories.ListReleases(ctx, owner, name, &github.ListOptions{PerPage: 1})
	if err != nil {
		return 0, fmt.Errorf("cannot list releases of %s/%s: %w", owner, name, err)
	}
	if resp != nil && resp.LastPage > 0 {
		return int64(resp.LastPage), nil
	}
	return int64(len(releases)), nil
}
