package core

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func remote(owner, name, language string, stars int64, created time.Time) contract.RemoteRepo {
	return contract.RemoteRepo{
		Owner:     owner,
		Name:      name,
		FullName:  owner + "/" + name,
		HTMLURL:   "https://github.com/" + owner + "/" + name,
		Stars:     stars,
		Language:  language,
		CreatedAt: created,
	}
}

func TestRunFetch(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	twoYearsAgo := now.Add(-2 * yearDuration)

	disabled := remote("old", "gone", "Java", 900, twoYearsAgo)
	disabled.Disabled = true

	fetcher := &contract.MockRepoFetcher{}
	fetcher.On("SearchRepos", mock.Anything, "language:Java", 1, 2).
		Return([]contract.RemoteRepo{remote("spring", "boot", "Java", 1000, twoYearsAgo), disabled}, 2, nil).Once()
	fetcher.On("SearchRepos", mock.Anything, "language:Java", 2, 2).
		Return([]contract.RemoteRepo{
			remote("jet", "kotlin", "Kotlin", 800, twoYearsAgo),
			remote("apache", "kafka", "java", 700, twoYearsAgo),
			remote("google", "guava", "Java", 600, twoYearsAgo),
		}, 3, nil).Once()
	fetcher.On("CountReleases", mock.Anything, "spring", "boot").Return(int64(5), nil)
	fetcher.On("CountReleases", mock.Anything, "apache", "kafka").Return(int64(0), errors.New("rate limited"))
	fetcher.On("CountReleases", mock.Anything, "google", "guava").Return(int64(2), nil)

	cfg := &contract.Config{
		InputPath: filepath.Join(t.TempDir(), "data", "repos_list.csv"),
		MaxRepos:  3,
		PageSize:  2,
		Query:     "language:Java",
		Language:  "Java",
	}
	repos, err := RunFetch(context.Background(), cfg, fetcher, now)
	require.NoError(t, err)
	fetcher.AssertExpectations(t)

	require.Len(t, repos, 3)
	assert.Equal(t, "spring/boot", repos[0].Repo)
	assert.Equal(t, int64(5), repos[0].Releases)
	assert.Equal(t, "2021-12-31T12:00:00Z", repos[0].CreatedAt)
	assert.InDelta(t, 2.0, repos[0].AgeYears, 1e-9)
	assert.Equal(t, "apache/kafka", repos[1].Repo)
	assert.Equal(t, schema.UnknownCount, repos[1].Releases, "a failed release listing is not zero releases")

	written, err := dataset.ReadRepoList(cfg.InputPath)
	require.NoError(t, err)
	require.Len(t, written, 3)
	assert.Equal(t, "google/guava", written[2].Repo)
	assert.Equal(t, int64(600), written[2].Stars)
	assert.Equal(t, schema.UnknownCount, written[1].Releases)
}

func TestRunFetchStopsWhenExhausted(t *testing.T) {
	fetcher := &contract.MockRepoFetcher{}
	fetcher.On("SearchRepos", mock.Anything, "q", 1, 10).
		Return([]contract.RemoteRepo{remote("a", "b", "Java", 1, time.Time{})}, 0, nil).Once()
	fetcher.On("CountReleases", mock.Anything, "a", "b").Return(int64(1), nil)

	cfg := &contract.Config{InputPath: filepath.Join(t.TempDir(), "repos.csv"), MaxRepos: 50, PageSize: 10, Query: "q"}
	repos, err := RunFetch(context.Background(), cfg, fetcher, time.Now())
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Empty(t, repos[0].CreatedAt)
	assert.True(t, math.IsNaN(repos[0].AgeYears))
}

func TestRunFetchSearchError(t *testing.T) {
	fetcher := &contract.MockRepoFetcher{}
	fetcher.On("SearchRepos", mock.Anything, "q", 1, 10).Return(nil, 0, errors.New("bad credentials"))

	cfg := &contract.Config{InputPath: filepath.Join(t.TempDir(), "repos.csv"), MaxRepos: 5, PageSize: 10, Query: "q"}
	_, err := RunFetch(context.Background(), cfg, fetcher, time.Now())
	assert.Error(t, err)
	assert.NoFileExists(t, cfg.InputPath)
}

func TestRunFetchHonorsCancellationBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &contract.MockRepoFetcher{}
	fetcher.On("SearchRepos", mock.Anything, "q", 1, 1).
		Run(func(mock.Arguments) { cancel() }).
		Return([]contract.RemoteRepo{remote("a", "b", "Java", 1, time.Time{})}, 2, nil).Once()
	fetcher.On("CountReleases", mock.Anything, "a", "b").Return(int64(0), nil)

	cfg := &contract.Config{InputPath: filepath.Join(t.TempDir(), "repos.csv"), MaxRepos: 5, PageSize: 1, Query: "q", PageDelay: time.Hour}
	_, err := RunFetch(ctx, cfg, fetcher, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
