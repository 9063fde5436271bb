package core

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/schema"
)

const yearDuration = time.Duration(365.25 * 24 * float64(time.Hour))

// ExecuteFetch collects the most-starred repositories from GitHub into the repository list.
// It serves as the main entry point for the 'fetch' command.
func ExecuteFetch(ctx context.Context, cfg *contract.Config) error {
	fetcher := contract.NewGitHubFetcher(ctx, cfg.GitHubToken)
	repos, err := RunFetch(ctx, cfg, fetcher, time.Now())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %d repositories to %s\n", len(repos), cfg.InputPath)
	return nil
}

// RunFetch pages through the search results until cfg.MaxRepos repositories are kept or
// the results run out, then writes them to cfg.InputPath. Ages are measured against now.
func RunFetch(ctx context.Context, cfg *contract.Config, fetcher contract.RepoFetcher, now time.Time) ([]schema.RepoRecord, error) {
	limit := cfg.MaxRepos
	if limit <= 0 {
		limit = contract.DefaultMaxRepos
	}
	pageSize := max(cfg.PageSize, 1)

	bar := newProgressBar(cfg, limit, "Fetching repositories")
	var repos []schema.RepoRecord

	page := 1
	for page > 0 && len(repos) < limit {
		if page > 1 && cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.PageDelay):
			}
		}

		results, next, err := fetcher.SearchRepos(ctx, cfg.Query, page, pageSize)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if len(repos) >= limit {
				break
			}
			if !keepRemote(r, cfg.Language) {
				continue
			}
			repos = append(repos, toRepoRecord(ctx, fetcher, r, now))
			_ = bar.Add(1)
		}
		if len(results) == 0 {
			break
		}
		page = next
	}
	_ = bar.Finish()

	if dir := filepath.Dir(cfg.InputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := dataset.WriteRepoList(cfg.InputPath, repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// keepRemote drops disabled repositories and, when language is set, repositories whose
// primary language differs.
func keepRemote(r contract.RemoteRepo, language string) bool {
	if r.Disabled {
		return false
	}
	return language == "" || strings.EqualFold(r.Language, language)
}

func toRepoRecord(ctx context.Context, fetcher contract.RepoFetcher, r contract.RemoteRepo, now time.Time) schema.RepoRecord {
	name := r.FullName
	if name == "" {
		name = r.Owner + "/" + r.Name
	}
	releases, err := fetcher.CountReleases(ctx, r.Owner, r.Name)
	if err != nil {
		contract.LogWarn("Release count unavailable for "+name, err)
		releases = schema.UnknownCount
	}
	rec := schema.RepoRecord{
		Repo:     name,
		URL:      r.HTMLURL,
		Stars:    r.Stars,
		Releases: releases,
		AgeYears: math.NaN(),
	}
	if !r.CreatedAt.IsZero() {
		rec.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
		rec.AgeYears = float64(now.Sub(r.CreatedAt)) / float64(yearDuration)
	}
	return rec
}
