// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/repostudy/schema"
)

// VCSClient defines the operations needed to acquire a repository snapshot.
// This allows the measurement loop to be tested without a real git executable.
type VCSClient interface {
	// ShallowClone performs a depth-1 clone of url into dest.
	ShallowClone(ctx context.Context, url, dest string) error

	// ExtractSources clones url into dest without checkout, then writes every tracked
	// file accepted by keep under a filesystem-safe relative path. It returns the
	// number of files written.
	ExtractSources(ctx context.Context, url, dest string, keep func(path string) bool) (int, error)
}

// SizeCounter runs the line counter inside dir and returns its JSON report.
type SizeCounter interface {
	Count(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// QualityMeter runs the class-metrics tool against target, writing its CSVs into outDir.
type QualityMeter interface {
	Measure(ctx context.Context, target, outDir string) error
}

// RemoteRepo is one repository returned by a hosting-service search.
type RemoteRepo struct {
	Owner     string
	Name      string
	FullName  string
	HTMLURL   string
	Stars     int64
	Language  string
	Disabled  bool
	CreatedAt time.Time
}

// RepoFetcher defines the hosting-service queries used by collection.
type RepoFetcher interface {
	// SearchRepos returns one page of search results and the next page number (0 when exhausted).
	SearchRepos(ctx context.Context, query string, page, perPage int) ([]RemoteRepo, int, error)

	// CountReleases returns the number of published releases of owner/name.
	CountReleases(ctx context.Context, owner, name string) (int64, error)
}

// StoreManager defines the interface for managing the results store.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetResultStore() ResultStore
}

// ResultStore mirrors the summary tables and tracks measurement runs.
type ResultStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, params map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error

	UpsertSize(rec schema.SizeRecord) error
	UpsertQuality(rec schema.QualityRecord) error

	// RecordFailure stores one repository-scoped failure for the run
	RecordFailure(runID int64, entry schema.FailureEntry) error

	// GetAllSizes returns every stored size row, ordered by repo
	GetAllSizes() ([]schema.SizeRecord, error)

	// GetAllQualities returns every stored quality row, ordered by repo
	GetAllQualities() ([]schema.QualityRecord, error)

	// GetAllRuns returns every tracked run, ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFailures returns every recorded failure, ordered by run and repo
	GetAllFailures() ([]schema.FailureRecord, error)

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}
