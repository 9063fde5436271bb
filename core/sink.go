package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/schema"
)

// keyedRows keeps rows unique by repo while preserving first-insertion order.
type keyedRows[T any] struct {
	order []string
	rows  map[string]T
}

func newKeyedRows[T any]() *keyedRows[T] {
	return &keyedRows[T]{rows: make(map[string]T)}
}

// put inserts or replaces the row for repo and reports whether it replaced one.
func (k *keyedRows[T]) put(repo string, row T) bool {
	_, exists := k.rows[repo]
	if !exists {
		k.order = append(k.order, repo)
	}
	k.rows[repo] = row
	return exists
}

func (k *keyedRows[T]) get(repo string) (T, bool) {
	row, ok := k.rows[repo]
	return row, ok
}

func (k *keyedRows[T]) list() []T {
	out := make([]T, 0, len(k.order))
	for _, repo := range k.order {
		out = append(out, k.rows[repo])
	}
	return out
}

func (k *keyedRows[T]) len() int { return len(k.order) }

// ResultSink is the single writer of the summary tables and the failure log.
// Every method is safe for concurrent use by the measurement workers.
type ResultSink struct {
	mu          sync.Mutex
	sizePath    string
	qualityPath string
	failurePath string
	sizes       *keyedRows[schema.SizeRecord]
	qualities   *keyedRows[schema.QualityRecord]
	store       contract.ResultStore
}

// NewResultSink loads the existing summaries for suffix from outDir so that new rows
// replace, rather than duplicate, earlier measurements. store may be nil.
func NewResultSink(outDir, suffix string, store contract.ResultStore) (*ResultSink, error) {
	s := &ResultSink{
		sizePath:    filepath.Join(outDir, schema.SizeSummaryFile(suffix)),
		qualityPath: filepath.Join(outDir, schema.QualitySummaryFile(suffix)),
		failurePath: filepath.Join(outDir, schema.FailureLogFile(suffix)),
		sizes:       newKeyedRows[schema.SizeRecord](),
		qualities:   newKeyedRows[schema.QualityRecord](),
		store:       store,
	}
	sizes, err := dataset.ReadSizeSummary(s.sizePath)
	if err != nil {
		return nil, err
	}
	for _, r := range sizes {
		s.sizes.put(r.Repo, r)
	}
	qualities, err := dataset.ReadQualitySummary(s.qualityPath)
	if err != nil {
		return nil, err
	}
	for _, r := range qualities {
		s.qualities.put(r.Repo, r)
	}
	return s, nil
}

// PutSize upserts a size row, rewrites the size summary and mirrors the row to the store.
func (s *ResultSink) PutSize(rec schema.SizeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes.put(rec.Repo, rec)
	if err := dataset.WriteSizeSummary(s.sizePath, s.sizes.list()); err != nil {
		return fmt.Errorf("cannot write %s: %w", filepath.Base(s.sizePath), err)
	}
	if s.store != nil {
		if err := s.store.UpsertSize(rec); err != nil {
			return fmt.Errorf("cannot mirror size row to store: %w", err)
		}
	}
	return nil
}

// PutQuality upserts a quality row, rewrites the quality summary and mirrors the row to the store.
func (s *ResultSink) PutQuality(rec schema.QualityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qualities.put(rec.Repo, rec)
	if err := dataset.WriteQualitySummary(s.qualityPath, s.qualities.list()); err != nil {
		return fmt.Errorf("cannot write %s: %w", filepath.Base(s.qualityPath), err)
	}
	if s.store != nil {
		if err := s.store.UpsertQuality(rec); err != nil {
			return fmt.Errorf("cannot mirror quality row to store: %w", err)
		}
	}
	return nil
}

// RecordFailure appends to the failure log and, when the context carries a run ID,
// records the failure in the store. Neither write may abort the run, so errors are only reported.
func (s *ResultSink) RecordFailure(ctx context.Context, entry schema.FailureEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := dataset.AppendFailure(s.failurePath, entry); err != nil {
		contract.LogWarn("Cannot append to failure log", err)
	}
	if runID, ok := getRunID(ctx); ok && s.store != nil && runID > 0 {
		if err := s.store.RecordFailure(runID, entry); err != nil {
			contract.LogWarn("Cannot record failure in store", err)
		}
	}
}

// Sizes returns a snapshot of the size table.
func (s *ResultSink) Sizes() []schema.SizeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizes.list()
}

// Qualities returns a snapshot of the quality table.
func (s *ResultSink) Qualities() []schema.QualityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qualities.list()
}
