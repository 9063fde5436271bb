package iocache

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ResultStoreImpl {
	t.Helper()
	store, err := NewResultStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl, ok := store.(*ResultStoreImpl)
	require.True(t, ok)
	return impl
}

func TestNoneBackendIsNoop(t *testing.T) {
	store, err := NewResultStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), map[string]any{"suffix": "_x"})
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "a/b"}))
	assert.NoError(t, store.UpsertQuality(schema.QualityRecord{Repo: "a/b"}))
	assert.NoError(t, store.RecordFailure(runID, schema.FailureEntry{Repo: "a/b", Stage: schema.CloneStage}))
	assert.NoError(t, store.EndRun(runID, time.Now(), schema.RunSummary{}))

	sizes, err := store.GetAllSizes()
	require.NoError(t, err)
	assert.Empty(t, sizes)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := NewResultStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported store backend")
}

func TestUpsertReplacesRows(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/beta", Files: 1, Code: 10}))
	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/alpha", Files: 2, Code: 20, Comment: 3, Blank: 4}))
	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/beta", Files: 5, Code: 50}))

	sizes, err := store.GetAllSizes()
	require.NoError(t, err)
	assert.Equal(t, []schema.SizeRecord{
		{Repo: "acme/alpha", Files: 2, Code: 20, Comment: 3, Blank: 4},
		{Repo: "acme/beta", Files: 5, Code: 50},
	}, sizes)
}

func TestQualityNaNRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rec := schema.QualityRecord{
		Repo:     "acme/alpha",
		NClasses: 3,
		CBO:      schema.MetricSummary{Mean: 4, Median: 4, Std: 2},
		DIT:      schema.MetricSummary{Mean: 1, Median: 1, Std: 0},
		LCOM:     schema.NaNSummary(),
	}
	require.NoError(t, store.UpsertQuality(rec))

	got, err := store.GetAllQualities()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].NClasses)
	assert.Equal(t, rec.CBO, got[0].CBO)
	assert.Equal(t, rec.DIT, got[0].DIT)
	assert.True(t, math.IsNaN(got[0].LCOM.Mean))
	assert.True(t, math.IsNaN(got[0].LCOM.Median))
	assert.True(t, math.IsNaN(got[0].LCOM.Std))
}

func TestRunsAndFailures(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	start := fixed.Add(-time.Minute)
	runID, err := store.BeginRun(start, map[string]any{"suffix": "_s0", "workers": 2})
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, store.RecordFailure(runID, schema.FailureEntry{Repo: "acme/gamma", Stage: schema.CKStage, Reason: "ck exited 1"}))
	require.NoError(t, store.EndRun(runID, fixed, schema.RunSummary{Selected: 3, Succeeded: 2, Failed: 1}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.True(t, start.Equal(runs[0].StartTime))
	require.NotNil(t, runs[0].EndTime)
	assert.True(t, fixed.Equal(*runs[0].EndTime))
	assert.Equal(t, "_s0", runs[0].Suffix)
	assert.Equal(t, 3, runs[0].Selected)
	assert.Equal(t, 2, runs[0].Succeeded)
	assert.Equal(t, 1, runs[0].Failed)

	failures, err := store.GetAllFailures()
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, schema.FailureRecord{
		RunID:      runID,
		Repo:       "acme/gamma",
		Stage:      "ck",
		Reason:     "ck exited 1",
		RecordedAt: fixed,
	}, failures[0])
}

func TestEndRunUnknownRun(t *testing.T) {
	store := newTestStore(t)
	err := store.EndRun(42, time.Now(), schema.RunSummary{})
	assert.ErrorContains(t, err, "failed to get start_time for run 42")
}

func TestGetStatus(t *testing.T) {
	store := newTestStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)
	assert.Len(t, status.TableSizes, len(storeTables))

	_, err = store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	lastID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.UpsertSize(schema.SizeRecord{Repo: "acme/alpha"}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.False(t, status.LastRunTime.IsZero())
	assert.Equal(t, int64(1), status.TableSizes[sizeTable])
	assert.Equal(t, int64(0), status.TableSizes[qualityTable])
}

func TestUpsertQueryDialects(t *testing.T) {
	cols := []string{"repo", "files"}

	assert.Equal(t, `INSERT OR REPLACE INTO "t" (repo, files) VALUES (?, ?)`,
		upsertQuery(schema.SQLiteBackend, "t", cols))
	assert.Contains(t, upsertQuery(schema.PostgreSQLBackend, "t", cols), "VALUES ($1, $2)")
	assert.Contains(t, upsertQuery(schema.PostgreSQLBackend, "t", cols), "ON CONFLICT (repo) DO UPDATE SET files = EXCLUDED.files")
	assert.Contains(t, upsertQuery(schema.MySQLBackend, "t", cols), "INSERT INTO `t`")
	assert.Contains(t, upsertQuery(schema.MySQLBackend, "t", cols), "ON DUPLICATE KEY UPDATE files = new.files")
}
