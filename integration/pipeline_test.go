//go:build basic

// Package integration contains end-to-end tests for the repostudy binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// The database suite needs Docker: go test -tags database ./integration
package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStudyFixture writes a repository list of ten repos and two shards of summaries.
// The last repo is never measured and the first one in shard 1 repeats a shard 0 row.
func writeStudyFixture(t *testing.T, root string) (listPath, shardDir string) {
	t.Helper()
	listPath = filepath.Join(root, "repos_list.csv")
	shardDir = filepath.Join(root, "shards")
	require.NoError(t, os.MkdirAll(shardDir, 0o755))

	var repos []schema.RepoRecord
	var sizes0, sizes1 []schema.SizeRecord
	var qualities0, qualities1 []schema.QualityRecord
	for i := range 10 {
		name := fmt.Sprintf("acme/repo%02d", i)
		repos = append(repos, schema.RepoRecord{
			Repo:      name,
			URL:       "https://github.com/" + name,
			Stars:     int64(1000 * (i + 1)),
			CreatedAt: "2015-01-01T00:00:00Z",
			Releases:  int64(i * 3),
			AgeYears:  float64(2 + i),
		})
		if i == 9 {
			continue
		}
		size := schema.SizeRecord{Repo: name, Files: int64(10 * (i + 1)), Code: int64(500 * (i + 1)), Comment: int64(50 * i), Blank: 10}
		quality := schema.QualityRecord{
			Repo:     name,
			NClasses: int64(20 + i),
			CBO:      schema.MetricSummary{Mean: 2 + float64(i)/2, Median: 2 + float64(i)/3, Std: 1},
			DIT:      schema.MetricSummary{Mean: 1.5, Median: 1 + float64(i%3), Std: 0.5},
			LCOM:     schema.MetricSummary{Mean: float64(5 * i), Median: float64(2 * i), Std: 3},
		}
		if i%2 == 0 {
			sizes0 = append(sizes0, size)
			qualities0 = append(qualities0, quality)
		} else {
			sizes1 = append(sizes1, size)
			qualities1 = append(qualities1, quality)
		}
	}
	sizes1 = append(sizes1, schema.SizeRecord{Repo: "acme/repo00", Files: 1, Code: 1})

	require.NoError(t, dataset.WriteRepoList(listPath, repos))
	require.NoError(t, dataset.WriteSizeSummary(filepath.Join(shardDir, schema.SizeSummaryFile("_s0")), sizes0))
	require.NoError(t, dataset.WriteSizeSummary(filepath.Join(shardDir, schema.SizeSummaryFile("_s1")), sizes1))
	require.NoError(t, dataset.WriteQualitySummary(filepath.Join(shardDir, schema.QualitySummaryFile("_s0")), qualities0))
	require.NoError(t, dataset.WriteQualitySummary(filepath.Join(shardDir, schema.QualitySummaryFile("_s1")), qualities1))
	return listPath, shardDir
}

// TestStudyPipeline runs merge, analyze, missing and validate against an offline fixture.
func TestStudyPipeline(t *testing.T) {
	root := t.TempDir()
	listPath, shardDir := writeStudyFixture(t, root)
	outDir := filepath.Join(root, "processed")
	env := []string{"REPOSTUDY_COLOR=no"}

	out, err := runCommand(t, root, env, "merge", "--in-dir", shardDir, "--out-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Merged 4 source files")
	assert.FileExists(t, filepath.Join(outDir, schema.SizeSummaryFile("")))
	assert.FileExists(t, filepath.Join(outDir, schema.QualitySummaryFile("")))

	sizes, err := dataset.ReadSizeSummary(filepath.Join(outDir, schema.SizeSummaryFile("")))
	require.NoError(t, err)
	assert.Len(t, sizes, 9)
	for _, s := range sizes {
		if s.Repo == "acme/repo00" {
			assert.Equal(t, int64(500), s.Code, "the larger duplicate row wins")
		}
	}

	out, err = runCommand(t, root, env, "analyze",
		"--input", listPath, "--in-dir", outDir, "--out-dir", outDir,
		"--min-n", "5", "--top-min-n", "5", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"repos": 10`)
	assert.Contains(t, out, `"measured": 9`)
	assert.FileExists(t, filepath.Join(outDir, schema.MergedSummaryFile))
	assert.FileExists(t, filepath.Join(outDir, schema.CorrelationsFile))

	out, err = runCommand(t, root, env, "missing",
		"--input", listPath, "--in-dir", outDir, "--out-dir", outDir, "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "Missing size: 1, missing quality: 1, missing both: 1")
	next, err := dataset.ReadRepoList(filepath.Join(outDir, schema.MissingReposFile))
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "acme/repo09", next[0].Repo)

	out, err = runCommand(t, root, env, "validate", "--in-dir", outDir, "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "category,repo")
}

// TestStoreLifecycleSQLite migrates, inspects, exports and clears a SQLite results store.
func TestStoreLifecycleSQLite(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "results.db")
	env := []string{
		"REPOSTUDY_COLOR=no",
		"REPOSTUDY_STORE_BACKEND=sqlite",
		"REPOSTUDY_STORE_DB_CONNECT=" + dbPath,
	}

	_, err := runCommand(t, root, env, "store", "migrate")
	require.NoError(t, err)

	out, err := runCommand(t, root, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Store Backend: sqlite")
	assert.Contains(t, out, "Connected: true")

	_, err = runCommand(t, root, env, "store", "export", "--output-file", filepath.Join(root, "export"))
	require.Error(t, err, "an empty store has nothing to export")

	_, err = runCommand(t, root, env, "store", "clear")
	require.NoError(t, err)
	assert.NoFileExists(t, dbPath)
}
