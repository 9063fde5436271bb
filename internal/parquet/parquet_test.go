package parquet

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/repostudy/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMerged() []schema.MergedRecord {
	return []schema.MergedRecord{
		{
			RepoRecord: schema.RepoRecord{Repo: "a/one", URL: "https://github.com/a/one", Stars: 500, Releases: 12, AgeYears: 8.25},
			Size:       &schema.SizeRecord{Repo: "a/one", Files: 40, Code: 4000, Comment: 600, Blank: 500},
			Quality: &schema.QualityRecord{
				Repo: "a/one", NClasses: 38,
				CBO:  schema.MetricSummary{Mean: 4.5, Median: 4, Std: 1.5},
				DIT:  schema.MetricSummary{Mean: 1.2, Median: 1, Std: 0.4},
				LCOM: schema.NaNSummary(),
			},
		},
		{
			RepoRecord: schema.RepoRecord{Repo: "b/two", URL: "https://github.com/b/two", Stars: 20, Releases: schema.UnknownCount, AgeYears: math.NaN()},
		},
	}
}

func TestMergedRowStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(MergedRow))
	require.NotNil(t, s)
	for _, colName := range schema.MergedHeader {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestCorrelationRowStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(CorrelationRow))
	require.NotNil(t, s)
	for _, colName := range schema.CorrelationHeader {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestConvertMergedRecordsNullsMissingValues(t *testing.T) {
	rows := ConvertMergedRecords(sampleMerged())
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Code)
	assert.Equal(t, int64(4000), *rows[0].Code)
	require.NotNil(t, rows[0].CBOMedian)
	assert.Equal(t, 4.0, *rows[0].CBOMedian)
	assert.Nil(t, rows[0].LCOMMean, "NaN statistics become nulls")

	require.NotNil(t, rows[0].Releases)
	assert.Equal(t, int64(12), *rows[0].Releases)

	assert.Nil(t, rows[1].AgeYears)
	assert.Nil(t, rows[1].Releases, "unknown release counts become nulls")
	assert.Nil(t, rows[1].Files)
	assert.Nil(t, rows[1].NClasses)
	assert.Nil(t, rows[1].CBOMean)
}

func TestWriteMergedParquetRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "merged.parquet")
	data := ConvertMergedRecords(sampleMerged())

	require.NoError(t, WriteMergedParquet(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	readData, err := ReadMergedParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, readData, len(data))
	assert.Equal(t, "a/one", readData[0].Repo)
	require.NotNil(t, readData[0].Code)
	assert.Equal(t, int64(4000), *readData[0].Code)
	assert.Nil(t, readData[1].Code)
	assert.Nil(t, readData[0].LCOMStd)
}

func TestWriteCorrelationsParquetRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "correlations.parquet")
	data := ConvertCorrelationRecords([]schema.CorrelationRecord{
		{Process: schema.SizeGroup, X: "code", Y: "cbo_std", Spearman: 1, Pearson: 0.98, SpearmanP: 0, PearsonP: 0.12, N: 3},
	})

	require.NoError(t, WriteCorrelationsParquet(data, outputPath))

	readData, err := ReadCorrelationsParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, readData, 1)
	assert.Equal(t, "size", readData[0].Process)
	require.NotNil(t, readData[0].Spearman)
	assert.Equal(t, 1.0, *readData[0].Spearman)
	assert.Equal(t, int32(3), readData[0].N)
}

func TestWriteStoreTablesParquet(t *testing.T) {
	tmpDir := t.TempDir()
	end := time.Now().UTC()

	sizes := ConvertSizeRecords([]schema.SizeRecord{{Repo: "a/one", Files: 1, Code: 2}})
	qualities := ConvertQualityRecords([]schema.QualityRecord{{Repo: "a/one", NClasses: 1, CBO: schema.NaNSummary(), DIT: schema.NaNSummary(), LCOM: schema.NaNSummary()}})
	failures := ConvertFailureRecords([]schema.FailureRecord{{RunID: 1, Repo: "b/two", Stage: "clone", Reason: "boom", RecordedAt: end}})
	runs := ConvertRunRecords([]schema.RunRecord{{RunID: 1, StartTime: end.Add(-time.Minute), EndTime: &end, Selected: 2, Succeeded: 1, Failed: 1}})

	require.NoError(t, WriteSizesParquet(sizes, filepath.Join(tmpDir, "sizes.parquet")))
	require.NoError(t, WriteQualitiesParquet(qualities, filepath.Join(tmpDir, "qualities.parquet")))
	require.NoError(t, WriteFailuresParquet(failures, filepath.Join(tmpDir, "failures.parquet")))
	require.NoError(t, WriteRunsParquet(runs, filepath.Join(tmpDir, "runs.parquet")))

	readRuns, err := parquet.ReadFile[RunRow](filepath.Join(tmpDir, "runs.parquet"))
	require.NoError(t, err)
	require.Len(t, readRuns, 1)
	require.NotNil(t, readRuns[0].EndTime)
	assert.WithinDuration(t, end, *readRuns[0].EndTime, time.Microsecond)
	assert.Equal(t, int32(1), readRuns[0].Failed)

	readQualities, err := parquet.ReadFile[QualityRow](filepath.Join(tmpDir, "qualities.parquet"))
	require.NoError(t, err)
	require.Len(t, readQualities, 1)
	assert.Nil(t, readQualities[0].CBOMean)
}

func TestWriteSizesParquetEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteSizesParquet([]SizeRow{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteParquetInvalidPath(t *testing.T) {
	err := WriteSizesParquet(nil, filepath.Join(t.TempDir(), "missing", "dir", "out.parquet"))
	assert.Error(t, err)
}
