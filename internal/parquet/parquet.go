// Package parquet provides data structures and functions for exporting repostudy
// tables to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/huangsam/repostudy/schema"
	"github.com/parquet-go/parquet-go"
)

// MergedRow is one row of the merged analysis table.
// Measurements that are missing (or NaN) are stored as nulls.
type MergedRow struct {
	Repo       string   `parquet:"repo,snappy"`
	URL        string   `parquet:"url,snappy"`
	Stars      int64    `parquet:"stars,snappy"`
	CreatedAt  string   `parquet:"created_at,snappy"`
	Releases   *int64   `parquet:"releases,optional,snappy"`
	AgeYears   *float64 `parquet:"age_years,optional,snappy"`
	Files      *int64   `parquet:"files,optional,snappy"`
	Code       *int64   `parquet:"code,optional,snappy"`
	Comment    *int64   `parquet:"comment,optional,snappy"`
	Blank      *int64   `parquet:"blank,optional,snappy"`
	NClasses   *int64   `parquet:"n_classes,optional,snappy"`
	CBOMean    *float64 `parquet:"cbo_mean,optional,snappy"`
	CBOMedian  *float64 `parquet:"cbo_median,optional,snappy"`
	CBOStd     *float64 `parquet:"cbo_std,optional,snappy"`
	DITMean    *float64 `parquet:"dit_mean,optional,snappy"`
	DITMedian  *float64 `parquet:"dit_median,optional,snappy"`
	DITStd     *float64 `parquet:"dit_std,optional,snappy"`
	LCOMMean   *float64 `parquet:"lcom_mean,optional,snappy"`
	LCOMMedian *float64 `parquet:"lcom_median,optional,snappy"`
	LCOMStd    *float64 `parquet:"lcom_std,optional,snappy"`
	Anomalous  bool     `parquet:"anomalous,snappy"`
}

// CorrelationRow is one process-metric/quality-metric correlation.
type CorrelationRow struct {
	Process   string   `parquet:"process,snappy"`
	X         string   `parquet:"x,snappy"`
	Y         string   `parquet:"y,snappy"`
	Spearman  *float64 `parquet:"r_spearman,optional,snappy"`
	Pearson   *float64 `parquet:"r_pearson,optional,snappy"`
	SpearmanP *float64 `parquet:"p_value,optional,snappy"`
	PearsonP  *float64 `parquet:"p_pearson,optional,snappy"`
	N         int32    `parquet:"n,snappy"`
}

// SizeRow is one row of the size table.
type SizeRow struct {
	Repo    string `parquet:"repo,snappy"`
	Files   int64  `parquet:"files,snappy"`
	Code    int64  `parquet:"code,snappy"`
	Comment int64  `parquet:"comment,snappy"`
	Blank   int64  `parquet:"blank,snappy"`
}

// QualityRow is one row of the quality table.
type QualityRow struct {
	Repo       string   `parquet:"repo,snappy"`
	NClasses   int64    `parquet:"n_classes,snappy"`
	CBOMean    *float64 `parquet:"cbo_mean,optional,snappy"`
	CBOMedian  *float64 `parquet:"cbo_median,optional,snappy"`
	CBOStd     *float64 `parquet:"cbo_std,optional,snappy"`
	DITMean    *float64 `parquet:"dit_mean,optional,snappy"`
	DITMedian  *float64 `parquet:"dit_median,optional,snappy"`
	DITStd     *float64 `parquet:"dit_std,optional,snappy"`
	LCOMMean   *float64 `parquet:"lcom_mean,optional,snappy"`
	LCOMMedian *float64 `parquet:"lcom_median,optional,snappy"`
	LCOMStd    *float64 `parquet:"lcom_std,optional,snappy"`
}

// FailureRow is one recorded repository failure.
type FailureRow struct {
	// RunID references the measurement run the failure happened in
	RunID int64 `parquet:"run_id,snappy"`

	Repo   string `parquet:"repo,snappy"`
	Stage  string `parquet:"stage,snappy"`
	Reason string `parquet:"reason,snappy"`

	// RecordedAt is stored as TIMESTAMP with nanosecond precision
	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// RunRow is one measurement run.
type RunRow struct {
	RunID     int64      `parquet:"run_id,snappy"`
	StartTime time.Time  `parquet:"start_time,snappy"`
	EndTime   *time.Time `parquet:"end_time,optional,snappy"`
	Suffix    string     `parquet:"suffix,snappy"`
	Selected  int32      `parquet:"selected,snappy"`
	Succeeded int32      `parquet:"succeeded,snappy"`
	Failed    int32      `parquet:"failed,snappy"`
}

// writeParquet writes rows to outputPath using struct schema inference.
func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		_ = file.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteMergedParquet writes the merged analysis table to a Parquet file.
func WriteMergedParquet(data []MergedRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCorrelationsParquet writes the correlation table to a Parquet file.
func WriteCorrelationsParquet(data []CorrelationRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSizesParquet writes the size table to a Parquet file.
func WriteSizesParquet(data []SizeRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteQualitiesParquet writes the quality table to a Parquet file.
func WriteQualitiesParquet(data []QualityRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFailuresParquet writes the failure records to a Parquet file.
func WriteFailuresParquet(data []FailureRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunsParquet writes the run records to a Parquet file.
func WriteRunsParquet(data []RunRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ReadMergedParquet reads back a merged table written by WriteMergedParquet.
func ReadMergedParquet(path string) ([]MergedRow, error) {
	return parquet.ReadFile[MergedRow](path)
}

// ReadCorrelationsParquet reads back a correlation table written by WriteCorrelationsParquet.
func ReadCorrelationsParquet(path string) ([]CorrelationRow, error) {
	return parquet.ReadFile[CorrelationRow](path)
}

func optFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func optInt(v int64) *int64 {
	return &v
}

// optCount maps an unknown (negative) count to null.
func optCount(v int64) *int64 {
	if v < 0 {
		return nil
	}
	return &v
}

// ConvertMergedRecords converts merged records into Parquet rows.
func ConvertMergedRecords(records []schema.MergedRecord) []MergedRow {
	rows := make([]MergedRow, 0, len(records))
	for _, r := range records {
		row := MergedRow{
			Repo:      r.Repo,
			URL:       r.URL,
			Stars:     r.Stars,
			CreatedAt: r.CreatedAt,
			Releases:  optCount(r.Releases),
			AgeYears:  optFloat(r.AgeYears),
			Anomalous: r.Anomalous,
		}
		if s := r.Size; s != nil {
			row.Files, row.Code = optInt(s.Files), optInt(s.Code)
			row.Comment, row.Blank = optInt(s.Comment), optInt(s.Blank)
		}
		if q := r.Quality; q != nil {
			row.NClasses = optInt(q.NClasses)
			row.CBOMean, row.CBOMedian, row.CBOStd = optFloat(q.CBO.Mean), optFloat(q.CBO.Median), optFloat(q.CBO.Std)
			row.DITMean, row.DITMedian, row.DITStd = optFloat(q.DIT.Mean), optFloat(q.DIT.Median), optFloat(q.DIT.Std)
			row.LCOMMean, row.LCOMMedian, row.LCOMStd = optFloat(q.LCOM.Mean), optFloat(q.LCOM.Median), optFloat(q.LCOM.Std)
		}
		rows = append(rows, row)
	}
	return rows
}

// ConvertCorrelationRecords converts correlation records into Parquet rows.
func ConvertCorrelationRecords(records []schema.CorrelationRecord) []CorrelationRow {
	rows := make([]CorrelationRow, 0, len(records))
	for _, c := range records {
		rows = append(rows, CorrelationRow{
			Process:   string(c.Process),
			X:         c.X,
			Y:         c.Y,
			Spearman:  optFloat(c.Spearman),
			Pearson:   optFloat(c.Pearson),
			SpearmanP: optFloat(c.SpearmanP),
			PearsonP:  optFloat(c.PearsonP),
			N:         int32(c.N),
		})
	}
	return rows
}

// ConvertSizeRecords converts size records into Parquet rows.
func ConvertSizeRecords(records []schema.SizeRecord) []SizeRow {
	rows := make([]SizeRow, 0, len(records))
	for _, s := range records {
		rows = append(rows, SizeRow{Repo: s.Repo, Files: s.Files, Code: s.Code, Comment: s.Comment, Blank: s.Blank})
	}
	return rows
}

// ConvertQualityRecords converts quality records into Parquet rows.
func ConvertQualityRecords(records []schema.QualityRecord) []QualityRow {
	rows := make([]QualityRow, 0, len(records))
	for _, q := range records {
		rows = append(rows, QualityRow{
			Repo:       q.Repo,
			NClasses:   q.NClasses,
			CBOMean:    optFloat(q.CBO.Mean),
			CBOMedian:  optFloat(q.CBO.Median),
			CBOStd:     optFloat(q.CBO.Std),
			DITMean:    optFloat(q.DIT.Mean),
			DITMedian:  optFloat(q.DIT.Median),
			DITStd:     optFloat(q.DIT.Std),
			LCOMMean:   optFloat(q.LCOM.Mean),
			LCOMMedian: optFloat(q.LCOM.Median),
			LCOMStd:    optFloat(q.LCOM.Std),
		})
	}
	return rows
}

// ConvertFailureRecords converts stored failure records into Parquet rows.
func ConvertFailureRecords(records []schema.FailureRecord) []FailureRow {
	rows := make([]FailureRow, 0, len(records))
	for _, f := range records {
		rows = append(rows, FailureRow{
			RunID:      f.RunID,
			Repo:       f.Repo,
			Stage:      f.Stage,
			Reason:     f.Reason,
			RecordedAt: f.RecordedAt,
		})
	}
	return rows
}

// ConvertRunRecords converts stored run records into Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []RunRow {
	rows := make([]RunRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, RunRow{
			RunID:     r.RunID,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Suffix:    r.Suffix,
			Selected:  int32(r.Selected),
			Succeeded: int32(r.Succeeded),
			Failed:    int32(r.Failed),
		})
	}
	return rows
}
