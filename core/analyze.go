package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/repostudy/core/algo"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/internal/outwriter"
	"github.com/huangsam/repostudy/internal/parquet"
	"github.com/huangsam/repostudy/schema"
)

// Parquet table names used as the <output-file>.<table>.parquet suffix.
const (
	mergedTableName       = "merged"
	correlationsTableName = "correlations"
)

// ExecuteAnalyze joins the repository list with the canonical summaries, writes the merged
// table and the correlation table, and prints the ranked findings.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(_ context.Context, cfg *contract.Config) error {
	report, merged, corrs, err := Analyze(cfg)
	if err != nil {
		return err
	}
	if cfg.Output == schema.ParquetOut {
		return writeAnalysisParquet(cfg.OutputFile, merged, corrs)
	}
	return outwriter.PrintAnalysis(report, cfg)
}

// Analyze builds the merged and correlation tables from cfg's inputs, writes both CSVs
// into cfg.OutDir and returns the report along with the tables.
func Analyze(cfg *contract.Config) (schema.AnalysisReport, []schema.MergedRecord, []schema.CorrelationRecord, error) {
	tables, err := LoadTables(cfg.InputPath, cfg.InDir, cfg.OutSuffix)
	if err != nil {
		return schema.AnalysisReport{}, nil, nil, err
	}
	merged := JoinTables(tables)
	corrs := ComputeCorrelations(merged, cfg.MinN)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return schema.AnalysisReport{}, nil, nil, fmt.Errorf("cannot create output directory %s: %w", cfg.OutDir, err)
	}
	if err := dataset.WriteMerged(filepath.Join(cfg.OutDir, schema.MergedSummaryFile), merged); err != nil {
		return schema.AnalysisReport{}, nil, nil, err
	}
	if err := dataset.WriteCorrelations(filepath.Join(cfg.OutDir, schema.CorrelationsFile), corrs); err != nil {
		return schema.AnalysisReport{}, nil, nil, err
	}

	report := schema.AnalysisReport{
		Repos:    len(merged),
		Computed: len(corrs),
		Top:      algo.RankCorrelations(corrs, cfg.TopMinN, cfg.TopLimit),
		Strength: algo.MedianStrengthByProcess(corrs),
	}
	for _, m := range merged {
		if m.Size != nil && m.Quality != nil {
			report.Measured++
		}
		if m.Anomalous {
			report.Anomalous++
		}
	}
	return report, merged, corrs, nil
}

func writeAnalysisParquet(outputFile string, merged []schema.MergedRecord, corrs []schema.CorrelationRecord) error {
	mergedPath := fmt.Sprintf("%s.%s.parquet", outputFile, mergedTableName)
	if err := parquet.WriteMergedParquet(parquet.ConvertMergedRecords(merged), mergedPath); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "Exported %d merged rows to: %s\n", len(merged), mergedPath)

	corrPath := fmt.Sprintf("%s.%s.parquet", outputFile, correlationsTableName)
	if err := parquet.WriteCorrelationsParquet(parquet.ConvertCorrelationRecords(corrs), corrPath); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "Exported %d correlations to: %s\n", len(corrs), corrPath)
	return nil
}
