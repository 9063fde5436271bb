package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/internal/outwriter"
	"github.com/huangsam/repostudy/schema"
)

// betterSize reports whether candidate should replace current: more code wins,
// then more files, and the later row wins a full tie.
func betterSize(candidate, current schema.SizeRecord) bool {
	if candidate.Code != current.Code {
		return candidate.Code > current.Code
	}
	return candidate.Files >= current.Files
}

// betterQuality reports whether candidate should replace current: more classes
// wins and the later row wins a tie.
func betterQuality(candidate, current schema.QualityRecord) bool {
	return candidate.NClasses >= current.NClasses
}

// dedupeSizes keeps the best row per repo in first-seen order and counts the repeats.
func dedupeSizes(recs []schema.SizeRecord) ([]schema.SizeRecord, int) {
	rows := newKeyedRows[schema.SizeRecord]()
	conflicts := 0
	for _, r := range recs {
		if cur, ok := rows.get(r.Repo); ok {
			conflicts++
			if !betterSize(r, cur) {
				continue
			}
		}
		rows.put(r.Repo, r)
	}
	return rows.list(), conflicts
}

// dedupeQualities keeps the best row per repo in first-seen order and counts the repeats.
func dedupeQualities(recs []schema.QualityRecord) ([]schema.QualityRecord, int) {
	rows := newKeyedRows[schema.QualityRecord]()
	conflicts := 0
	for _, r := range recs {
		if cur, ok := rows.get(r.Repo); ok {
			conflicts++
			if !betterQuality(r, cur) {
				continue
			}
		}
		rows.put(r.Repo, r)
	}
	return rows.list(), conflicts
}

// ExecuteMerge merges shard summaries and prints the merge report.
// It serves as the main entry point for the 'merge' command.
func ExecuteMerge(_ context.Context, cfg *contract.Config) error {
	report, err := MergeSummaries(cfg.InDir, cfg.OutDir)
	if err != nil {
		return err
	}
	return outwriter.PrintMergeReport(report, cfg)
}

// MergeSummaries reads the canonical and shard summaries in inDir, keeps the best row
// per repository and writes the canonical summaries to outDir.
func MergeSummaries(inDir, outDir string) (schema.MergeReport, error) {
	var report schema.MergeReport

	sizeFiles, err := dataset.SummaryFiles(inDir, schema.SizeSummaryBase)
	if err != nil {
		return report, err
	}
	qualityFiles, err := dataset.SummaryFiles(inDir, schema.QualitySummaryBase)
	if err != nil {
		return report, err
	}
	if len(sizeFiles)+len(qualityFiles) == 0 {
		return report, fmt.Errorf("no %s*.csv or %s*.csv files in %s", schema.SizeSummaryBase, schema.QualitySummaryBase, inDir)
	}

	var sizes []schema.SizeRecord
	for _, f := range sizeFiles {
		recs, err := dataset.ReadSizeSummary(f)
		if err != nil {
			return report, err
		}
		sizes = append(sizes, recs...)
		report.Sources = append(report.Sources, filepath.Base(f))
	}
	var qualities []schema.QualityRecord
	for _, f := range qualityFiles {
		recs, err := dataset.ReadQualitySummary(f)
		if err != nil {
			return report, err
		}
		qualities = append(qualities, recs...)
		report.Sources = append(report.Sources, filepath.Base(f))
	}

	mergedSizes, sizeConflicts := dedupeSizes(sizes)
	mergedQualities, qualityConflicts := dedupeQualities(qualities)
	report.SizeRows, report.SizeConflicts = len(mergedSizes), sizeConflicts
	report.QualityRows, report.QualityConflicts = len(mergedQualities), qualityConflicts

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, err
	}
	if len(sizeFiles) > 0 {
		if err := dataset.WriteSizeSummary(filepath.Join(outDir, schema.SizeSummaryFile("")), mergedSizes); err != nil {
			return report, err
		}
	}
	if len(qualityFiles) > 0 {
		if err := dataset.WriteQualitySummary(filepath.Join(outDir, schema.QualitySummaryFile("")), mergedQualities); err != nil {
			return report, err
		}
	}
	return report, nil
}
