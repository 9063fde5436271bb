package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/repostudy/core/algo"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/schema"
)

// ckFallbackTargets are tried, in order, when CK fails on the checkout root.
var ckFallbackTargets = []string{filepath.Join("src", "main", "java"), "src"}

var errEmptyClassMetrics = errors.New("class.csv has no rows")

// measureQuality runs CK on root, retrying once on the first fallback source
// directory that exists. It returns the summary and the directory CK succeeded on.
func measureQuality(ctx context.Context, meter contract.QualityMeter, repo, root, outDir string) (schema.QualityRecord, string, error) {
	metrics, err := runCK(ctx, meter, root, outDir)
	if err == nil {
		return summarizeClassMetrics(repo, metrics), root, nil
	}

	retry := firstExistingDir(root, ckFallbackTargets)
	if retry == "" {
		return schema.QualityRecord{}, "", err
	}
	metrics, retryErr := runCK(ctx, meter, retry, outDir)
	if retryErr != nil {
		rel, _ := filepath.Rel(root, retry)
		return schema.QualityRecord{}, "", fmt.Errorf("%w; retry on %s: %w", err, filepath.ToSlash(rel), retryErr)
	}
	return summarizeClassMetrics(repo, metrics), retry, nil
}

// runCK invokes CK once with a clean output directory and reads its class.csv.
// CK sometimes writes class.csv next to the analyzed sources; it is moved into outDir.
func runCK(ctx context.Context, meter contract.QualityMeter, target, outDir string) (dataset.ClassMetrics, error) {
	if err := os.RemoveAll(outDir); err != nil {
		return dataset.ClassMetrics{}, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return dataset.ClassMetrics{}, err
	}
	runErr := meter.Measure(ctx, target, outDir)

	classCSV := filepath.Join(outDir, schema.ClassMetricsFile)
	if !fileExists(classCSV) {
		stray := filepath.Join(target, schema.ClassMetricsFile)
		if fileExists(stray) {
			if err := os.Rename(stray, classCSV); err != nil {
				return dataset.ClassMetrics{}, fmt.Errorf("cannot move %s: %w", stray, err)
			}
		}
	}
	if runErr != nil {
		return dataset.ClassMetrics{}, runErr
	}
	if !fileExists(classCSV) {
		return dataset.ClassMetrics{}, errors.New("CK produced no class.csv")
	}
	metrics, err := dataset.ReadClassMetrics(classCSV)
	if err != nil {
		return dataset.ClassMetrics{}, err
	}
	if metrics.Rows == 0 {
		return dataset.ClassMetrics{}, errEmptyClassMetrics
	}
	return metrics, nil
}

// summarizeClassMetrics rolls class-level metrics up to one repository record.
func summarizeClassMetrics(repo string, m dataset.ClassMetrics) schema.QualityRecord {
	n := len(m.CBO)
	if n == 0 {
		n = len(m.DIT)
	}
	if n == 0 {
		n = len(m.LCOM)
	}
	return schema.QualityRecord{
		Repo:     repo,
		NClasses: int64(n),
		CBO:      metricSummary(m.CBO),
		DIT:      metricSummary(m.DIT),
		LCOM:     metricSummary(m.LCOM),
	}
}

func metricSummary(values []float64) schema.MetricSummary {
	s := algo.Summarize(values)
	return schema.MetricSummary{Mean: s.Mean, Median: s.Median, Std: s.Std}
}

func firstExistingDir(root string, candidates []string) string {
	for _, c := range candidates {
		p := filepath.Join(root, c)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
