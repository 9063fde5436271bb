package core

import (
	"path/filepath"

	"github.com/huangsam/repostudy/core/algo"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/schema"
)

// Tables are the analysis inputs, with summary rows deduplicated by repo.
type Tables struct {
	Repos     []schema.RepoRecord
	Sizes     []schema.SizeRecord
	Qualities []schema.QualityRecord
}

// LoadSummaries reads the size and quality summaries for suffix from dir, keeping the
// best row per repository. Absent summaries read as empty tables.
func LoadSummaries(dir, suffix string) (Tables, error) {
	sizes, err := dataset.ReadSizeSummary(filepath.Join(dir, schema.SizeSummaryFile(suffix)))
	if err != nil {
		return Tables{}, err
	}
	qualities, err := dataset.ReadQualitySummary(filepath.Join(dir, schema.QualitySummaryFile(suffix)))
	if err != nil {
		return Tables{}, err
	}
	t := Tables{}
	t.Sizes, _ = dedupeSizes(sizes)
	t.Qualities, _ = dedupeQualities(qualities)
	return t, nil
}

// LoadTables reads the repository list plus the summaries for suffix from dir.
func LoadTables(inputPath, dir, suffix string) (Tables, error) {
	repos, err := dataset.ReadRepoList(inputPath)
	if err != nil {
		return Tables{}, err
	}
	t, err := LoadSummaries(dir, suffix)
	if err != nil {
		return Tables{}, err
	}
	t.Repos = repos
	return t, nil
}

// JoinTables left-joins the summaries onto the repository list. Each repository
// appears once; when the list repeats a repository, its first row wins.
func JoinTables(t Tables) []schema.MergedRecord {
	sizes := make(map[string]schema.SizeRecord, len(t.Sizes))
	for _, s := range t.Sizes {
		sizes[s.Repo] = s
	}
	qualities := make(map[string]schema.QualityRecord, len(t.Qualities))
	for _, q := range t.Qualities {
		qualities[q.Repo] = q
	}

	seen := make(map[string]struct{}, len(t.Repos))
	merged := make([]schema.MergedRecord, 0, len(t.Repos))
	for _, r := range t.Repos {
		if _, dup := seen[r.Repo]; dup {
			continue
		}
		seen[r.Repo] = struct{}{}
		m := schema.MergedRecord{RepoRecord: r}
		if s, ok := sizes[r.Repo]; ok {
			m.Size = &s
		}
		if q, ok := qualities[r.Repo]; ok {
			m.Quality = &q
		}
		m.Anomalous = isAnomalous(m.Size, m.Quality)
		merged = append(merged, m)
	}
	return merged
}

// isAnomalous flags a repository measured with zero code but with nonzero quality metrics.
func isAnomalous(size *schema.SizeRecord, quality *schema.QualityRecord) bool {
	return size != nil && size.Code == 0 && quality != nil && quality.HasNonzeroMetrics()
}

// ComputeCorrelations correlates every process column with every quality column.
// Pairs use only rows where both values are present and finite; a pair is skipped
// when it has fewer than minN rows or either side is constant.
func ComputeCorrelations(rows []schema.MergedRecord, minN int) []schema.CorrelationRecord {
	var out []schema.CorrelationRecord
	for _, group := range schema.ProcessGroups {
		for _, x := range schema.ProcessMetrics[group] {
			for _, y := range schema.QualityMetrics {
				xs, ys := pairedValues(rows, x, y)
				n := len(xs)
				if n < minN || !algo.HasVariance(xs) || !algo.HasVariance(ys) {
					continue
				}
				rs := algo.Spearman(xs, ys)
				rp := algo.Pearson(xs, ys)
				out = append(out, schema.CorrelationRecord{
					Process:   group,
					X:         x,
					Y:         y,
					Spearman:  rs,
					Pearson:   rp,
					SpearmanP: algo.PValue(rs, n),
					PearsonP:  algo.PValue(rp, n),
					N:         n,
				})
			}
		}
	}
	return out
}

func pairedValues(rows []schema.MergedRecord, x, y string) ([]float64, []float64) {
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for _, r := range rows {
		xv, okX := r.Value(x)
		yv, okY := r.Value(y)
		if okX && okY {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}
	return xs, ys
}

// BuildMissingReport lists the repositories of t.Repos absent from each summary.
func BuildMissingReport(t Tables) schema.MissingReport {
	hasSize := make(map[string]struct{}, len(t.Sizes))
	for _, s := range t.Sizes {
		hasSize[s.Repo] = struct{}{}
	}
	hasQuality := make(map[string]struct{}, len(t.Qualities))
	for _, q := range t.Qualities {
		hasQuality[q.Repo] = struct{}{}
	}

	report := schema.MissingReport{}
	seen := make(map[string]struct{}, len(t.Repos))
	for _, r := range t.Repos {
		if _, dup := seen[r.Repo]; dup {
			continue
		}
		seen[r.Repo] = struct{}{}
		report.Total++
		_, sizeOK := hasSize[r.Repo]
		_, qualityOK := hasQuality[r.Repo]
		if sizeOK {
			report.SizePresent++
		} else {
			report.MissingSize = append(report.MissingSize, r.Repo)
		}
		if qualityOK {
			report.QualityPresent++
		} else {
			report.MissingQuality = append(report.MissingQuality, r.Repo)
		}
		if !sizeOK && !qualityOK {
			report.MissingBoth = append(report.MissingBoth, r.Repo)
		}
		if !sizeOK || !qualityOK {
			report.Next = append(report.Next, r)
		}
	}
	return report
}

// BuildValidationReport groups the repositories of the summary tables by anomaly and
// outlier category. Every category is present in the report, possibly empty.
func BuildValidationReport(t Tables) schema.ValidationReport {
	report := schema.ValidationReport{Categories: make(map[string][]string, len(schema.ValidationCategories))}
	for _, c := range schema.ValidationCategories {
		report.Categories[c] = []string{}
	}
	add := func(category, repo string) {
		report.Categories[category] = append(report.Categories[category], repo)
	}

	sizes := make(map[string]schema.SizeRecord, len(t.Sizes))
	var order []string
	for _, s := range t.Sizes {
		sizes[s.Repo] = s
		order = append(order, s.Repo)
	}
	qualities := make(map[string]schema.QualityRecord, len(t.Qualities))
	for _, q := range t.Qualities {
		if _, ok := sizes[q.Repo]; !ok {
			order = append(order, q.Repo)
		}
		qualities[q.Repo] = q
	}
	report.Total = len(order)

	for _, repo := range order {
		s, hasSize := sizes[repo]
		q, hasQuality := qualities[repo]
		var sp *schema.SizeRecord
		if hasSize {
			sp = &s
		}
		var qp *schema.QualityRecord
		if hasQuality {
			qp = &q
		}

		switch {
		case isAnomalous(sp, qp):
			add(schema.ZeroCodeWithQuality, repo)
		case !hasSize && hasQuality && q.NClasses > 0:
			add(schema.QualityWithoutSize, repo)
		case hasSize && s.Code > 0 && (!hasQuality || q.NClasses == 0):
			add(schema.SizeWithoutQuality, repo)
		}

		if !hasQuality {
			continue
		}
		// NaN medians compare false and never count as outliers.
		if q.LCOM.Median > schema.LCOMMedianOutlier {
			add(schema.LCOMMedianHigh, repo)
		}
		if q.CBO.Median > schema.CBOMedianOutlier {
			add(schema.CBOMedianHigh, repo)
		}
		if q.DIT.Median > schema.DITMedianOutlier {
			add(schema.DITMedianHigh, repo)
		}
	}
	return report
}
