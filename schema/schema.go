// Package schema holds the records, constants and column helpers shared by every layer.
package schema

import "math"

// UnknownCount marks a count that could not be collected. It is written as an empty cell.
const UnknownCount int64 = -1

// RepoRecord is one row of the repository list produced by collection.
// Releases is UnknownCount when the release listing failed.
type RepoRecord struct {
	Repo      string  `json:"repo"`
	URL       string  `json:"url"`
	Stars     int64   `json:"stars"`
	CreatedAt string  `json:"created_at"`
	Releases  int64   `json:"releases"`
	AgeYears  float64 `json:"age_years"`
}

// SizeRecord holds the line counts measured for one repository.
type SizeRecord struct {
	Repo    string `json:"repo"`
	Files   int64  `json:"files"`
	Code    int64  `json:"code"`
	Comment int64  `json:"comment"`
	Blank   int64  `json:"blank"`
}

// IsZero reports whether every count is zero.
func (s SizeRecord) IsZero() bool {
	return s.Files == 0 && s.Code == 0 && s.Comment == 0 && s.Blank == 0
}

// Add returns the element-wise sum of two size records, keeping the receiver's repo.
func (s SizeRecord) Add(o SizeRecord) SizeRecord {
	return SizeRecord{
		Repo:    s.Repo,
		Files:   s.Files + o.Files,
		Code:    s.Code + o.Code,
		Comment: s.Comment + o.Comment,
		Blank:   s.Blank + o.Blank,
	}
}

// MetricSummary is the mean/median/sample-std triple of one class-level metric.
// All three are NaN when the metric had no values.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// NaNSummary returns a summary with every field set to NaN.
func NaNSummary() MetricSummary {
	return MetricSummary{Mean: math.NaN(), Median: math.NaN(), Std: math.NaN()}
}

// QualityRecord holds the per-repository rollup of class-level CK metrics.
type QualityRecord struct {
	Repo     string        `json:"repo"`
	NClasses int64         `json:"n_classes"`
	CBO      MetricSummary `json:"cbo"`
	DIT      MetricSummary `json:"dit"`
	LCOM     MetricSummary `json:"lcom"`
}

// HasNonzeroMetrics reports whether the record carries any evidence of measured classes.
func (q QualityRecord) HasNonzeroMetrics() bool {
	if q.NClasses > 0 {
		return true
	}
	for _, s := range []MetricSummary{q.CBO, q.DIT, q.LCOM} {
		if !math.IsNaN(s.Mean) && s.Mean > 0 {
			return true
		}
	}
	return false
}

// MergedRecord is one repository left-joined with its size and quality rows.
// Size and Quality are nil when the repository was never measured by that tool.
type MergedRecord struct {
	RepoRecord
	Size      *SizeRecord    `json:"size,omitempty"`
	Quality   *QualityRecord `json:"quality,omitempty"`
	Anomalous bool           `json:"anomalous"`
}

// CorrelationRecord is one process-metric/quality-metric pair.
type CorrelationRecord struct {
	Process   ProcessGroup `json:"process"`
	X         string       `json:"x"`
	Y         string       `json:"y"`
	Spearman  float64      `json:"r_spearman"`
	Pearson   float64      `json:"r_pearson"`
	SpearmanP float64      `json:"p_value"`
	PearsonP  float64      `json:"p_pearson"`
	N         int          `json:"n"`
}

// ProcessStrength is the median |r_spearman| over every quality metric paired with one process column.
type ProcessStrength struct {
	Process      ProcessGroup `json:"process"`
	X            string       `json:"x"`
	MedianAbsRho float64      `json:"median_abs_r_spearman"`
	Correlations int          `json:"correlations"`
}

// AnalysisReport is what the analysis prints after writing its tables.
type AnalysisReport struct {
	Repos     int                 `json:"repos"`
	Measured  int                 `json:"measured"`
	Anomalous int                 `json:"anomalous"`
	Computed  int                 `json:"computed"`
	Top       []CorrelationRecord `json:"top"`
	Strength  []ProcessStrength   `json:"strength"`
}

// FailureEntry is one line of the failure log.
type FailureEntry struct {
	Repo   string       `json:"repo"`
	Stage  FailureStage `json:"stage"`
	Reason string       `json:"reason"`
}

// RepoTask is a repository selected for measurement, with its index in the filtered input list.
type RepoTask struct {
	Index int
	Repo  string
	URL   string
}

// RunSummary reports the outcome of one measurement run.
type RunSummary struct {
	Selected   int                  `json:"selected"`
	Succeeded  int                  `json:"succeeded"`
	Failed     int                  `json:"failed"`
	NotStarted int                  `json:"not_started"`
	ByStage    map[FailureStage]int `json:"by_stage"`
	Duration   string               `json:"duration"`
}

// MergeReport reports the outcome of merging shard summaries.
type MergeReport struct {
	SizeRows         int      `json:"size_rows"`
	QualityRows      int      `json:"quality_rows"`
	SizeConflicts    int      `json:"size_conflicts"`
	QualityConflicts int      `json:"quality_conflicts"`
	Sources          []string `json:"sources"`
}

// MissingReport lists repositories of the input list absent from the summary tables.
// Next is the union of both gaps, in list order, for targeted re-processing.
type MissingReport struct {
	Total          int          `json:"total"`
	SizePresent    int          `json:"size_present"`
	QualityPresent int          `json:"quality_present"`
	MissingSize    []string     `json:"missing_size"`
	MissingQuality []string     `json:"missing_quality"`
	MissingBoth    []string     `json:"missing_both"`
	Next           []RepoRecord `json:"next"`
	WrittenTo      string       `json:"written_to,omitempty"`
}

// ValidationReport groups repositories by anomaly and outlier category.
type ValidationReport struct {
	Total      int                 `json:"total"`
	Categories map[string][]string `json:"categories"`
}

// Validation category names.
const (
	ZeroCodeWithQuality = "zero_code_with_quality"
	QualityWithoutSize  = "quality_without_size"
	SizeWithoutQuality  = "size_without_quality"
	LCOMMedianHigh      = "lcom_median_gt_100"
	CBOMedianHigh       = "cbo_median_gt_10"
	DITMedianHigh       = "dit_median_gt_4"
)

// ValidationCategories lists the categories in report order.
var ValidationCategories = []string{
	ZeroCodeWithQuality, QualityWithoutSize, SizeWithoutQuality,
	LCOMMedianHigh, CBOMedianHigh, DITMedianHigh,
}
