package schema

import (
	"math"
	"strconv"
	"strings"
)

// Table headers, in file column order.
var (
	RepoHeader    = []string{"repo", "url", "stars", "created_at", "releases", "age_years"}
	SizeHeader    = []string{"repo", "files", "code", "comment", "blank"}
	QualityHeader = []string{
		"repo",
		"cbo_mean", "cbo_median", "cbo_std",
		"dit_mean", "dit_median", "dit_std",
		"lcom_mean", "lcom_median", "lcom_std",
		"n_classes",
	}
	MergedHeader = []string{
		"repo", "url", "stars", "created_at", "releases", "age_years",
		"files", "code", "comment", "blank",
		"n_classes",
		"cbo_mean", "cbo_median", "cbo_std",
		"dit_mean", "dit_median", "dit_std",
		"lcom_mean", "lcom_median", "lcom_std",
		"anomalous",
	}
	CorrelationHeader = []string{"process", "x", "y", "r_spearman", "r_pearson", "p_value", "p_pearson", "n"}
)

// SizeSummaryFile returns the size summary file name for a shard suffix.
func SizeSummaryFile(suffix string) string {
	return SizeSummaryBase + suffix + summaryFileExt
}

// QualitySummaryFile returns the quality summary file name for a shard suffix.
func QualitySummaryFile(suffix string) string {
	return QualitySummaryBase + suffix + summaryFileExt
}

// FailureLogFile returns the failure log file name for a shard suffix.
func FailureLogFile(suffix string) string {
	return FailureLogBase + suffix + failureLogExtension
}

// Value returns the numeric value of a merged-table column.
// The second result is false when the value is missing (unmeasured repository or NaN statistic).
func (m MergedRecord) Value(column string) (float64, bool) {
	var v float64
	switch column {
	case "stars":
		v = float64(m.Stars)
	case "releases":
		if m.Releases < 0 {
			return 0, false
		}
		v = float64(m.Releases)
	case "age_years":
		v = m.AgeYears
	case "files", "code", "comment", "blank":
		if m.Size == nil {
			return 0, false
		}
		v = m.Size.column(column)
	case "n_classes":
		if m.Quality == nil {
			return 0, false
		}
		v = float64(m.Quality.NClasses)
	default:
		if m.Quality == nil {
			return 0, false
		}
		q, ok := m.Quality.Column(column)
		if !ok {
			return 0, false
		}
		v = q
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (s SizeRecord) column(name string) float64 {
	switch name {
	case "files":
		return float64(s.Files)
	case "code":
		return float64(s.Code)
	case "comment":
		return float64(s.Comment)
	default:
		return float64(s.Blank)
	}
}

// Column returns a quality statistic by its table column name (e.g. "cbo_median").
func (q QualityRecord) Column(name string) (float64, bool) {
	metric, stat, ok := strings.Cut(name, "_")
	if !ok {
		return 0, false
	}
	var s MetricSummary
	switch metric {
	case "cbo":
		s = q.CBO
	case "dit":
		s = q.DIT
	case "lcom":
		s = q.LCOM
	default:
		return 0, false
	}
	switch stat {
	case "mean":
		return s.Mean, true
	case "median":
		return s.Median, true
	case "std":
		return s.Std, true
	}
	return 0, false
}

// FormatFloat renders a statistic with six decimals, or an empty cell for NaN.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseFloat reads a statistic cell; empty, "nan" and unparsable cells become NaN.
func ParseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseInt reads an integer cell, tolerating float renderings such as "12.0".
// Unparsable cells read as zero.
func ParseInt(s string) int64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int64(f)
	}
	return 0
}

// FormatCount renders a count, or an empty cell when it is unknown.
func FormatCount(v int64) string {
	if v < 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// ParseCount reads a count cell where an empty cell means unknown.
func ParseCount(s string) int64 {
	if strings.TrimSpace(s) == "" {
		return UnknownCount
	}
	return ParseInt(s)
}

// SizeRow renders a size record as a table row.
func (s SizeRecord) SizeRow() []string {
	return []string{
		s.Repo,
		strconv.FormatInt(s.Files, 10),
		strconv.FormatInt(s.Code, 10),
		strconv.FormatInt(s.Comment, 10),
		strconv.FormatInt(s.Blank, 10),
	}
}

// QualityRow renders a quality record as a table row.
func (q QualityRecord) QualityRow() []string {
	return []string{
		q.Repo,
		FormatFloat(q.CBO.Mean), FormatFloat(q.CBO.Median), FormatFloat(q.CBO.Std),
		FormatFloat(q.DIT.Mean), FormatFloat(q.DIT.Median), FormatFloat(q.DIT.Std),
		FormatFloat(q.LCOM.Mean), FormatFloat(q.LCOM.Median), FormatFloat(q.LCOM.Std),
		strconv.FormatInt(q.NClasses, 10),
	}
}

// RepoRow renders a repository record as a table row.
func (r RepoRecord) RepoRow() []string {
	return []string{
		r.Repo,
		r.URL,
		strconv.FormatInt(r.Stars, 10),
		r.CreatedAt,
		FormatCount(r.Releases),
		FormatFloat(r.AgeYears),
	}
}

// MergedRow renders a merged record as a table row; unmeasured cells are empty.
func (m MergedRecord) MergedRow() []string {
	row := m.RepoRow()
	if m.Size != nil {
		row = append(row, m.Size.SizeRow()[1:]...)
	} else {
		row = append(row, "", "", "", "")
	}
	if m.Quality != nil {
		q := m.Quality.QualityRow()
		row = append(row, q[len(q)-1])
		row = append(row, q[1:len(q)-1]...)
	} else {
		row = append(row, "", "", "", "", "", "", "", "", "", "")
	}
	return append(row, strconv.FormatBool(m.Anomalous))
}

// CorrelationRow renders a correlation record as a table row.
func (c CorrelationRecord) CorrelationRow() []string {
	return []string{
		string(c.Process), c.X, c.Y,
		FormatFloat(c.Spearman), FormatFloat(c.Pearson),
		formatPValue(c.SpearmanP), formatPValue(c.PearsonP),
		strconv.Itoa(c.N),
	}
}

func formatPValue(p float64) string {
	if math.IsNaN(p) {
		return ""
	}
	return strconv.FormatFloat(p, 'g', 6, 64)
}
