package schema

import (
	"encoding/json"
	"math"
)

// nullableFloat maps NaN and infinities to a JSON null, which encoding/json cannot represent.
func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON encodes NaN statistics as null.
func (s MetricSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		Std    *float64 `json:"std"`
	}{nullableFloat(s.Mean), nullableFloat(s.Median), nullableFloat(s.Std)})
}

type repoJSON struct {
	Repo      string   `json:"repo"`
	URL       string   `json:"url"`
	Stars     int64    `json:"stars"`
	CreatedAt string   `json:"created_at"`
	Releases  *int64   `json:"releases"`
	AgeYears  *float64 `json:"age_years"`
}

func (r RepoRecord) toJSON() repoJSON {
	var releases *int64
	if r.Releases >= 0 {
		releases = &r.Releases
	}
	return repoJSON{r.Repo, r.URL, r.Stars, r.CreatedAt, releases, nullableFloat(r.AgeYears)}
}

// MarshalJSON encodes an unknown age or release count as null.
func (r RepoRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toJSON())
}

// MarshalJSON flattens the repository fields next to the measurements.
// Without it the promoted RepoRecord.MarshalJSON would drop them.
func (m MergedRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		repoJSON
		Size      *SizeRecord    `json:"size,omitempty"`
		Quality   *QualityRecord `json:"quality,omitempty"`
		Anomalous bool           `json:"anomalous"`
	}{m.RepoRecord.toJSON(), m.Size, m.Quality, m.Anomalous})
}

// MarshalJSON encodes an undefined p-value as null.
func (c CorrelationRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Process   ProcessGroup `json:"process"`
		X         string       `json:"x"`
		Y         string       `json:"y"`
		Spearman  *float64     `json:"r_spearman"`
		Pearson   *float64     `json:"r_pearson"`
		SpearmanP *float64     `json:"p_value"`
		PearsonP  *float64     `json:"p_pearson"`
		N         int          `json:"n"`
	}{c.Process, c.X, c.Y, nullableFloat(c.Spearman), nullableFloat(c.Pearson),
		nullableFloat(c.SpearmanP), nullableFloat(c.PearsonP), c.N})
}
