package algo

import (
	"math"
	"sort"

	"github.com/huangsam/repostudy/schema"
)

// RankCorrelations returns the correlations with at least minN pairs, sorted by
// |r_spearman| in descending order and cut to limit. A limit of 0 keeps all of them.
func RankCorrelations(corrs []schema.CorrelationRecord, minN, limit int) []schema.CorrelationRecord {
	ranked := make([]schema.CorrelationRecord, 0, len(corrs))
	for _, c := range corrs {
		if c.N >= minN && !math.IsNaN(c.Spearman) {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Spearman) > math.Abs(ranked[j].Spearman)
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// MedianStrengthByProcess groups correlations by process column and reports the
// median absolute Spearman coefficient, strongest first.
func MedianStrengthByProcess(corrs []schema.CorrelationRecord) []schema.ProcessStrength {
	type key struct {
		process schema.ProcessGroup
		x       string
	}
	groups := make(map[key][]float64)
	var order []key
	for _, c := range corrs {
		if math.IsNaN(c.Spearman) {
			continue
		}
		k := key{c.Process, c.X}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], math.Abs(c.Spearman))
	}

	out := make([]schema.ProcessStrength, 0, len(order))
	for _, k := range order {
		out = append(out, schema.ProcessStrength{
			Process:      k.process,
			X:            k.x,
			MedianAbsRho: Median(groups[k]),
			Correlations: len(groups[k]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MedianAbsRho > out[j].MedianAbsRho })
	return out
}
