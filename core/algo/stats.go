// Package algo holds the descriptive statistics and correlation measures behind the analysis.
package algo

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary is the mean/median/sample standard deviation of one sample.
type Summary struct {
	Mean   float64
	Median float64
	Std    float64
}

// Summarize computes the mean, median and sample standard deviation of values.
// All three are NaN for an empty sample; Std is 0 when fewer than two values exist.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{Mean: math.NaN(), Median: math.NaN(), Std: math.NaN()}
	}
	return Summary{Mean: stat.Mean(values, nil), Median: Median(values), Std: SampleStd(values)}
}

// Median returns the middle value, averaging the two middle values of an even-sized sample.
// The input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// SampleStd returns the n-1 standard deviation, or 0 for fewer than two values.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Ranks assigns 1-based ranks, giving tied values the average of the ranks they span.
func Ranks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		// positions i..j-1 share ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}
	return ranks
}

// HasVariance reports whether values holds at least two distinct numbers.
func HasVariance(values []float64) bool {
	for _, v := range values[min(1, len(values)):] {
		if v != values[0] {
			return true
		}
	}
	return false
}

// Pearson returns the linear correlation of x and y, clamped to [-1, 1].
// It is NaN when either side has no variance or the lengths differ.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 || !HasVariance(x) || !HasVariance(y) {
		return math.NaN()
	}
	return clamp(stat.Correlation(x, y, nil))
}

// Spearman returns the rank correlation of x and y: Pearson on average ranks.
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}
	return Pearson(Ranks(x), Ranks(y))
}

// PValue returns the two-sided p-value of correlation r over n pairs, using a
// Student t distribution with n-2 degrees of freedom.
func PValue(r float64, n int) float64 {
	if math.IsNaN(r) || n < 3 {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return math.Min(1, math.Max(0, p))
}

func clamp(r float64) float64 {
	if math.IsNaN(r) {
		return r
	}
	return math.Max(-1, math.Min(1, r))
}
