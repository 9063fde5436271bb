package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.InDelta(t, 1.2909944, s.Std, 1e-6)

	single := Summarize([]float64{7})
	assert.Equal(t, 7.0, single.Mean)
	assert.Equal(t, 7.0, single.Median)
	assert.Equal(t, 0.0, single.Std)

	empty := Summarize(nil)
	assert.True(t, math.IsNaN(empty.Mean))
	assert.True(t, math.IsNaN(empty.Median))
	assert.True(t, math.IsNaN(empty.Std))
}

func TestMedianDoesNotMutate(t *testing.T) {
	values := []float64{5, 1, 3}
	assert.Equal(t, 3.0, Median(values))
	assert.Equal(t, []float64{5, 1, 3}, values)
}

func TestRanksAverageTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, Ranks([]float64{10, 20, 30}))
	assert.Equal(t, []float64{3, 1, 2}, Ranks([]float64{30, 10, 20}))
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, Ranks([]float64{1, 2, 2, 3}))
	assert.Equal(t, []float64{2, 2, 2}, Ranks([]float64{5, 5, 5}))
	assert.Empty(t, Ranks(nil))
}

func TestSpearmanPerfectMonotonic(t *testing.T) {
	code := []float64{100, 200, 300}
	cboStd := []float64{1, 2, 3}
	assert.Equal(t, 1.0, Spearman(code, cboStd))
	assert.Equal(t, 0.0, PValue(1.0, 3))

	assert.Equal(t, -1.0, Spearman(code, []float64{9, 4, 1}))
	// Monotonic but not linear: Spearman is exact, Pearson is not
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 4, 9, 16, 1000}
	assert.Equal(t, 1.0, Spearman(x, y))
	assert.Less(t, Pearson(x, y), 1.0)
}

func TestCorrelationSymmetryAndBounds(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	y := []float64{2, 7, 1, 8, 2, 8, 1, 8}

	assert.InDelta(t, Pearson(x, y), Pearson(y, x), 1e-12)
	assert.InDelta(t, Spearman(x, y), Spearman(y, x), 1e-12)
	for _, r := range []float64{Pearson(x, y), Spearman(x, y)} {
		assert.GreaterOrEqual(t, r, -1.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestCorrelationZeroVariance(t *testing.T) {
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Spearman([]float64{1, 2, 3}, []float64{4, 4, 4})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2}, []float64{1, 2, 3})))
	assert.False(t, HasVariance([]float64{2, 2}))
	assert.False(t, HasVariance(nil))
	assert.True(t, HasVariance([]float64{2, 3}))
}

func TestPValue(t *testing.T) {
	// r = 0.5 with n = 10: t = 1.633, df = 8, two-sided p ~ 0.141
	assert.InDelta(t, 0.1411, PValue(0.5, 10), 1e-3)
	assert.InDelta(t, 1.0, PValue(0, 10), 1e-12)
	assert.True(t, math.IsNaN(PValue(0.5, 2)))
	assert.True(t, math.IsNaN(PValue(math.NaN(), 10)))
	assert.Equal(t, 0.0, PValue(-1, 5))
}
