package algo

import (
	"math"
	"testing"

	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankCorrelations(t *testing.T) {
	corrs := []schema.CorrelationRecord{
		{X: "stars", Y: "cbo_mean", Spearman: 0.2, N: 100},
		{X: "stars", Y: "dit_mean", Spearman: -0.6, N: 100},
		{X: "code", Y: "lcom_mean", Spearman: 0.9, N: 10}, // below minN
		{X: "code", Y: "cbo_std", Spearman: 0.4, N: 60},
		{X: "releases", Y: "dit_std", Spearman: math.NaN(), N: 100},
	}

	ranked := RankCorrelations(corrs, 50, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "dit_mean", ranked[0].Y)
	assert.Equal(t, "cbo_std", ranked[1].Y)

	all := RankCorrelations(corrs, 0, 0)
	assert.Len(t, all, 4)
	assert.Equal(t, "lcom_mean", all[0].Y)
}

func TestMedianStrengthByProcess(t *testing.T) {
	corrs := []schema.CorrelationRecord{
		{Process: schema.PopularityGroup, X: "stars", Spearman: 0.1},
		{Process: schema.PopularityGroup, X: "stars", Spearman: -0.3},
		{Process: schema.PopularityGroup, X: "stars", Spearman: 0.2},
		{Process: schema.SizeGroup, X: "code", Spearman: 0.5},
		{Process: schema.SizeGroup, X: "code", Spearman: -0.7},
		{Process: schema.ActivityGroup, X: "releases", Spearman: math.NaN()},
	}

	got := MedianStrengthByProcess(corrs)
	require.Len(t, got, 2)
	assert.Equal(t, "code", got[0].X)
	assert.InDelta(t, 0.6, got[0].MedianAbsRho, 1e-12)
	assert.Equal(t, 2, got[0].Correlations)
	assert.Equal(t, "stars", got[1].X)
	assert.InDelta(t, 0.2, got[1].MedianAbsRho, 1e-12)
}
