package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeRecordAdd(t *testing.T) {
	a := SizeRecord{Repo: "a/b", Files: 1, Code: 10, Comment: 2, Blank: 3}
	b := SizeRecord{Repo: "other", Files: 2, Code: 5, Comment: 1, Blank: 1}
	sum := a.Add(b)
	assert.Equal(t, SizeRecord{Repo: "a/b", Files: 3, Code: 15, Comment: 3, Blank: 4}, sum)
	assert.False(t, sum.IsZero())
	assert.True(t, SizeRecord{Repo: "x/y"}.IsZero())
}

func TestHasNonzeroMetrics(t *testing.T) {
	empty := QualityRecord{CBO: NaNSummary(), DIT: NaNSummary(), LCOM: NaNSummary()}
	assert.False(t, empty.HasNonzeroMetrics())

	zeros := QualityRecord{CBO: MetricSummary{}, DIT: MetricSummary{}, LCOM: MetricSummary{}}
	assert.False(t, zeros.HasNonzeroMetrics())

	withClasses := empty
	withClasses.NClasses = 4
	assert.True(t, withClasses.HasNonzeroMetrics())

	withMean := empty
	withMean.LCOM = MetricSummary{Mean: 2.5, Median: 1, Std: 0}
	assert.True(t, withMean.HasNonzeroMetrics())
}

func TestNaNSummary(t *testing.T) {
	s := NaNSummary()
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Median))
	assert.True(t, math.IsNaN(s.Std))
}
