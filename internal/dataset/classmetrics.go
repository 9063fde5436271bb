package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Accepted spellings of the CK columns across CK releases.
var (
	cboColumns  = []string{"cbo", "cbomodified"}
	ditColumns  = []string{"dit"}
	lcomColumns = []string{"lcom", "lcom*", "lcomstar", "lcoms"}
)

// ClassMetrics holds the numeric class-level columns of a CK class.csv.
// Rows counts every data row, including rows whose metric cells were not numeric.
type ClassMetrics struct {
	Rows int
	CBO  []float64
	DIT  []float64
	LCOM []float64
}

// ReadClassMetrics reads a CK class.csv. Column names match case-insensitively and
// non-numeric cells are skipped.
func ReadClassMetrics(path string) (ClassMetrics, error) {
	t, err := readTable(path)
	if err != nil {
		return ClassMetrics{}, fmt.Errorf("cannot read class metrics %s: %w", path, err)
	}
	return ClassMetrics{
		Rows: len(t.rows),
		CBO:  numericColumn(t, cboColumns),
		DIT:  numericColumn(t, ditColumns),
		LCOM: numericColumn(t, lcomColumns),
	}, nil
}

func numericColumn(t *table, names []string) []float64 {
	if !t.has(names...) {
		return nil
	}
	values := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		v, err := strconv.ParseFloat(t.get(row, names...), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values
}
