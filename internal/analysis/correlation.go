package analysis

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlation holds the Pearson correlation matrices of a dataset's
// variables in the baseline and the alternative, and their difference
// (alternative minus baseline). Variables without variance correlate as NaN.
type Correlation struct {
	Filter      Filter
	Variables   []string
	Rows        int
	Baseline    *mat.SymDense
	Alternative *mat.SymDense
	Difference  *mat.SymDense
}

// Correlate computes the correlation matrices of d.
func Correlate(d *Dataset) (*Correlation, error) {
	if d.Rows() < 2 {
		return nil, eris.Errorf("analysis: correlation (%s) needs at least 2 rows, have %d", d.Filter, d.Rows())
	}
	c := &Correlation{
		Filter:      d.Filter,
		Variables:   d.Variables,
		Rows:        d.Rows(),
		Baseline:    &mat.SymDense{},
		Alternative: &mat.SymDense{},
	}
	stat.CorrelationMatrix(c.Baseline, matrix(d.Baseline), nil)
	stat.CorrelationMatrix(c.Alternative, matrix(d.Alternative), nil)

	n := len(d.Variables)
	c.Difference = mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			c.Difference.SetSym(i, j, c.Alternative.At(i, j)-c.Baseline.At(i, j))
		}
	}
	return c, nil
}

// matrix packs rows into a dense matrix. rows must be non-empty.
func matrix(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}
