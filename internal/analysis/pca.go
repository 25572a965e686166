package analysis

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/cfsim/internal/model"
)

// PCA is a principal component analysis fitted on the standardized baseline
// values. The alternative is scaled with the baseline's means and standard
// deviations and projected onto the same components, so both score sets
// share one coordinate system.
type PCA struct {
	Variables []string
	Keys      []model.Key
	// VarianceRatio is the share of total variance explained by each
	// component, in decreasing order.
	VarianceRatio []float64
	// Loadings has one row per variable and one column per component.
	Loadings *mat.Dense
	// Baseline and Alternative scores have one row per dataset row.
	Baseline    *mat.Dense
	Alternative *mat.Dense
}

// Components returns the number of principal components.
func (p *PCA) Components() int { return len(p.VarianceRatio) }

// Principal fits a PCA on d.
func Principal(d *Dataset) (*PCA, error) {
	if d.Rows() < 2 {
		return nil, eris.Errorf("analysis: pca needs at least 2 rows, have %d", d.Rows())
	}
	base := matrix(d.Baseline)
	alt := matrix(d.Alternative)
	standardize(base, alt)

	var pc stat.PC
	if ok := pc.PrincipalComponents(base, nil); !ok {
		return nil, eris.New("analysis: pca: decomposition failed")
	}
	p := &PCA{Variables: d.Variables, Keys: d.Keys, Loadings: &mat.Dense{}}
	pc.VectorsTo(p.Loadings)

	vars := pc.VarsTo(nil)
	if total := floats.Sum(vars); total > 0 {
		floats.Scale(1/total, vars)
	}
	p.VarianceRatio = vars

	p.Baseline = &mat.Dense{}
	p.Baseline.Mul(base, p.Loadings)
	p.Alternative = &mat.Dense{}
	p.Alternative.Mul(alt, p.Loadings)
	return p, nil
}

// standardize centers and scales the columns of base to zero mean and unit
// population standard deviation, applying the same transform to alt.
// Constant columns are only centered.
func standardize(base, alt *mat.Dense) {
	n, p := base.Dims()
	col := make([]float64, n)
	for j := range p {
		mat.Col(col, j, base)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for _, m := range []*mat.Dense{base, alt} {
			rows, _ := m.Dims()
			for i := range rows {
				m.Set(i, j, (m.At(i, j)-mean)/std)
			}
		}
	}
}
