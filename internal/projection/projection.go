// Package projection extends per-variable summary results into future years.
package projection

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/cfsim/internal/model"
)

// Default ramp targets reached after the last projected year.
const (
	RampUp   = 1.2
	RampDown = 0.8
)

// Options configures a projection.
type Options struct {
	YearsAhead int
	// Growth holds constant annual growth rates per variable, matched
	// case-insensitively. Variables without an entry follow the linear ramp.
	Growth map[string]float64
}

func (o Options) growth(variable string) (float64, bool) {
	if g, ok := o.Growth[variable]; ok {
		return g, true
	}
	for k, g := range o.Growth {
		if strings.EqualFold(k, variable) {
			return g, true
		}
	}
	return 0, false
}

// Project takes the latest year of each variable in summary and projects its
// baseline and alternative YearsAhead years forward. Offset 0 is the latest
// observed year itself. Variables keep their first-appearance order.
func Project(summary []model.SummaryRow, opts Options) ([]model.ProjectionPoint, error) {
	if opts.YearsAhead < 0 {
		return nil, eris.Errorf("projection: years ahead must be non-negative, got %d", opts.YearsAhead)
	}

	var order []string
	latest := make(map[string]model.SummaryRow)
	for _, r := range summary {
		prev, ok := latest[r.Variable]
		if !ok {
			order = append(order, r.Variable)
		}
		if !ok || r.Year > prev.Year {
			latest[r.Variable] = r
		}
	}

	n := opts.YearsAhead + 1
	out := make([]model.ProjectionPoint, 0, n*len(order))
	for _, v := range order {
		base := latest[v]
		var bs, as []float64
		if g, ok := opts.growth(v); ok {
			bs = Compound(base.WeightedXAll, g, n)
			as = Compound(base.WeightedXAllNew, g, n)
		} else {
			bs = Ramp(base.WeightedXAll, n)
			as = Ramp(base.WeightedXAllNew, n)
		}
		for t := range n {
			p := model.ProjectionPoint{
				Variable:    v,
				Offset:      t,
				Year:        base.Year + t,
				Baseline:    bs[t],
				Alternative: as[t],
			}
			if bs[t] != 0 {
				rel := (as[t] - bs[t]) / bs[t]
				p.RelDiff = &rel
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// Compound returns n values v·(1+g)^t for t = 0..n-1.
func Compound(v, g float64, n int) []float64 {
	out := make([]float64, n)
	for t := range out {
		out[t] = v * math.Pow(1+g, float64(t))
	}
	return out
}

// Ramp returns n evenly spaced values from v to v·1.2 (v > 0) or v·0.8
// (otherwise).
func Ramp(v float64, n int) []float64 {
	end := v * RampDown
	if v > 0 {
		end = v * RampUp
	}
	out := make([]float64, n)
	switch n {
	case 0:
		return out
	case 1:
		out[0] = v
		return out
	}
	return floats.Span(out, v, end)
}
