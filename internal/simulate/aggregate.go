package simulate

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/cfsim/internal/model"
)

// group collects one year's weighted terms in input order.
type group struct {
	weights []float64
	base    []float64
	alt     []float64
}

// Aggregate groups outcomes by year and computes population-weighted averages
// of the baseline and counterfactual totals, plus absolute and relative
// deviation. Years are returned in ascending order.
//
// Each group reduces sum(x*w) and sum(w) over its rows in input order, so the
// result does not depend on how the per-row stages were sharded. Reordering the
// input may still change the last bits through floating-point rounding.
func Aggregate(variable string, outcomes []model.Outcome) ([]model.YearResult, error) {
	groups := make(map[int]*group)
	var years []int
	for _, o := range outcomes {
		if err := checkOutcome(variable, o); err != nil {
			return nil, err
		}
		g, ok := groups[o.Row.Year]
		if !ok {
			g = &group{}
			groups[o.Row.Year] = g
			years = append(years, o.Row.Year)
		}
		g.weights = append(g.weights, o.Weight)
		g.base = append(g.base, o.XAll)
		g.alt = append(g.alt, o.XAllNew)
	}
	slices.Sort(years)

	results := make([]model.YearResult, 0, len(years))
	for _, year := range years {
		g := groups[year]
		total := floats.Sum(g.weights)
		if !(total > 0) {
			return nil, &DomainError{Kind: KindZeroWeight, Variable: variable, Year: year, Value: total}
		}

		yr := model.YearResult{
			Year:            year,
			Rows:            len(g.weights),
			TotalWeight:     total,
			WeightedXAll:    floats.Dot(g.base, g.weights) / total,
			WeightedXAllNew: floats.Dot(g.alt, g.weights) / total,
		}
		abs, rel, err := Deviation(yr.WeightedXAll, yr.WeightedXAllNew)
		if err != nil {
			de, _ := AsDomainError(err)
			de.Variable = variable
			de.Year = year
			return nil, de
		}
		yr.AbsDev = abs
		yr.RelDev = rel
		results = append(results, yr)
	}
	return results, nil
}

// checkOutcome rejects negative or non-finite weights and non-finite totals,
// which would otherwise surface as Inf or NaN in the year results.
func checkOutcome(variable string, o model.Outcome) error {
	for _, v := range []float64{o.XAll, o.XAllNew, o.Weight} {
		if !finite(v) {
			return invalidOutcome(variable, o, v)
		}
	}
	if o.Weight < 0 {
		return invalidOutcome(variable, o, o.Weight)
	}
	return nil
}

func invalidOutcome(variable string, o model.Outcome, v float64) error {
	key := o.Row.Key
	return &DomainError{Kind: KindInvalidValue, Variable: variable, Key: &key, Year: key.Year, Value: v}
}

// Deviation returns alt-base and (alt-base)/base. A zero baseline makes the
// relative deviation undefined and is reported as a DomainError.
func Deviation(base, alt float64) (abs, rel float64, err error) {
	abs = alt - base
	if base == 0 {
		return abs, 0, &DomainError{Kind: KindZeroBaseline, Value: base}
	}
	return abs, abs / base, nil
}
