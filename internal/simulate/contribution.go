package simulate

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/cfsim/internal/model"
)

// DefaultTopGroups is how many demographic groups are named as the largest
// contributors to a change.
const DefaultTopGroups = 3

type groupKey struct {
	year     int
	age, sex string
}

// Contributions scales every outcome by its row population and breaks the
// per-year totals down by (age, sex) group. Groups keep first-seen order.
// The top groups of each year are ranked by absolute change, ties keeping
// input order.
func Contributions(outcomes []model.Outcome, top int) ([]model.PopulationTotals, []model.Contribution) {
	var (
		order []groupKey
		years []int
	)
	sums := make(map[groupKey]*model.Contribution)
	pops := make(map[int][]float64)
	base := make(map[int][]float64)
	alt := make(map[int][]float64)
	for _, o := range outcomes {
		year := o.Row.Year
		if _, ok := pops[year]; !ok {
			years = append(years, year)
		}
		pops[year] = append(pops[year], o.Row.Population)
		base[year] = append(base[year], o.XAll)
		alt[year] = append(alt[year], o.XAllNew)

		k := groupKey{year: year, age: o.Row.Age, sex: o.Row.Sex}
		c, ok := sums[k]
		if !ok {
			c = &model.Contribution{Year: year, Age: k.age, Sex: k.sex}
			sums[k] = c
			order = append(order, k)
		}
		c.Baseline += o.XAll * o.Row.Population
		c.Alternative += o.XAllNew * o.Row.Population
	}
	slices.Sort(years)

	totals := make([]model.PopulationTotals, 0, len(years))
	byYear := make(map[int]*model.PopulationTotals, len(years))
	for _, year := range years {
		t := model.PopulationTotals{
			Year:        year,
			Baseline:    floats.Dot(base[year], pops[year]),
			Alternative: floats.Dot(alt[year], pops[year]),
		}
		t.Change = t.Alternative - t.Baseline
		t.ChangePct = percent(t.Change, t.Baseline)
		totals = append(totals, t)
		byYear[year] = &totals[len(totals)-1]
	}

	contribs := make([]model.Contribution, 0, len(order))
	for _, k := range order {
		c := *sums[k]
		c.Change = c.Alternative - c.Baseline
		c.SharePct = percent(c.Change, byYear[k.year].Change)
		contribs = append(contribs, c)
	}
	contribs = slices.SortedStableFunc(slices.Values(contribs), func(a, b model.Contribution) int {
		return cmp.Compare(a.Year, b.Year)
	})

	for i := range totals {
		totals[i].TopGroups = topGroups(contribs, totals[i].Year, top)
	}
	return totals, contribs
}

func topGroups(contribs []model.Contribution, year, n int) []string {
	var ranked []model.Contribution
	for _, c := range contribs {
		if c.Year == year {
			ranked = append(ranked, c)
		}
	}
	slices.SortStableFunc(ranked, func(a, b model.Contribution) int {
		return cmp.Compare(math.Abs(b.Change), math.Abs(a.Change))
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.Group()
	}
	return out
}

// percent returns part/whole*100, or nil when whole is zero.
func percent(part, whole float64) *float64 {
	if whole == 0 {
		return nil
	}
	v := part / whole * 100
	return &v
}
