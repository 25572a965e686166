// Package analysis runs multivariate analysis over detailed simulation
// results: cross-variable correlation and principal components of the
// baseline and alternative values of each demographic row.
package analysis

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/model"
)

// Dataset holds the baseline and alternative values of several variables for
// the rows all of them share. Baseline[i][j] is row i of variable j.
type Dataset struct {
	Filter      Filter
	Variables   []string
	Keys        []model.Key
	Baseline    [][]float64
	Alternative [][]float64
}

// NewDataset aligns the outcomes of each variable on (year, age, sex). Rows
// missing from any variable are dropped. Row order follows the first
// variable. Variables without outcomes are skipped.
func NewDataset(results []model.VariableResult) (*Dataset, error) {
	type values struct{ base, alt float64 }

	var (
		vars   []string
		byVar  []map[model.Key]values
		keys   []model.Key
		counts = make(map[model.Key]int)
	)
	for _, vr := range results {
		if len(vr.Outcomes) == 0 {
			continue
		}
		m := make(map[model.Key]values, len(vr.Outcomes))
		for _, o := range vr.Outcomes {
			if _, dup := m[o.Row.Key]; dup {
				return nil, eris.Errorf("analysis: %s: duplicate row %s", vr.Variable, o.Row.Key)
			}
			m[o.Row.Key] = values{base: o.XAll, alt: o.XAllNew}
			if len(vars) == 0 {
				keys = append(keys, o.Row.Key)
			}
			counts[o.Row.Key]++
		}
		vars = append(vars, vr.Variable)
		byVar = append(byVar, m)
	}
	if len(vars) == 0 {
		return nil, eris.New("analysis: no variable has outcomes")
	}

	d := &Dataset{Variables: vars}
	for _, k := range keys {
		if counts[k] != len(vars) {
			continue
		}
		base := make([]float64, len(vars))
		alt := make([]float64, len(vars))
		for j, m := range byVar {
			base[j], alt[j] = m[k].base, m[k].alt
		}
		d.Keys = append(d.Keys, k)
		d.Baseline = append(d.Baseline, base)
		d.Alternative = append(d.Alternative, alt)
	}
	if len(d.Keys) == 0 {
		return nil, eris.New("analysis: variables share no rows")
	}
	return d, nil
}

// Rows returns the number of aligned rows.
func (d *Dataset) Rows() int { return len(d.Keys) }

// Select returns the rows matching f.
func (d *Dataset) Select(f Filter) *Dataset {
	out := &Dataset{Filter: f, Variables: d.Variables}
	for i, k := range d.Keys {
		if !f.Match(k) {
			continue
		}
		out.Keys = append(out.Keys, k)
		out.Baseline = append(out.Baseline, d.Baseline[i])
		out.Alternative = append(out.Alternative, d.Alternative[i])
	}
	return out
}

// Filter restricts a dataset to one sex, one age group, or both. Empty fields
// match everything.
type Filter struct {
	Sex string
	Age string
}

// ParseFilter parses terms such as "sex=M", "age=20-24" or "sex=K,age=65+".
// An empty string or "all" is the empty filter.
func ParseFilter(s string) (Filter, error) {
	var f Filter
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return f, nil
	}
	for term := range strings.SplitSeq(s, ",") {
		name, value, ok := strings.Cut(term, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return Filter{}, eris.Errorf("analysis: filter term %q is not name=value", term)
		}
		switch name {
		case "sex":
			f.Sex = value
		case "age":
			f.Age = value
		default:
			return Filter{}, eris.Errorf("analysis: unknown filter field %q (want sex or age)", name)
		}
	}
	return f, nil
}

// Match reports whether k passes the filter.
func (f Filter) Match(k model.Key) bool {
	return (f.Sex == "" || strings.EqualFold(f.Sex, k.Sex)) &&
		(f.Age == "" || f.Age == k.Age)
}

// String labels the filter, "all" when empty.
func (f Filter) String() string {
	var parts []string
	if f.Sex != "" {
		parts = append(parts, "sex="+f.Sex)
	}
	if f.Age != "" {
		parts = append(parts, "age="+f.Age)
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, ",")
}
