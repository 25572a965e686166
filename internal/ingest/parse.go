package ingest

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/model"
)

var keyColumns = []string{"year", "age", "sex"}

// field binds a numeric column to its destination.
type field struct {
	col string
	dst *float64
}

// header maps lower-cased column names to their index.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		name := strings.ToLower(strings.TrimSpace(c))
		if name == "" {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) require(table string, cols ...string) error {
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			return eris.Errorf("ingest: %s: missing column %q", table, c)
		}
	}
	return nil
}

func (h header) cell(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) float(table string, line int, row []string, col string) (float64, error) {
	raw := h.cell(row, col)
	if raw == "" {
		return 0, eris.Errorf("ingest: %s line %d: empty %s", table, line, col)
	}
	v, err := parseNumber(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: %s line %d: parse %s", table, line, col)
	}
	return v, nil
}

// parseNumber accepts a single comma as the decimal separator ("0,4"). Values
// mixing commas and points, or holding several commas, are rejected rather
// than guessed at, since "1,234" may be a thousands separator.
func parseNumber(raw string) (float64, error) {
	if n := strings.Count(raw, ","); n > 0 {
		if n > 1 || strings.Contains(raw, ".") {
			return 0, eris.Errorf("ambiguous decimal separator in %q", raw)
		}
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return strconv.ParseFloat(raw, 64)
}

func (h header) key(table string, line int, row []string) (model.Key, error) {
	y, err := h.float(table, line, row, "year")
	if err != nil {
		return model.Key{}, err
	}
	if y != math.Trunc(y) {
		return model.Key{}, eris.Errorf("ingest: %s line %d: year %v is not an integer", table, line, y)
	}
	return model.Key{
		Year: int(y),
		Age:  h.cell(row, "age"),
		Sex:  h.cell(row, "sex"),
	}, nil
}

// dataRows skips the header and blank lines, returning 1-based line numbers.
func dataRows(rows [][]string, fn func(line int, row []string) error) error {
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if err := fn(i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseStructure parses year, age, sex, s1, s2, s3.
func ParseStructure(rows [][]string) ([]StructureRow, error) {
	if len(rows) == 0 {
		return nil, eris.Errorf("ingest: %s: empty table", TableStructure)
	}
	h := newHeader(rows[0])
	if err := h.require(TableStructure, slices.Concat(keyColumns, []string{"s1", "s2", "s3"})...); err != nil {
		return nil, err
	}

	var out []StructureRow
	err := dataRows(rows, func(line int, row []string) error {
		k, err := h.key(TableStructure, line, row)
		if err != nil {
			return err
		}
		var s model.Shares
		for _, f := range []field{{"s1", &s.S1}, {"s2", &s.S2}, {"s3", &s.S3}} {
			if *f.dst, err = h.float(TableStructure, line, row, f.col); err != nil {
				return err
			}
		}
		out = append(out, StructureRow{Key: k, Shares: s})
		return nil
	})
	return out, err
}

// ParsePopulation parses year, age, sex, population.
func ParsePopulation(rows [][]string) ([]PopulationRow, error) {
	if len(rows) == 0 {
		return nil, eris.Errorf("ingest: %s: empty table", TablePopulation)
	}
	h := newHeader(rows[0])
	if err := h.require(TablePopulation, slices.Concat(keyColumns, []string{"population"})...); err != nil {
		return nil, err
	}

	var out []PopulationRow
	err := dataRows(rows, func(line int, row []string) error {
		k, err := h.key(TablePopulation, line, row)
		if err != nil {
			return err
		}
		p, err := h.float(TablePopulation, line, row, "population")
		if err != nil {
			return err
		}
		out = append(out, PopulationRow{Key: k, Population: p})
		return nil
	})
	return out, err
}

// ParseValues parses year, age, sex followed by one column per variable.
// Duplicate keys are reported by Join, so the last occurrence is kept here
// and the key is listed twice in Keys.
func ParseValues(rows [][]string) (ValueTable, error) {
	vt := ValueTable{Values: make(map[model.Key]map[string]float64)}
	if len(rows) == 0 {
		return vt, eris.Errorf("ingest: %s: empty table", TableCounterfactual)
	}
	h := newHeader(rows[0])
	if err := h.require(TableCounterfactual, keyColumns...); err != nil {
		return vt, err
	}
	seen := make(map[string]string)
	for _, c := range rows[0] {
		name := strings.TrimSpace(c)
		if name == "" || isKeyColumn(name) {
			continue
		}
		lower := strings.ToLower(name)
		if prev, dup := seen[lower]; dup {
			return vt, eris.Errorf("ingest: %s: duplicate variable column %q (also %q)", TableCounterfactual, name, prev)
		}
		seen[lower] = name
		vt.Variables = append(vt.Variables, name)
	}

	err := dataRows(rows, func(line int, row []string) error {
		k, err := h.key(TableCounterfactual, line, row)
		if err != nil {
			return err
		}
		vals := make(map[string]float64, len(vt.Variables))
		for _, v := range vt.Variables {
			if vals[v], err = h.float(TableCounterfactual, line, row, strings.ToLower(v)); err != nil {
				return err
			}
		}
		vt.Keys = append(vt.Keys, k)
		vt.Values[k] = vals
		return nil
	})
	return vt, err
}

func isKeyColumn(name string) bool {
	return slices.Contains(keyColumns, strings.ToLower(name))
}

// ParseParameters parses variable, s_n_men, s_n_women, w_s_men, w_s_women and
// any number of age_* columns naming the age groups the shares apply to.
func ParseParameters(rows [][]string) ([]ParameterRow, error) {
	if len(rows) == 0 {
		return nil, eris.Errorf("ingest: %s: empty table", TableParameters)
	}
	h := newHeader(rows[0])
	if err := h.require(TableParameters, "variable", "s_n_men", "s_n_women", "w_s_men", "w_s_women"); err != nil {
		return nil, err
	}
	var ageCols []string
	for _, c := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(c))
		if strings.HasPrefix(name, "age_") {
			ageCols = append(ageCols, name)
		}
	}

	var out []ParameterRow
	err := dataRows(rows, func(line int, row []string) error {
		p := ParameterRow{Variable: h.cell(row, "variable")}
		if p.Variable == "" {
			return eris.Errorf("ingest: %s line %d: empty variable", TableParameters, line)
		}
		var err error
		for _, f := range []field{
			{"s_n_men", &p.SNMen}, {"s_n_women", &p.SNWomen},
			{"w_s_men", &p.WSMen}, {"w_s_women", &p.WSWomen},
		} {
			if *f.dst, err = h.float(TableParameters, line, row, f.col); err != nil {
				return err
			}
		}
		for _, c := range ageCols {
			if age := h.cell(row, c); age != "" {
				p.Ages = append(p.Ages, age)
			}
		}
		out = append(out, p)
		return nil
	})
	return out, err
}
