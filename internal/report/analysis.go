package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/sells-group/cfsim/internal/analysis"
	"github.com/sells-group/cfsim/internal/model"
)

// Analysis workbook sheets.
const (
	CorrelationSheet = "Correlation"
	VarianceSheet    = "PCA_Variance"
	LoadingsSheet    = "PCA_Loadings"
	ScoresSheet      = "PCA_Scores"
)

var correlationHeader = []string{"filter", "rows", "matrix", "variable_a", "variable_b", "value"}

// ReadDetailed reads the variable sheets of a workbook produced by
// WriteDetailed back into per-variable outcomes. Each sheet name is taken as
// the variable name. Only the key, population, weight and recomputed x_all
// columns are restored.
func ReadDetailed(path string) ([]model.VariableResult, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}

	var out []model.VariableResult
	for _, sheet := range f.Sheets {
		switch sheet.Name {
		case SummarySheet, TotalsSheet, ContributionsSheet:
			continue
		}
		vr, err := readDetailSheet(sheet)
		if err != nil {
			return nil, eris.Wrapf(err, "report: %s", path)
		}
		out = append(out, vr)
	}
	if len(out) == 0 {
		return nil, eris.Errorf("report: %s: no variable sheets", path)
	}
	return out, nil
}

func readDetailSheet(sheet *xlsx.Sheet) (model.VariableResult, error) {
	vr := model.VariableResult{Variable: sheet.Name}
	if len(sheet.Rows) == 0 {
		return vr, eris.Errorf("sheet %q is empty", sheet.Name)
	}
	idx := make(map[string]int, len(detailHeader))
	for i, c := range sheet.Rows[0].Cells {
		idx[strings.ToLower(strings.TrimSpace(c.String()))] = i
	}
	for _, col := range []string{"year", "age", "sex", "population", "weight", "x_all_bs", "x_all_as"} {
		if _, ok := idx[col]; !ok {
			return vr, eris.Errorf("sheet %q: missing column %q", sheet.Name, col)
		}
	}

	for line, row := range sheet.Rows[1:] {
		get := func(col string) string {
			if i := idx[col]; i < len(row.Cells) {
				return strings.TrimSpace(cellValue(row.Cells[i]))
			}
			return ""
		}
		if get("year") == "" {
			continue
		}
		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return vr, eris.Wrapf(err, "sheet %q line %d: year", sheet.Name, line+2)
		}
		o := model.Outcome{Row: model.Row{
			Key:      model.Key{Year: year, Age: get("age"), Sex: get("sex")},
			Variable: sheet.Name,
		}}
		for _, fld := range []struct {
			col string
			dst *float64
		}{
			{"population", &o.Row.Population},
			{"weight", &o.Weight},
			{"x_all_bs", &o.XAll},
			{"x_all_as", &o.XAllNew},
		} {
			if *fld.dst, err = strconv.ParseFloat(get(fld.col), 64); err != nil {
				return vr, eris.Wrapf(err, "sheet %q line %d: %s", sheet.Name, line+2, fld.col)
			}
		}
		o.Row.XAll = o.XAll
		vr.Outcomes = append(vr.Outcomes, o)
	}
	return vr, nil
}

// WriteAnalysis writes correlation matrices in long form (one line per
// filter, matrix and variable pair) and, when pca is non-nil, the principal
// component variance ratios, loadings and scores. Undefined correlations
// leave the value cell empty.
func WriteAnalysis(path string, corrs []*analysis.Correlation, pca *analysis.PCA) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(CorrelationSheet)
	if err != nil {
		return eris.Wrap(err, "report: add correlation sheet")
	}
	addStrings(sheet, correlationHeader)
	for _, c := range corrs {
		for _, m := range []struct {
			name   string
			values mat.Matrix
		}{
			{"baseline", c.Baseline},
			{"alternative", c.Alternative},
			{"difference", c.Difference},
		} {
			for i, a := range c.Variables {
				for j, b := range c.Variables {
					row := sheet.AddRow()
					row.AddCell().SetString(c.Filter.String())
					row.AddCell().SetInt(c.Rows)
					row.AddCell().SetString(m.name)
					row.AddCell().SetString(a)
					row.AddCell().SetString(b)
					addFinite(row, m.values.At(i, j))
				}
			}
		}
	}

	if pca != nil {
		if err := addPCA(f, pca); err != nil {
			return err
		}
	}
	return save(f, path)
}

func addPCA(f *xlsx.File, p *analysis.PCA) error {
	components := make([]string, p.Components())
	for i := range components {
		components[i] = "pc" + strconv.Itoa(i+1)
	}

	variance, err := f.AddSheet(VarianceSheet)
	if err != nil {
		return eris.Wrap(err, "report: add variance sheet")
	}
	addStrings(variance, []string{"component", "variance_ratio", "cumulative"})
	var cum float64
	for i, r := range p.VarianceRatio {
		cum += r
		row := variance.AddRow()
		row.AddCell().SetString(components[i])
		addFloats(row, r, cum)
	}

	loadings, err := f.AddSheet(LoadingsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add loadings sheet")
	}
	addStrings(loadings, append([]string{"variable"}, components...))
	for i, v := range p.Variables {
		row := loadings.AddRow()
		row.AddCell().SetString(v)
		for j := range components {
			row.AddCell().SetFloat(p.Loadings.At(i, j))
		}
	}

	scores, err := f.AddSheet(ScoresSheet)
	if err != nil {
		return eris.Wrap(err, "report: add scores sheet")
	}
	addStrings(scores, append([]string{"year", "age", "sex", "scenario"}, components...))
	for _, s := range []struct {
		name   string
		scores interface{ At(i, j int) float64 }
	}{
		{"baseline", p.Baseline},
		{"alternative", p.Alternative},
	} {
		for i, k := range p.Keys {
			row := scores.AddRow()
			row.AddCell().SetInt(k.Year)
			row.AddCell().SetString(k.Age)
			row.AddCell().SetString(k.Sex)
			row.AddCell().SetString(s.name)
			for j := range components {
				row.AddCell().SetFloat(s.scores.At(i, j))
			}
		}
	}
	return nil
}

// addFinite leaves the cell empty for NaN or infinite values.
func addFinite(row *xlsx.Row, v float64) {
	c := row.AddCell()
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		c.SetFloat(v)
	}
}
