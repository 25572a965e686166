// Package report writes simulation results to spreadsheets and JSON, reads
// summary workbooks back, and backs up previous outputs.
package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/cfsim/internal/model"
)

// Sheet names.
const (
	SummarySheet       = "Summary"
	ProjectionSheet    = "Projection"
	TotalsSheet        = "DetailedSummary"
	ContributionsSheet = "DemographicContributions"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

var summaryHeader = []string{"variable", "year", "weighted_x_all", "weighted_x_all_new", "abs_dev", "rel_dev"}

var detailHeader = []string{
	"year", "age", "sex", "population", "weight",
	"s1", "s2", "s3", "s_n", "w_s",
	"s1_new", "s2_new", "s3_new",
	"denominator", "x_1", "x_2", "x_3",
	"x_all", "x_all_bs", "x_all_as",
}

var totalsHeader = []string{
	"variable", "year", "total_baseline", "total_alternative",
	"absolute_change", "percentage_change", "top_contributing_groups",
}

var contributionsHeader = []string{
	"variable", "year", "age", "sex", "group",
	"total_baseline", "total_alternative", "contribution_abs", "contribution_pct",
}

var projectionHeader = []string{"variable", "offset", "year", "baseline", "alternative", "rel_diff"}

// WriteSummary writes the grouped result table to a single-sheet workbook.
func WriteSummary(path string, rows []model.SummaryRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addStrings(sheet, summaryHeader)
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Variable)
		row.AddCell().SetInt(r.Year)
		addFloats(row, r.WeightedXAll, r.WeightedXAllNew, r.AbsDev, r.RelDev)
	}
	return save(f, path)
}

// WriteDetailed writes one sheet per variable listing every processed row,
// followed by the population-scaled totals and their breakdown by
// demographic group.
func WriteDetailed(path string, results []model.VariableResult) error {
	f := xlsx.NewFile()
	used := map[string]bool{TotalsSheet: true, ContributionsSheet: true}
	for _, vr := range results {
		name := SheetName(vr.Variable, used)
		sheet, err := f.AddSheet(name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %q", name)
		}
		addStrings(sheet, detailHeader)
		for _, o := range vr.Outcomes {
			row := sheet.AddRow()
			row.AddCell().SetInt(o.Row.Year)
			row.AddCell().SetString(o.Row.Age)
			row.AddCell().SetString(o.Row.Sex)
			addFloats(row,
				o.Row.Population, o.Weight,
				o.Row.S1, o.Row.S2, o.Row.S3, o.Row.SN, o.Row.WS,
				o.New.S1, o.New.S2, o.New.S3,
				o.Denominator, o.Flows.X1, o.Flows.X2, o.Flows.X3,
				o.Row.XAll, o.XAll, o.XAllNew,
			)
		}
	}
	if len(results) == 0 {
		if _, err := f.AddSheet(SummarySheet); err != nil {
			return eris.Wrap(err, "report: add empty sheet")
		}
		return save(f, path)
	}
	if err := addTotals(f, results); err != nil {
		return err
	}
	return save(f, path)
}

func addTotals(f *xlsx.File, results []model.VariableResult) error {
	totals, err := f.AddSheet(TotalsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add totals sheet")
	}
	contribs, err := f.AddSheet(ContributionsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add contributions sheet")
	}
	addStrings(totals, totalsHeader)
	addStrings(contribs, contributionsHeader)

	for _, vr := range results {
		for _, t := range vr.Totals {
			row := totals.AddRow()
			row.AddCell().SetString(vr.Variable)
			row.AddCell().SetInt(t.Year)
			addFloats(row, t.Baseline, t.Alternative, t.Change)
			addOptional(row, t.ChangePct)
			row.AddCell().SetString(strings.Join(t.TopGroups, ", "))
		}
		for _, c := range vr.Contributions {
			row := contribs.AddRow()
			row.AddCell().SetString(vr.Variable)
			row.AddCell().SetInt(c.Year)
			row.AddCell().SetString(c.Age)
			row.AddCell().SetString(c.Sex)
			row.AddCell().SetString(c.Group())
			addFloats(row, c.Baseline, c.Alternative, c.Change)
			addOptional(row, c.SharePct)
		}
	}
	return nil
}

// WriteProjection writes projected series to a single-sheet workbook. Years
// with an undefined relative difference leave that cell empty.
func WriteProjection(path string, points []model.ProjectionPoint) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(ProjectionSheet)
	if err != nil {
		return eris.Wrap(err, "report: add projection sheet")
	}
	addStrings(sheet, projectionHeader)
	for _, p := range points {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Variable)
		row.AddCell().SetInt(p.Offset)
		row.AddCell().SetInt(p.Year)
		addFloats(row, p.Baseline, p.Alternative)
		addOptional(row, p.RelDiff)
	}
	return save(f, path)
}

// ReadSummary reads a workbook produced by WriteSummary.
func ReadSummary(path string) ([]model.SummaryRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}
	sheet, ok := f.Sheet[SummarySheet]
	if !ok {
		return nil, eris.Errorf("report: sheet %q not found in %s", SummarySheet, path)
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("report: %s: empty summary sheet", path)
	}

	idx := make(map[string]int, len(summaryHeader))
	for i, c := range sheet.Rows[0].Cells {
		idx[strings.ToLower(strings.TrimSpace(c.String()))] = i
	}
	for _, col := range summaryHeader {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("report: %s: missing column %q", path, col)
		}
	}

	var out []model.SummaryRow
	for line, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = strings.TrimSpace(cellValue(c))
		}
		get := func(col string) string {
			if i := idx[col]; i < len(cells) {
				return cells[i]
			}
			return ""
		}
		if get("variable") == "" {
			continue
		}

		r := model.SummaryRow{Variable: get("variable")}
		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return nil, eris.Wrapf(err, "report: %s line %d: year", path, line+2)
		}
		r.Year = year
		for _, fld := range []struct {
			col string
			dst *float64
		}{
			{"weighted_x_all", &r.WeightedXAll},
			{"weighted_x_all_new", &r.WeightedXAllNew},
			{"abs_dev", &r.AbsDev},
			{"rel_dev", &r.RelDev},
		} {
			if *fld.dst, err = strconv.ParseFloat(get(fld.col), 64); err != nil {
				return nil, eris.Wrapf(err, "report: %s line %d: %s", path, line+2, fld.col)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// SheetName returns a valid, unused sheet name for variable and marks it used.
func SheetName(variable string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, variable)
	if name == "" {
		name = "variable"
	}
	name = truncate(name, maxSheetName)

	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cellValue returns the stored value of numeric cells rather than their
// formatted display string.
func cellValue(c *xlsx.Cell) string {
	if c.Type() == xlsx.CellTypeNumeric {
		return c.Value
	}
	return c.String()
}

func addStrings(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addFloats(row *xlsx.Row, values ...float64) {
	for _, v := range values {
		row.AddCell().SetFloat(v)
	}
}

// addOptional leaves the cell empty for a nil value.
func addOptional(row *xlsx.Row, v *float64) {
	c := row.AddCell()
	if v != nil {
		c.SetFloat(*v)
	}
}

func save(f *xlsx.File, path string) error {
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	zap.L().Debug("report: workbook written", zap.String("path", path))
	return nil
}
