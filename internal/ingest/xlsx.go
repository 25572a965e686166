package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// ReadWorkbook loads the four input tables from the named sheets of an .xlsx file.
func ReadWorkbook(path string) (*Tables, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open workbook %s", path)
	}

	sheets := make(map[string][][]string, 4)
	for _, name := range []string{TableStructure, TableCounterfactual, TableParameters, TablePopulation} {
		rows, err := sheetRows(f, name)
		if err != nil {
			return nil, err
		}
		sheets[name] = rows
	}

	zap.L().Debug("ingest: workbook read",
		zap.String("path", path),
		zap.Int("structure_rows", len(sheets[TableStructure])),
		zap.Int("population_rows", len(sheets[TablePopulation])),
	)
	return parseTables(sheets)
}

func sheetRows(f *xlsx.File, name string) ([][]string, error) {
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("ingest: sheet %q not found", name)
	}
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cellValue(cell)
	}
	return cells
}

// cellValue returns the stored value of numeric cells, ignoring their number
// format, and the display string of everything else.
func cellValue(c *xlsx.Cell) string {
	if c.Type() == xlsx.CellTypeNumeric {
		return c.Value
	}
	return c.String()
}

func parseTables(sheets map[string][][]string) (*Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Structure, err = ParseStructure(sheets[TableStructure]); err != nil {
		return nil, err
	}
	if t.Values, err = ParseValues(sheets[TableCounterfactual]); err != nil {
		return nil, err
	}
	if t.Parameters, err = ParseParameters(sheets[TableParameters]); err != nil {
		return nil, err
	}
	if t.Population, err = ParsePopulation(sheets[TablePopulation]); err != nil {
		return nil, err
	}
	return &t, nil
}
