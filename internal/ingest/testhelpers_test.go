package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func structureSheet() [][]string {
	return [][]string{
		{"year", "age", "sex", "s1", "s2", "s3"},
		{"2023", "20-24", "M", "0.5", "0.3", "0.2"},
		{"2023", "20-24", "K", "0,4", "0,4", "0,2"},
		{"2023", "65+", "M", "0.1", "0.1", "0.8"},
	}
}

func valuesSheet() [][]string {
	return [][]string{
		{"year", "age", "sex", "income", "hours"},
		{"2023", "20-24", "M", "100", "40"},
		{"2023", "20-24", "K", "90", "35"},
		{"2023", "65+", "M", "50", "5"},
	}
}

func parametersSheet() [][]string {
	return [][]string{
		{"variable", "s_n_men", "s_n_women", "w_s_men", "w_s_women", "age_1", "age_2"},
		{"income", "0.8", "0.6", "0.5", "0.4", "20-24", ""},
		{"hours", "0.9", "0.7", "0.6", "0.5", "20-24", "25-29"},
	}
}

func populationSheet() [][]string {
	return [][]string{
		{"year", "age", "sex", "population"},
		{"2023", "20-24", "M", "1000"},
		{"2023", "20-24", "K", "1100"},
		{"2023", "65+", "M", "500"},
	}
}

func testSheets() map[string][][]string {
	return map[string][][]string{
		TableStructure:      structureSheet(),
		TableCounterfactual: valuesSheet(),
		TableParameters:     parametersSheet(),
		TablePopulation:     populationSheet(),
	}
}

func testTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := parseTables(testSheets())
	require.NoError(t, err)
	return tables
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.Save(path))
	return path
}
