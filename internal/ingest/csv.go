package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures reading the input tables from a directory of CSV files
// named structure.csv, counterfactual.csv, parameters.csv and population.csv.
type CSVOptions struct {
	Delimiter rune   // default ','
	Charset   string // e.g. "windows-1250"; empty means UTF-8
}

// ReadCSVDir loads the four input tables from dir.
func ReadCSVDir(dir string, opts CSVOptions) (*Tables, error) {
	sheets := make(map[string][][]string, 4)
	for _, name := range []string{TableStructure, TableCounterfactual, TableParameters, TablePopulation} {
		path := filepath.Join(dir, name+".csv")
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		rows, err := ReadCSV(f, opts)
		f.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", path)
		}
		sheets[name] = rows
	}
	return parseTables(sheets)
}

// ReadCSV reads all records from r, decoding from opts.Charset first.
func ReadCSV(r io.Reader, opts CSVOptions) ([][]string, error) {
	if cs := strings.TrimSpace(opts.Charset); cs != "" && !strings.EqualFold(cs, "utf-8") {
		enc, err := htmlindex.Get(cs)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: unsupported charset %q", cs)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}
