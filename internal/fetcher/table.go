// Package fetcher reads lead export files from local paths and remote
// HTTP/FTP locations. Apollo exports arrive as CSV or XLSX; both parse to
// the same header-plus-rows table shape.
package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a parsed tabular export: one header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses the file at path, dispatching on extension (.csv, .xlsx).
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// ReadCSV parses CSV content. Rows may have a variable field count; fields
// are trimmed.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read csv row")
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if table.Header == nil {
			table.Header = record
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Header == nil {
		return nil, eris.New("fetcher: csv has no header row")
	}
	return &table, nil
}

// ReadXLSX parses the first sheet of an XLSX workbook.
func ReadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("fetcher: xlsx %s has no sheets", path)
	}

	var table Table
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		if table.Header == nil {
			table.Header = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}

	if table.Header == nil {
		return nil, eris.Errorf("fetcher: xlsx %s has no header row", path)
	}
	return &table, nil
}
