package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"scenecode/internal/services"
)

// Table is a sheet reduced to a header row and data rows. Rows may be
// shorter than the header; Mapping.Value treats absent cells as empty.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable loads a spreadsheet by extension. CSV files may carry a UTF-8
// BOM (Excel exports one); XLSX files are read from their first worksheet.
func ReadTable(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		detail := fmt.Sprintf("unsupported sheet format %q (want .csv or .xlsx): %s", ext, path)
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "read table", detail, nil)
	}
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingArtifact, "sheet", "read table", "open csv", err)
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(f, decoder))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "read table", "parse csv "+path, err)
	}
	return tableFromRecords(path, records)
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "read table", "open workbook "+path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "read table", "workbook has no sheets: "+path, nil)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "read table", "read sheet "+sheets[0], err)
	}
	return tableFromRecords(path, records)
}

func tableFromRecords(path string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "read table", "sheet is empty: "+path, nil)
	}
	return &Table{Headers: records[0], Rows: records[1:]}, nil
}
