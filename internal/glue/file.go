package glue

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"scenecode/internal/services"
)

// FileName is the per-institution glue file written next to the scenes
// directory.
const FileName = "glue.csv"

// PathFor returns the glue file location inside an institution directory.
func PathFor(institutionDir string) string {
	return filepath.Join(institutionDir, FileName)
}

// WriteRecords persists records as headerless glue notation, one record
// per line. The file is truncated first; an institution with no bases
// yields an empty file, which downstream reads as "nothing to merge".
func WriteRecords(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "glue", "write records", "create institution dir", err)
	}
	var b strings.Builder
	for _, record := range records {
		b.WriteString(record.Line())
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "glue", "write records", "write "+path, err)
	}
	return nil
}

// ReadRecords loads a glue file. Lines that do not parse are excluded and
// reported by 1-based line number so a merge never acts on a garbled
// record. A missing file is a missing artifact: the institution has not
// been resolved yet.
func ReadRecords(path string) ([]Record, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, services.Wrap(services.ErrMissingArtifact, "glue", "read records", "no glue file at "+path, err)
		}
		return nil, nil, services.Wrap(services.ErrConfiguration, "glue", "read records", "open "+path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, services.Wrap(services.ErrMalformedInput, "glue", "read records", "parse "+path, err)
	}

	records := make([]Record, 0, len(rows))
	var skipped []int
	for i, fields := range rows {
		record, err := parseFields(fields)
		if err != nil {
			skipped = append(skipped, i+1)
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}
