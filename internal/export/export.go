// Package export renders ledger rows into the study's delivery formats:
// per-institution analysis CSVs and consolidated timestamped XLSX
// workbooks. Everything here regenerates from the ledger, so exports can
// be rebuilt at any time without touching the scene files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"scenecode/internal/services"
	"scenecode/internal/store"
)

// ClipsFileName is the per-institution analysis CSV written next to the
// scenes directory.
const ClipsFileName = "clips_analysis.csv"

const workbookTimestamp = "20060102_150405"

// clipColumns is the delivery column order for clip label rows.
var clipColumns = []string{
	"institution_domain",
	"clip_number",
	"next_clip_number",
	"timecode_or_length",
	"category",
	"sub_category",
	"description",
	"description_revision",
	"scenes_guess",
	"image_path_used",
	"llm_output",
}

// sceneColumns is the delivery column order for scene note rows.
var sceneColumns = []string{"Domain", "Scene", "Length", "Description", "Category"}

// ClipsWorkbookName returns the timestamped consolidated workbook name.
func ClipsWorkbookName(at time.Time) string {
	return "clips_complete_" + at.Format(workbookTimestamp) + ".xlsx"
}

// ScenesWorkbookName returns the timestamped scene annotation workbook name.
func ScenesWorkbookName(at time.Time) string {
	return "scenes_" + at.Format(workbookTimestamp) + ".xlsx"
}

func clipRecord(label store.ClipLabel) []string {
	nextClip := ""
	if label.HasNext {
		nextClip = strconv.Itoa(label.NextClip)
	}
	return []string{
		label.Institution,
		strconv.Itoa(label.Clip),
		nextClip,
		label.Length,
		label.Category,
		label.Subcategory,
		label.Description,
		label.Revision,
		label.ScenesGuess,
		label.ImagePath,
		label.Output,
	}
}

func sceneRecord(note store.SceneNote) []string {
	return []string{
		note.Institution,
		strconv.Itoa(note.Scene),
		strconv.FormatFloat(note.LengthSeconds, 'f', 2, 64),
		note.Description,
		note.Category,
	}
}

// WriteClipsCSV writes clip labels as a headed CSV at path, truncating any
// previous export.
func WriteClipsCSV(path string, labels []store.ClipLabel) error {
	records := make([][]string, 0, len(labels))
	for _, label := range labels {
		records = append(records, clipRecord(label))
	}
	return writeCSV(path, clipColumns, records)
}

// WriteScenesCSV writes scene notes as a headed CSV at path.
func WriteScenesCSV(path string, notes []store.SceneNote) error {
	records := make([][]string, 0, len(notes))
	for _, note := range notes {
		records = append(records, sceneRecord(note))
	}
	return writeCSV(path, sceneColumns, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write csv", "create directory for "+path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write csv", "create "+path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write csv", "write header", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return services.Wrap(services.ErrConfiguration, "export", "write csv", "write row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write csv", "flush "+path, err)
	}
	return file.Close()
}

// WriteClipsWorkbook writes the consolidated clip label workbook at path.
func WriteClipsWorkbook(path string, labels []store.ClipLabel) error {
	records := make([][]string, 0, len(labels))
	for _, label := range labels {
		records = append(records, clipRecord(label))
	}
	return writeWorkbook(path, "clips", clipColumns, records)
}

// WriteScenesWorkbook writes the scene annotation workbook at path.
func WriteScenesWorkbook(path string, notes []store.SceneNote) error {
	records := make([][]string, 0, len(notes))
	for _, note := range notes {
		records = append(records, sceneRecord(note))
	}
	return writeWorkbook(path, "scenes", sceneColumns, records)
}

func writeWorkbook(path, sheetName string, header []string, records [][]string) error {
	book := excelize.NewFile()
	defer book.Close()

	defaultSheet := book.GetSheetName(0)
	if defaultSheet != sheetName {
		if err := book.SetSheetName(defaultSheet, sheetName); err != nil {
			return services.Wrap(services.ErrConfiguration, "export", "write workbook", "name sheet", err)
		}
	}

	if err := writeRow(book, sheetName, 1, header); err != nil {
		return err
	}
	for i, record := range records {
		if err := writeRow(book, sheetName, i+2, record); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "export", "write workbook", "create directory for "+path, err)
		}
	}
	if err := book.SaveAs(path); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write workbook", "save "+path, err)
	}
	return nil
}

func writeRow(book *excelize.File, sheetName string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write workbook", fmt.Sprintf("row %d", row), err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := book.SetSheetRow(sheetName, cell, &cells); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "write workbook", fmt.Sprintf("row %d", row), err)
	}
	return nil
}
