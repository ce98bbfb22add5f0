package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
	"github.com/SAP-F-2025/dump-practice-service/internal/importer"
	"github.com/xuri/excelize/v2"
)

// Format is a supported upload or download file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// SheetName is the worksheet written by WriteXLSX
const SheetName = "Questions"

// FormatFromFilename picks the format from a file extension
func FormatFromFilename(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", apperrors.NewValidationError("file", "unsupported file format", filepath.Ext(filename))
	}
}

// ParseFormat maps a query value such as "xlsx" to a Format
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", apperrors.NewValidationError("format", "must be xlsx or csv", raw)
	}
}

// ContentType returns the MIME type of a format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Parse reads the first sheet (or the whole CSV) into header-keyed rows.
func Parse(r io.Reader, format Format) ([]importer.Row, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, apperrors.NewValidationError("format", "must be xlsx or csv", string(format))
	}
	if err != nil {
		return nil, err
	}
	return toRows(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("file", "cannot open spreadsheet", err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("file", "spreadsheet has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewValidationError("file", "cannot read CSV", err.Error())
	}
	return records, nil
}

// toRows keys every data row by the header row. Short rows leave the
// trailing columns empty, blank rows are dropped.
func toRows(records [][]string) ([]importer.Row, error) {
	if len(records) == 0 {
		return nil, apperrors.NewValidationError("file", "file is empty", nil)
	}
	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	rows := make([]importer.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(importer.Row, len(headers))
		blank := true
		for i, header := range headers {
			header = strings.TrimSpace(header)
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = record[i]
				if strings.TrimSpace(record[i]) != "" {
					blank = false
				}
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Write renders rows under headers in the given format.
func Write(headers []string, rows []importer.Row, format Format) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return WriteXLSX(headers, rows)
	case FormatCSV:
		return WriteCSV(headers, rows)
	default:
		return nil, apperrors.NewValidationError("format", "must be xlsx or csv", string(format))
	}
}

func WriteXLSX(headers []string, rows []importer.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(SheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		for col, header := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			// SetCellStr keeps "0" and "007" as text
			if err := f.SetCellStr(SheetName, cell, row[header]); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func WriteCSV(headers []string, rows []importer.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, header := range headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}
