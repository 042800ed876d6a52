package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseCSV reads a delimited file of physiological samples.
// The first row is the header; placeholder columns are dropped before any row is built.
func ParseCSV(filepath string) (*RawTable, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses CSV content from r. See ParseCSV.
func ReadCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Short or long rows are reconciled below

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV data is empty: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := NewRawTable()

	// keep[i] is the column name for header index i, or "" when dropped.
	keep := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if IsPlaceholderColumn(name) {
			table.DroppedColumns = append(table.DroppedColumns, name)
			continue
		}
		if seen[name] {
			table.ParseErrors = append(table.ParseErrors, fmt.Sprintf("Warning: duplicate column '%s' at position %d ignored.", name, i+1))
			continue
		}
		seen[name] = true
		keep[i] = name
		table.Columns = append(table.Columns, name)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("CSV header has no usable columns")
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV data at line %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}
		if len(record) > len(header) {
			table.ParseErrors = append(table.ParseErrors, fmt.Sprintf("Warning: line %d has %d fields, header has %d. Extra fields ignored.", line, len(record), len(header)))
		}

		row := make(RawRow, len(table.Columns))
		for i, name := range keep {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			} else {
				row[name] = "" // Missing trailing fields become missing values
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		table.ParseErrors = append(table.ParseErrors, "Warning: CSV has a header but no data rows.")
	}
	return table, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
