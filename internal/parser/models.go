package parser

import "strings"

// PlaceholderPrefix marks index columns written by spreadsheet and dataframe
// exports (e.g. "Unnamed: 0"). Such columns carry no measurement.
const PlaceholderPrefix = "Unnamed"

// RawRow maps a header name to the untouched cell text of one data row.
type RawRow map[string]string

// RawTable is the result of reading a delimited file.
// Columns keeps the header order with placeholder columns already removed.
type RawTable struct {
	Columns        []string
	Rows           []RawRow
	DroppedColumns []string // Placeholder headers removed from the header row
	ParseErrors    []string // Non-fatal notes collected while reading
}

// NewRawTable initialises an empty RawTable.
func NewRawTable() *RawTable {
	return &RawTable{
		Columns:        make([]string, 0),
		Rows:           make([]RawRow, 0),
		DroppedColumns: make([]string, 0),
		ParseErrors:    make([]string, 0),
	}
}

// IsPlaceholderColumn reports whether a header is blank or an export placeholder.
func IsPlaceholderColumn(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed == "" || strings.HasPrefix(trimmed, PlaceholderPrefix)
}
