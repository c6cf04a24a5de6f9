package ports

import "io"

// Table is a parsed spreadsheet: header names plus data rows keyed by header.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Contract for turning an uploaded file into a Table.
type TabularParser interface {
	Parse(filename string, r io.Reader) (Table, error)
}
