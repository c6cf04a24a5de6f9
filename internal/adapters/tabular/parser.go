package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"stop-route-service/internal/ports"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptySheet        = errors.New("sheet has no header row")
)

// Parser reads xlsx workbooks (first sheet) and csv files.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// Parse picks the format from the file extension. The first non-blank row is
// the header; blank header cells are named after their column letter.
func (p *Parser) Parse(filename string, r io.Reader) (ports.Table, error) {
	var (
		cells [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		cells, err = readXLSX(r)
	case ".csv":
		cells, err = readCSV(r)
	default:
		return ports.Table{}, fmt.Errorf("parse %q: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return ports.Table{}, fmt.Errorf("parse %q: %w", filename, err)
	}
	return buildTable(cells)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func buildTable(cells [][]string) (ports.Table, error) {
	start := -1
	width := 0
	for i, row := range cells {
		if start < 0 && !blank(row) {
			start = i
		}
		if start >= 0 {
			width = max(width, len(row))
		}
	}
	if start < 0 {
		return ports.Table{}, ErrEmptySheet
	}

	columns := make([]string, width)
	header := cells[start]
	for c := range width {
		var name string
		if c < len(header) {
			name = strings.TrimSpace(header[c])
		}
		if name == "" {
			name = "Column " + columnLetter(c)
		}
		columns[c] = name
	}

	rows := make([]map[string]string, 0, len(cells)-start-1)
	for _, raw := range cells[start+1:] {
		if blank(raw) {
			continue
		}
		row := make(map[string]string, width)
		for c, name := range columns {
			if c < len(raw) {
				row[name] = strings.TrimSpace(raw[c])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return ports.Table{Columns: columns, Rows: rows}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func columnLetter(idx int) string {
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return fmt.Sprint(idx + 1)
	}
	return name
}
