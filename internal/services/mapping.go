package services

import (
	"fmt"
	"strings"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"
)

// ColumnMapping names the table column that feeds each stop field.
type ColumnMapping struct {
	Buyer   string `json:"buyer"`
	Town    string `json:"town"`
	Address string `json:"address"`
}

// MapRows projects table rows onto import rows. A mapped column the table
// does not have is ErrInvalidInput; empty cells become empty fields and the
// import later counts those rows as skipped.
func MapRows(t ports.Table, m ColumnMapping) ([]domain.ImportRow, error) {
	known := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		known[c] = struct{}{}
	}
	for _, f := range []struct{ field, col string }{
		{"buyer", m.Buyer},
		{"town", m.Town},
		{"address", m.Address},
	} {
		if _, ok := known[f.col]; !ok {
			return nil, fmt.Errorf("%w: %s column %q not found", ErrInvalidInput, f.field, f.col)
		}
	}

	out := make([]domain.ImportRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, domain.ImportRow{
			Buyer:   strings.TrimSpace(r[m.Buyer]),
			Town:    strings.TrimSpace(r[m.Town]),
			Address: strings.TrimSpace(r[m.Address]),
		})
	}
	return out, nil
}
