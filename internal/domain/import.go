package domain

import "strings"

// One row of a bulk import after column mapping.
type ImportRow struct {
	Buyer   string `json:"buyer"`
	Town    string `json:"town"`
	Address string `json:"address"`
}

// Normalize returns the row with every field trimmed.
func (r ImportRow) Normalize() ImportRow {
	return ImportRow{
		Buyer:   strings.TrimSpace(r.Buyer),
		Town:    strings.TrimSpace(r.Town),
		Address: strings.TrimSpace(r.Address),
	}
}

// Complete reports whether every required field is present. Whitespace-only
// values count as missing.
func (r ImportRow) Complete() bool {
	return strings.TrimSpace(r.Buyer) != "" &&
		strings.TrimSpace(r.Town) != "" &&
		strings.TrimSpace(r.Address) != ""
}

// Outcome counters of a bulk import.
// Processed counts rows with all fields present; Skipped counts the rest.
// Processed = Imported + Failed unless the import was cancelled.
type ImportReport struct {
	Total     int  `json:"total"`
	Processed int  `json:"processed"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Imported  int  `json:"imported"`
	Cancelled bool `json:"cancelled"`
}
