package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"stop-route-service/internal/domain"
)

type StopSeed struct {
	Buyer   string `json:"buyer"`
	Town    string `json:"town"`
	Address string `json:"address"`
}

// Read import rows from a JSON array of {buyer, town, address} objects.
// Values are trimmed; incomplete rows are kept so the import reports them as skipped.
func LoadSeedRows(jsonPath string) ([]domain.ImportRow, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed stops: read %q: %w", jsonPath, err)
	}

	var data []StopSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed stops: parse json: %w", err)
	}

	rows := make([]domain.ImportRow, 0, len(data))
	for _, item := range data {
		rows = append(rows, domain.ImportRow{
			Buyer:   strings.TrimSpace(item.Buyer),
			Town:    strings.TrimSpace(item.Town),
			Address: strings.TrimSpace(item.Address),
		})
	}
	return rows, nil
}
