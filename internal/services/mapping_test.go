package services

import (
	"testing"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRows(t *testing.T) {
	table := ports.Table{
		Columns: []string{"Kupac", "Mesto", "Adresa", "Napomena"},
		Rows: []map[string]string{
			{"Kupac": " Ana ", "Mesto": "Senta", "Adresa": "Main 1", "Napomena": "x"},
			{"Kupac": "Bora", "Mesto": "", "Adresa": "Side 2"},
		},
	}

	rows, err := MapRows(table, ColumnMapping{Buyer: "Kupac", Town: "Mesto", Address: "Adresa"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ImportRow{
		{Buyer: "Ana", Town: "Senta", Address: "Main 1"},
		{Buyer: "Bora", Town: "", Address: "Side 2"},
	}, rows)
	assert.False(t, rows[1].Complete())
}

func TestMapRows_UnknownColumn(t *testing.T) {
	table := ports.Table{Columns: []string{"A", "B", "C"}}

	_, err := MapRows(table, ColumnMapping{Buyer: "A", Town: "Grad", Address: "C"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, `town column "Grad" not found`)
}
