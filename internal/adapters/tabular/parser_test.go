package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	body := "Kupac,Mesto,,Adresa\n" +
		"Ana, Senta ,x,Main 1\n" +
		",,,\n" +
		"Bora,Ada\n"

	table, err := NewParser().Parse("stops.CSV", strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"Kupac", "Mesto", "Column C", "Adresa"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Senta", table.Rows[0]["Mesto"])
	assert.Equal(t, "Main 1", table.Rows[0]["Adresa"])
	assert.Equal(t, "", table.Rows[1]["Adresa"])
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Buyer", "Town", "", "Address"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Ana", "Senta", "", "Main 1"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Bora", "Ada", "", "Side 2"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := NewParser().Parse("stops.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"Buyer", "Town", "Column C", "Address"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Side 2", table.Rows[1]["Address"])
}

func TestParse_Errors(t *testing.T) {
	_, err := NewParser().Parse("stops.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewParser().Parse("stops.csv", strings.NewReader(" , \n"))
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = NewParser().Parse("stops.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}
