package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTable_CSV(t *testing.T) {
	data := "\xef\xbb\xbfdate,customer,plate_number\n2025-08-01, Acme ,ABC123\n\n,,\n"
	rows, err := ReadTable(strings.NewReader(data), "trips.CSV")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, "Acme ", rows[1][1])
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"plate_number", "period", "kwh_per_km"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"ABC123", "2025-08", 1.2}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ReadTable(bytes.NewReader(buf.Bytes()), "energy.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ABC123", "2025-08", "1.2"}, rows[1])
}

func TestReadTable_Errors(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b"), "trips.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadTable(strings.NewReader("\n\n"), "trips.csv")
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = ReadTable(strings.NewReader("not a workbook"), "trips.xlsx")
	assert.Error(t, err)
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		" Plate Number ":  "platenumber",
		"\ufeffdate":      "date",
		"Req. Truck Type": "reqtrucktype",
		"distance_km":     "distancekm",
		"Trip-KM":         "tripkm",
		"Distance (km)":   "distancekm",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeHeader(in), in)
	}
}

func TestDetectTMS(t *testing.T) {
	rows := [][]string{
		{"Trip report", "", ""},
		{"Generated 2025-08-31"},
		{"Head Plate Number", "Customer", "Orgin", "Destination", "Trip KM"},
	}
	assert.Equal(t, 2, detectTMS(rows))

	assert.Equal(t, -1, detectTMS([][]string{{"Customer", "Customer", "Orgin"}}))
	assert.Equal(t, -1, detectTMS([][]string{{"plate_number", "customer"}}))
}
