package xlsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes the given rows to an in-memory workbook
func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// TestParseWorkbook tests end-to-end parsing of an XLSX file
func TestParseWorkbook(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"cod_barras", "descripcion", "final", "ultima_modificacion"},
		{"7791234567890", "Yerba Mate 1kg", 1500.50, "2023-03-15"},
		{"7790000000001", "Azucar 1kg", 800, "15/03/2023"},
	})

	result, err := NewParser(Options{}).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "7791234567890", result.Rows[0].Barcode)
	assert.InDelta(t, 1500.50, result.Rows[0].FinalPrice, 0.0001)
	require.NotNil(t, result.Rows[0].LastModified)
	assert.Equal(t, 2023, result.Rows[0].LastModified.Year())
}

// TestParseSheetSelection tests parsing a named and an indexed sheet
func TestParseSheetSelection(t *testing.T) {
	content := buildWorkbook(t, "Precios", [][]interface{}{
		{"cod_barras", "descripcion", "final", "ultima_modificacion"},
		{"7791234567890", "Yerba Mate 1kg", 100, "2023-03-15"},
	})

	t.Run("by name", func(t *testing.T) {
		result, err := NewParser(Options{SheetNameOrIndex: "Precios"}).Parse(content)
		require.NoError(t, err)
		assert.Equal(t, 1, result.ValidRows)
	})

	t.Run("by index", func(t *testing.T) {
		result, err := NewParser(Options{SheetNameOrIndex: 0}).Parse(content)
		require.NoError(t, err)
		assert.Equal(t, 1, result.ValidRows)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := NewParser(Options{SheetNameOrIndex: "Otro"}).Parse(content)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := NewParser(Options{SheetNameOrIndex: 5}).Parse(content)
		assert.ErrorContains(t, err, "not found")
	})
}

// TestParseNotAWorkbook tests the structural failure path
func TestParseNotAWorkbook(t *testing.T) {
	_, err := NewParser(Options{}).Parse([]byte("definitely not a zip archive"))
	assert.Error(t, err)
}
