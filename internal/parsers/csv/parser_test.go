package csv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDetectDelimiter tests automatic delimiter detection
func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected rune
	}{
		{
			name:     "Comma",
			content:  "cod_barras,descripcion,final\n123,Yerba,100",
			expected: ',',
		},
		{
			name:     "Semicolon",
			content:  "cod_barras;descripcion;final\n123;Yerba;100",
			expected: ';',
		},
		{
			name:     "Tab",
			content:  "cod_barras\tdescripcion\tfinal\n123\tYerba\t100",
			expected: '\t',
		},
		{
			name:     "Semicolon with commas inside values",
			content:  "cod_barras;descripcion;final\n123;Yerba, suave;100\n456;Azucar;200\n789;Cafe;300",
			expected: ';',
		},
		{
			name:     "Empty content falls back to comma",
			content:  "",
			expected: ',',
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.content))
		})
	}
}

// TestParseSemicolonCSV tests end-to-end parsing of a semicolon file
func TestParseSemicolonCSV(t *testing.T) {
	content := []byte("cod_barras;descripcion;final;ultima_modificacion\n" +
		"7791234567890;Yerba Mate 1kg;1500,50;2023-03-15\n" +
		"7790000000001;Azucar 1kg;800;15/03/2023\n")

	result, err := NewParser(Options{}).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Yerba Mate 1kg", result.Rows[0].Description)
	assert.InDelta(t, 1500.50, result.Rows[0].FinalPrice, 0.0001)
}

// TestParseWindows1252 tests that accented characters in legacy encoding
// survive the decode
func TestParseWindows1252(t *testing.T) {
	// "Azúcar" with ú as the Windows-1252 single byte 0xFA
	content := append([]byte("cod_barras;descripcion;final;ultima_modificacion\n7791234567890;Az"),
		0xFA)
	content = append(content, []byte("car 1kg;800;2023-03-15\n")...)

	result, err := NewParser(Options{}).Parse(content)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Azúcar 1kg", result.Rows[0].Description)
}

// TestParseUTF8BOM tests that a BOM does not corrupt the first header
func TestParseUTF8BOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF},
		[]byte("cod_barras,descripcion,final,ultima_modificacion\n7791234567890,Yerba,100,2023-03-15\n")...)

	result, err := NewParser(Options{}).Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ValidRows)
}

// TestParseFixedDelimiter tests the delimiter override
func TestParseFixedDelimiter(t *testing.T) {
	content := []byte("cod_barras|descripcion|final|ultima_modificacion\n123|Yerba|100|2023-03-15\n")

	result, err := NewParser(Options{Delimiter: '|'}).Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ValidRows)
}
