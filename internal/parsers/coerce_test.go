package parsers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePrice tests price coercion across supplier formats
func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{
			name:     "Plain integer",
			input:    "200",
			expected: 200,
		},
		{
			name:     "Plain float",
			input:    "176.5",
			expected: 176.5,
		},
		{
			name:     "Currency symbol with European separators",
			input:    "$ 1.234,56",
			expected: 1234.56,
		},
		{
			name:     "Comma decimal",
			input:    "176,50",
			expected: 176.5,
		},
		{
			name:     "Thousands dot only",
			input:    "1.234",
			expected: 1.234,
		},
		{
			name:     "Empty value",
			input:    "",
			expected: 0,
		},
		{
			name:     "Garbage",
			input:    "n/a",
			expected: 0,
		},
		{
			name:     "Whitespace padded",
			input:    "  99.90  ",
			expected: 99.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParsePrice(tt.input), 0.0001)
		})
	}
}

// TestParseDateSerial tests spreadsheet serial date conversion
func TestParseDateSerial(t *testing.T) {
	// 45000 days after 1899-12-30 is 2023-03-15
	parsed, err := ParseDate("45000")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, 2023, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 15, parsed.Day())
}

// TestParseDateLayouts tests string date parsing across supplier formats
func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "ISO date",
			input:    "2023-03-15",
			expected: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "ISO datetime",
			input:    "2023-03-15 14:30:00",
			expected: time.Date(2023, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			name:     "Day-first slashes",
			input:    "15/03/2023",
			expected: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Day-first dashes",
			input:    "15-03-2023",
			expected: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Day-first dots",
			input:    "15.03.2023",
			expected: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseDate(tt.input)
			require.NoError(t, err)
			require.NotNil(t, parsed)
			assert.True(t, tt.expected.Equal(*parsed), "expected %s, got %s", tt.expected, parsed)
		})
	}
}

// TestParseDateInvalid tests that unparsable dates fail typed
func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"", "not a date", "-5", "0"} {
		t.Run("input "+input, func(t *testing.T) {
			parsed, err := ParseDate(input)
			assert.Nil(t, parsed)
			var dateErr *InvalidDateError
			require.ErrorAs(t, err, &dateErr)
		})
	}
}

func TestIsEmptyRow(t *testing.T) {
	assert.True(t, IsEmptyRow(nil))
	assert.True(t, IsEmptyRow([]string{"", "  ", "\t"}))
	assert.False(t, IsEmptyRow([]string{"", "x", ""}))
}
