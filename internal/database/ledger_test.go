package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSuccessRate tests the percentage math, including the empty-ledger
// guard. Skipped entries never count against the rate.
func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		success  int
		failed   int
		expected float64
	}{
		{name: "all success", success: 10, failed: 0, expected: 100},
		{name: "all failed", success: 0, failed: 5, expected: 0},
		{name: "two thirds", success: 2, failed: 1, expected: 66.67},
		{name: "half", success: 1, failed: 1, expected: 50},
		{name: "rounds to two decimals", success: 1, failed: 2, expected: 33.33},
		{name: "no settled entries", success: 0, failed: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SuccessRate(tt.success, tt.failed), 0.0001)
		})
	}
}
