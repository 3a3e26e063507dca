// Package syncer decides what each spreadsheet row means for the local
// catalog: which product and variant it belongs to, whether it needs to
// reach the remote endpoint, and what prices travel with it.
package syncer

import "math"

// Round2 rounds to two decimals, half away from zero
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApplyDiscount returns the price after a percentage discount, rounded to
// two decimals. A zero percentage returns the price unchanged.
func ApplyDiscount(finalPrice, percent float64) float64 {
	if percent == 0 {
		return Round2(finalPrice)
	}
	return Round2(finalPrice * (1 - percent/100))
}
