package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyChars = regexp.MustCompile(`[$\s.]`)

// ParsePrice coerces a cell value to a price. Numeric values pass through as
// floats. String values strip currency symbols and thousands separators
// ("$", spaces, "."), then treat "," as the decimal separator. Unparsable
// input yields 0, matching the supplier-file convention where garbage cells
// mean "no price".
func ParsePrice(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	// Numeric cells arrive as plain floats
	if parsed, err := strconv.ParseFloat(value, 64); err == nil {
		return parsed
	}

	// "$ 1.234,56" -> "1234,56" -> "1234.56"
	cleaned := currencyChars.ReplaceAllString(value, "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// dateLayouts is the ordered list of explicit formats tried for string
// dates. First successful match wins.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"01/02/2006",
	"02.01.2006",
	"2006.01.02",
}

// fallbackLayouts is the lenient last pass before giving up
var fallbackLayouts = []string{
	time.RFC3339,
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"20060102",
	"02-01-2006 15:04:05",
}

// ParseDate coerces a cell value to a date. Numeric values are interpreted
// as spreadsheet serial dates (days since 1899-12-30, accounting for the
// historical 1900 leap-year bug). String values are tried against the
// explicit format list, then the lenient fallbacks. Fails with
// InvalidDateError when nothing matches.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, &InvalidDateError{Value: value}
	}

	// Serial date: date-styled cells without a number format come through
	// as their raw serial value
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if t := serialToTime(serial); t != nil {
			return t, nil
		}
		return nil, &InvalidDateError{Value: value}
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, nil
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, nil
		}
	}

	return nil, &InvalidDateError{Value: value}
}

// serialToTime converts a spreadsheet serial date to UTC time. The epoch is
// 1899-12-30: day 1 of the 1900 date system minus the 2-day correction for
// the leap-year bug Excel inherited from Lotus 1-2-3.
func serialToTime(serial float64) *time.Time {
	if serial <= 0 {
		return nil
	}

	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	t := epoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	return &t
}

// IsEmptyRow reports whether every cell is null or empty-string. Empty rows
// are skipped silently and never counted as processed or failed.
func IsEmptyRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
