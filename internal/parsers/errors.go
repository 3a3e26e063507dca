package parsers

import (
	"fmt"
	"strings"
)

// MissingColumnsError is returned when required canonical columns are absent
// after header synonym mapping. It aborts the whole file.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// InvalidDateError is returned when a cell value cannot be interpreted as a
// date by any known format.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("unparsable date value: %q", e.Value)
}

// ValidationError is returned for a single bad row. Callers convert it into
// a ledger entry; it never aborts the file.
type ValidationError struct {
	RowNumber int
	Problems  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.RowNumber, strings.Join(e.Problems, "; "))
}
