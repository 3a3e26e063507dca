package types

import "time"

// FileType represents supported spreadsheet file types
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// NormalizedRow represents a single product row after header mapping and
// type coercion, regardless of the input file format.
type NormalizedRow struct {
	// InternalCode is the master product code. The import format carries no
	// separate code column, so it is taken from the barcode column; the
	// variant identity key is (internal_code, description).
	InternalCode string     `json:"internalCode"`
	Barcode      string     `json:"barcode"`
	Description  string     `json:"description"`
	FinalPrice   float64    `json:"finalPrice"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	RowNumber    int        `json:"rowNumber"` // 1-based, as shown in the spreadsheet
	RawData      string     `json:"rawData"`   // original cells, JSON-encoded
}

// ParseResult represents the outcome of parsing one spreadsheet
type ParseResult struct {
	Rows      []NormalizedRow `json:"rows"`
	Errors    []ParseError    `json:"errors"`
	Warnings  []ParseWarning  `json:"warnings"`
	TotalRows int             `json:"totalRows"` // non-empty data rows
	ValidRows int             `json:"validRows"`
}

// ParseError represents a row- or file-level parse failure
type ParseError struct {
	RowNumber     *int    `json:"rowNumber,omitempty"`
	Field         *string `json:"field,omitempty"`
	Message       string  `json:"message"`
	OriginalValue *string `json:"originalValue,omitempty"`
}

// ParseWarning represents a non-fatal parse issue
type ParseWarning struct {
	RowNumber *int    `json:"rowNumber,omitempty"`
	Field     *string `json:"field,omitempty"`
	Message   string  `json:"message"`
}

// UpdateMode controls how the change detector decides whether a variant
// needs a remote sync.
type UpdateMode string

const (
	UpdateModeCheckDate UpdateMode = "check_date"
	UpdateModeForceAll  UpdateMode = "force_all"
	UpdateModeManual    UpdateMode = "manual"
)

// IsValidUpdateMode reports whether s names a known update mode
func IsValidUpdateMode(s string) bool {
	switch UpdateMode(s) {
	case UpdateModeCheckDate, UpdateModeForceAll, UpdateModeManual:
		return true
	}
	return false
}

// SkipReason explains why the change detector filtered a row out
type SkipReason string

const (
	SkipReasonAlreadyUpdated SkipReason = "already_updated"
)

// IntPtr returns a pointer to an int
func IntPtr(i int) *int {
	return &i
}

// StringPtr returns a pointer to a string
func StringPtr(s string) *string {
	return &s
}
