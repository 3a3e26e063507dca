package parsers

import (
	"encoding/json"
	"strings"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// MapRows maps raw tabular cell data (first row = headers) into a
// ParseResult. It fails with MissingColumnsError when required canonical
// columns are absent; per-row validation failures are accumulated in
// Errors (one entry per row) and never abort the file.
func MapRows(rows [][]string) (*types.ParseResult, error) {
	result := &types.ParseResult{
		Rows:     make([]types.NormalizedRow, 0),
		Errors:   make([]types.ParseError, 0),
		Warnings: make([]types.ParseWarning, 0),
	}

	if len(rows) == 0 {
		result.Warnings = append(result.Warnings, types.ParseWarning{
			Message: "file is empty",
		})
		return result, nil
	}

	indices, err := ResolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(rows); i++ {
		rawRow := rows[i]
		rowNumber := i + 1 // 1-based, header included, as shown in the spreadsheet

		if IsEmptyRow(rawRow) {
			continue
		}
		result.TotalRows++

		row, rowErr := mapRow(rawRow, rowNumber, indices)
		if rowErr != nil {
			rawData, _ := json.Marshal(rawRow)
			result.Errors = append(result.Errors, types.ParseError{
				RowNumber:     types.IntPtr(rowNumber),
				Message:       rowErr.Error(),
				OriginalValue: types.StringPtr(string(rawData)),
			})
			continue
		}
		result.Rows = append(result.Rows, *row)
	}

	result.ValidRows = len(result.Rows)
	return result, nil
}

// mapRow maps one raw row to a NormalizedRow, validating it in the process
func mapRow(rawRow []string, rowNumber int, indices *ColumnIndices) (*types.NormalizedRow, error) {
	getValue := func(idx int) string {
		if idx == InvalidIndex || idx >= len(rawRow) {
			return ""
		}
		return strings.TrimSpace(rawRow[idx])
	}

	barcode := getValue(indices.Barcode)
	description := getValue(indices.Description)
	price := ParsePrice(getValue(indices.FinalPrice))
	lastModified, dateErr := ParseDate(getValue(indices.LastModified))

	var problems []string
	if barcode == "" {
		problems = append(problems, "missing barcode")
	}
	if description == "" {
		problems = append(problems, "missing description")
	}
	if price <= 0 {
		problems = append(problems, "price must be positive")
	}
	if dateErr != nil {
		problems = append(problems, dateErr.Error())
	}
	if len(problems) > 0 {
		return nil, &ValidationError{RowNumber: rowNumber, Problems: problems}
	}

	rawData, _ := json.Marshal(rawRow)

	return &types.NormalizedRow{
		InternalCode: barcode,
		Barcode:      barcode,
		Description:  description,
		FinalPrice:   price,
		LastModified: lastModified,
		RowNumber:    rowNumber,
		RawData:      string(rawData),
	}, nil
}
