package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/parsers"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// Options represents XLSX parser options
type Options struct {
	// SheetNameOrIndex specifies which sheet to parse (default: first sheet).
	// Can be a string (sheet name) or int (sheet index, 0-based).
	SheetNameOrIndex interface{}
	// RawCellValues skips cell-style formatting so date cells come through
	// as their serial values
	RawCellValues bool
}

// Parser reads XLSX workbooks into normalized product rows
type Parser struct {
	options Options
}

// NewParser creates a new XLSX parser
func NewParser(options Options) *Parser {
	return &Parser{options: options}
}

// Parse parses XLSX content into normalized rows. Structural failures
// (unreadable workbook, missing sheet, missing required columns) return an
// error; row-level problems are accumulated in the result.
func (p *Parser) Parse(content []byte) (*types.ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := p.selectSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: p.options.RawCellValues})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}

	return parsers.MapRows(rows)
}

// selectSheet selects the appropriate sheet from the workbook
func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if p.options.SheetNameOrIndex == nil {
		return sheetList[0], nil
	}

	switch v := p.options.SheetNameOrIndex.(type) {
	case int:
		if v >= len(sheetList) {
			return "", fmt.Errorf("sheet index %d not found, workbook has %d sheets", v, len(sheetList))
		}
		return sheetList[v], nil
	case string:
		for _, name := range sheetList {
			if name == v {
				return name, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found, available sheets: %s", v, strings.Join(sheetList, ", "))
	default:
		return sheetList[0], nil
	}
}
