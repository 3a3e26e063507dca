package csv

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/parsers"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/parsers/charset"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// Options represents CSV parser options
type Options struct {
	// Delimiter overrides autodetection when non-zero
	Delimiter rune
	// Encoding overrides autodetection when set
	Encoding charset.Encoding
}

// Parser reads delimited text files into normalized product rows
type Parser struct {
	options Options
}

// NewParser creates a new CSV parser
func NewParser(options Options) *Parser {
	return &Parser{options: options}
}

// Parse parses CSV content into normalized rows. Encoding and delimiter are
// autodetected unless fixed in the options.
func (p *Parser) Parse(content []byte) (*types.ParseResult, error) {
	enc := p.options.Encoding
	if enc == "" {
		enc = charset.DetectEncoding(content)
	}

	decoded, err := charset.Decode(content, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	delimiter := p.options.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(decoded)
	}

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // supplier exports have ragged rows
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return parsers.MapRows(rows)
}
