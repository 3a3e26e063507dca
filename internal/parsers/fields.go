package parsers

import "strings"

// Canonical field names after header synonym mapping
const (
	FieldBarcode      = "cod_barras"
	FieldDescription  = "descripcion"
	FieldFinalPrice   = "final"
	FieldLastModified = "ultima_modificacion"
)

// RequiredFields lists every canonical column a spreadsheet must provide
var RequiredFields = []string{FieldBarcode, FieldDescription, FieldFinalPrice, FieldLastModified}

// headerSynonyms maps normalized header text to a canonical field name.
// Keys are lower-cased and space-collapsed; accented variants are listed
// explicitly because supplier files mix both spellings.
var headerSynonyms = map[string]string{
	"cod_barras":        FieldBarcode,
	"cod barras":        FieldBarcode,
	"cod. barras":       FieldBarcode,
	"codigo":            FieldBarcode,
	"código":            FieldBarcode,
	"codigo de barras":  FieldBarcode,
	"código de barras":  FieldBarcode,
	"ean":               FieldBarcode,
	"barcode":           FieldBarcode,
	"descripcion":       FieldDescription,
	"descripción":       FieldDescription,
	"detalle":           FieldDescription,
	"producto":          FieldDescription,
	"description":       FieldDescription,
	"final":             FieldFinalPrice,
	"final ($)":         FieldFinalPrice,
	"final($)":          FieldFinalPrice,
	"precio":            FieldFinalPrice,
	"precio final":      FieldFinalPrice,
	"pvp":               FieldFinalPrice,
	"price":             FieldFinalPrice,
	"ultima_modificacion":  FieldLastModified,
	"ultima modificacion":  FieldLastModified,
	"última modificación":  FieldLastModified,
	"ult. modificacion":    FieldLastModified,
	"fecha":                FieldLastModified,
	"fecha modificacion":   FieldLastModified,
	"fecha modificación":   FieldLastModified,
	"last modified":        FieldLastModified,
	"modificado":           FieldLastModified,
}

// ColumnIndices holds the resolved 0-based column position of each canonical
// field within a file.
type ColumnIndices struct {
	Barcode      int
	Description  int
	FinalPrice   int
	LastModified int
}

// InvalidIndex indicates a column was not found
const InvalidIndex = -1

// NormalizeHeader lower-cases, trims and space-collapses a raw header cell
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), " ")
}

// CanonicalField maps a raw header cell to its canonical field name.
// Unknown headers map to "".
func CanonicalField(header string) string {
	return headerSynonyms[NormalizeHeader(header)]
}

// ResolveColumns maps a header row to column indices. It fails with
// MissingColumnsError listing every required canonical field still absent
// after synonym mapping.
func ResolveColumns(headers []string) (*ColumnIndices, error) {
	indices := &ColumnIndices{
		Barcode:      InvalidIndex,
		Description:  InvalidIndex,
		FinalPrice:   InvalidIndex,
		LastModified: InvalidIndex,
	}

	for i, h := range headers {
		switch CanonicalField(h) {
		case FieldBarcode:
			if indices.Barcode == InvalidIndex {
				indices.Barcode = i
			}
		case FieldDescription:
			if indices.Description == InvalidIndex {
				indices.Description = i
			}
		case FieldFinalPrice:
			if indices.FinalPrice == InvalidIndex {
				indices.FinalPrice = i
			}
		case FieldLastModified:
			if indices.LastModified == InvalidIndex {
				indices.LastModified = i
			}
		}
	}

	var missing []string
	if indices.Barcode == InvalidIndex {
		missing = append(missing, FieldBarcode)
	}
	if indices.Description == InvalidIndex {
		missing = append(missing, FieldDescription)
	}
	if indices.FinalPrice == InvalidIndex {
		missing = append(missing, FieldFinalPrice)
	}
	if indices.LastModified == InvalidIndex {
		missing = append(missing, FieldLastModified)
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	return indices, nil
}
