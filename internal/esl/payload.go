package esl

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The saveList endpoint takes fixed-width positional records. Only the
// named positions carry data; the rest are constants or blanks per the
// endpoint's schema.
const (
	posShopCode       = 0
	posGoodsCode      = 1 // the stable variant id; changing it orphans the remote record
	posGoodsName      = 2
	posSpecification  = 3
	posInternalCode   = 4
	posBarcode        = 5
	posOrigin         = 6
	posOriginalPrice  = 7
	posPromotionPrice = 8
	posGrade          = 9
	posUnit           = 10
	posSupplier       = 11

	recordWidth = 12
)

// fixed values the endpoint expects on every record
const (
	originValue = "NAC"
	unitValue   = "UN"
)

// GoodsRecord is the internal, named representation of one catalog payload.
// Serialization to the endpoint's positional array happens only at the wire
// boundary via MarshalJSON.
type GoodsRecord struct {
	ShopCode       string
	GoodsCode      int64 // variant id, the external catalog key
	Description    string
	Barcode        string
	InternalCode   string
	OriginalPrice  float64
	PromotionPrice float64
}

// Validate fails when the record cannot be safely sent. A missing goods
// code would create an orphan remote record, so it is rejected outright.
func (r GoodsRecord) Validate() error {
	if r.GoodsCode <= 0 {
		return &ValidationError{Message: "missing goods code"}
	}
	if r.ShopCode == "" {
		return &ValidationError{Message: "missing shop code"}
	}
	return nil
}

// DisplayName is the description sent to the tag: the variant description
// with the barcode appended when present.
func (r GoodsRecord) DisplayName() string {
	if r.Barcode == "" {
		return r.Description
	}
	return r.Description + " - CB: " + r.Barcode
}

// positional lays the record out as the fixed-width array the endpoint
// consumes.
func (r GoodsRecord) positional() []string {
	record := make([]string, recordWidth)
	record[posShopCode] = r.ShopCode
	record[posGoodsCode] = strconv.FormatInt(r.GoodsCode, 10)
	record[posGoodsName] = r.DisplayName()
	record[posInternalCode] = r.InternalCode
	record[posBarcode] = r.Barcode
	record[posOrigin] = originValue
	record[posOriginalPrice] = strconv.FormatFloat(r.OriginalPrice, 'f', 2, 64)
	record[posPromotionPrice] = strconv.FormatFloat(r.PromotionPrice, 'f', 2, 64)
	record[posUnit] = unitValue
	return record
}

// MarshalJSON emits the positional wire format
func (r GoodsRecord) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r.positional())
}

// ParseGoodsCode reads the goods code back out of a positional record
func ParseGoodsCode(record []string) (int64, error) {
	if len(record) <= posGoodsCode {
		return 0, fmt.Errorf("record too short: %d positions", len(record))
	}
	code, err := strconv.ParseInt(record[posGoodsCode], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid goods code %q: %w", record[posGoodsCode], err)
	}
	return code, nil
}
