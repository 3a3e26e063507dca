package esl

import (
	"encoding/json"
	"fmt"
)

// envelope is the response wrapper every endpoint uses. Code 0 means
// success; Body carries the operation-specific payload.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// AuthError is a remote login failure. Nothing can sync without a token, so
// callers treat it as fatal for the whole upload.
type AuthError struct {
	Code    int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("esl authentication failed (code %d): %s", e.Code, e.Message)
}

// RemoteError is a non-auth failure reported by the endpoint or the
// transport. Batch-level callers mark the in-flight rows failed and
// continue with the next batch.
type RemoteError struct {
	Status  int // HTTP status, 0 for transport errors
	Code    int // endpoint envelope code
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("esl request failed (http %d, code %d): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("esl request failed (code %d): %s", e.Code, e.Message)
}

// ValidationError is a payload construction failure, caught before anything
// is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid esl payload: " + e.Message
}

// loginRequest is the POST /api/login body
type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// getListRequest is the POST /api/Goods/getList body
type getListRequest struct {
	PageIndex int    `json:"pageIndex"`
	PageSize  int    `json:"pageSize"`
	ShopCode  string `json:"shopCode"`
	GoodsCode string `json:"goodsCode"`
}

// getListBody is the body of a getList response
type getListBody struct {
	ItemList []Goods `json:"itemList"`
}

// Goods is one remote catalog record as returned by getList
type Goods struct {
	GoodsCode      string `json:"goodsCode"`
	GoodsName      string `json:"goodsName"`
	Barcode        string `json:"barCode"`
	OriginalPrice  string `json:"originalPrice"`
	PromotionPrice string `json:"promotionPrice"`
	ShopCode       string `json:"shopCode"`
}

// TagPush is one entry of a POST /api/esl/tag/pushList request, asking the
// endpoint to refresh the physical display tag bound to a goods code.
type TagPush struct {
	ShopCode  string   `json:"shopCode"`
	TagID     string   `json:"tagID"`
	GoodsCode string   `json:"goodsCode"`
	GoodsName string   `json:"goodsName"`
	Template  string   `json:"template"`
	Items     []string `json:"items"`
}
