package database

import (
	"time"
)

// Product is the master article identified by its internal code. Its price
// fields always reflect the most recently processed variant (last write
// wins, no history kept).
type Product struct {
	ID              int64      `json:"id"`
	InternalCode    string     `json:"internal_code"`    // unique
	FinalPrice      float64    `json:"final_price"`      // current list price
	CalculatedPrice float64    `json:"calculated_price"` // discounted price
	LastPriceUpdate *time.Time `json:"last_price_update"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Variant is a sellable unit belonging to one Product. Its identity key is
// (internal_code, description); the barcode is mutable payload. The id is
// the externally visible catalog key (goodsCode) and never changes for the
// lifetime of the record.
type Variant struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	InternalCode string    `json:"internal_code"`
	Description  string    `json:"description"`
	Barcode      string    `json:"barcode"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Upload statuses
const (
	UploadStatusPending    = "pending"
	UploadStatusProcessing = "processing"
	UploadStatusCompleted  = "completed"
	UploadStatusFailed     = "failed"
)

// Upload represents one spreadsheet submission and its aggregate
// processing state. Counters are mutated incrementally as rows are
// processed; only an explicit reprocess resets them.
type Upload struct {
	ID           int64   `json:"id"`
	Filename     string  `json:"filename"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`

	TotalProducts     int `json:"total_products"`
	ProcessedProducts int `json:"processed_products"`
	CreatedProducts   int `json:"created_products"`
	UpdatedProducts   int `json:"updated_products"`
	SkippedProducts   int `json:"skipped_products"`
	FailedProducts    int `json:"failed_products"`

	TotalVariants   int `json:"total_variants"`
	CreatedVariants int `json:"created_variants"`
	UpdatedVariants int `json:"updated_variants"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Ledger entry actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
)

// Ledger entry statuses. Submitted rows go pending -> success|failed and
// failed -> pending only via retry. skipped is terminal and recorded
// directly for rows that never reach the remote endpoint. Nothing leaves
// success.
const (
	EntryStatusPending = "pending"
	EntryStatusSuccess = "success"
	EntryStatusFailed  = "failed"
	EntryStatusSkipped = "skipped"
)

// SyncLogEntry is one row-processing outcome tied to an Upload and,
// when identity resolution succeeded, a Variant.
type SyncLogEntry struct {
	ID             int64      `json:"id"`
	UploadID       int64      `json:"upload_id"`
	VariantID      *int64     `json:"variant_id"`
	Action         string     `json:"action"`
	Status         string     `json:"status"`
	PriceChanged   bool       `json:"price_changed"`
	BarcodeChanged bool       `json:"barcode_changed"`
	SkipReason     *string    `json:"skip_reason"`
	ErrorMessage   *string    `json:"error_message"`
	RowNumber      int        `json:"row_number"`
	ProcessedAt    *time.Time `json:"processed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ExportRow is one flattened row of the ledger CSV export (entry joined
// with variant and product).
type ExportRow struct {
	EntryID      int64      `json:"entry_id"`
	VariantID    *int64     `json:"variant_id"`
	InternalCode *string    `json:"internal_code"`
	Description  *string    `json:"description"`
	Barcode      *string    `json:"barcode"`
	Action       string     `json:"action"`
	Status       string     `json:"status"`
	RowNumber    int        `json:"row_number"`
	Error        *string    `json:"error"`
	ProcessedAt  *time.Time `json:"processed_at"`
}

// LedgerStats aggregates ledger entries for one upload
type LedgerStats struct {
	ByAction    map[string]int `json:"by_action"`
	ByStatus    map[string]int `json:"by_status"`
	SuccessRate float64        `json:"success_rate"` // percentage, 2 decimals
}

// Setting is one key-value configuration row with typed coercion on read
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
