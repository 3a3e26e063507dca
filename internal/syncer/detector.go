package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// DateIndex is the barcode last-seen-date lookup the detector consults
type DateIndex interface {
	GetBarcodeDate(ctx context.Context, barcode string) (*time.Time, error)
}

// Detector decides whether a row needs to reach the remote endpoint
type Detector struct {
	dates DateIndex
}

// NewDetector creates a detector over the given date index
func NewDetector(dates DateIndex) *Detector {
	return &Detector{dates: dates}
}

// NeedsSync reports whether a row should be sent. force_all and manual
// always send. check_date skips a row when its barcode was already synced
// with a modification date at or after the row's own; a barcode the index
// has never seen, or a row without either barcode or date, always syncs.
// The returned reason is non-empty only when the row is skipped.
func (d *Detector) NeedsSync(ctx context.Context, row *types.NormalizedRow, mode types.UpdateMode) (bool, types.SkipReason, error) {
	switch mode {
	case types.UpdateModeForceAll, types.UpdateModeManual:
		return true, "", nil
	case types.UpdateModeCheckDate:
	default:
		return false, "", fmt.Errorf("unknown update mode %q", mode)
	}

	if row.Barcode == "" || row.LastModified == nil {
		return true, "", nil
	}

	lastSeen, err := d.dates.GetBarcodeDate(ctx, row.Barcode)
	if err != nil {
		return false, "", fmt.Errorf("failed to look up barcode date for %s: %w", row.Barcode, err)
	}
	if lastSeen == nil {
		return true, "", nil
	}
	if !lastSeen.Before(*row.LastModified) {
		return false, types.SkipReasonAlreadyUpdated, nil
	}
	return true, "", nil
}
