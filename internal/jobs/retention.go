// Package jobs holds the periodic maintenance work the server schedules.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/storage"
)

// RetentionConfig configures how long each kind of record is kept
type RetentionConfig struct {
	LedgerDays      int
	BarcodeDays     int
	UploadFileDays  int
}

// DefaultRetentionConfig returns the default retention windows
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		LedgerDays:     90,  // ledger entries of completed uploads
		BarcodeDays:    365, // last-seen dates only gate check_date mode
		UploadFileDays: 30,  // spreadsheets are only needed for reprocessing
	}
}

// RetentionResult reports what one sweep removed
type RetentionResult struct {
	LedgerEntries int64
	BarcodeDates  int64
	UploadFiles   int
}

// Retention prunes old ledger entries, stale barcode dates and stored
// spreadsheets past their retention windows
type Retention struct {
	store *database.Store
	files storage.Store
	cfg   RetentionConfig
}

// NewRetention wires a retention sweeper. files may be nil when only the
// database should be pruned.
func NewRetention(store *database.Store, files storage.Store, cfg RetentionConfig) *Retention {
	return &Retention{store: store, files: files, cfg: cfg}
}

// RunOnce performs one sweep. Partial failures abort the sweep; the next
// tick retries everything.
func (r *Retention) RunOnce(ctx context.Context) (*RetentionResult, error) {
	now := time.Now()
	result := &RetentionResult{}

	entries, err := r.store.PruneLedger(ctx, now.AddDate(0, 0, -r.cfg.LedgerDays))
	if err != nil {
		return nil, err
	}
	result.LedgerEntries = entries

	dates, err := r.store.PruneBarcodeDates(ctx, now.AddDate(0, 0, -r.cfg.BarcodeDays))
	if err != nil {
		return nil, err
	}
	result.BarcodeDates = dates

	if r.files != nil {
		removed, err := r.files.SweepOlderThan(now.AddDate(0, 0, -r.cfg.UploadFileDays))
		if err != nil {
			return nil, err
		}
		result.UploadFiles = removed
	}

	log.Info().
		Int64("ledger_entries", result.LedgerEntries).
		Int64("barcode_dates", result.BarcodeDates).
		Int("upload_files", result.UploadFiles).
		Msg("retention sweep completed")

	return result, nil
}

// Start runs a sweep immediately and then on every interval tick until the
// context is cancelled. Meant to be called in its own goroutine.
func (r *Retention) Start(ctx context.Context, interval time.Duration) {
	if _, err := r.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("retention sweep failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("retention sweep failed")
			}
		}
	}
}
