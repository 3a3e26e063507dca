package database

import (
	"context"
	"fmt"
	"time"
)

// PruneLedger deletes ledger entries belonging to completed uploads whose
// entries are older than the cutoff. Entries of pending, processing or
// failed uploads are kept so retries stay possible.
func (s *Store) PruneLedger(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sync_log_entries e
		USING uploads u
		WHERE u.id = e.upload_id
		  AND u.status = 'completed'
		  AND e.created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneBarcodeDates deletes last-seen-date index rows not touched since the
// cutoff. The index only gates check_date mode, so stale rows are safe to
// drop.
func (s *Store) PruneBarcodeDates(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM barcode_dates WHERE updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune barcode dates: %w", err)
	}
	return tag.RowsAffected(), nil
}
