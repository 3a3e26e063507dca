package database

import (
	"context"
	"fmt"
	"math"
)

const entryColumns = `id, upload_id, variant_id, action, status, price_changed, barcode_changed,
	skip_reason, error_message, row_number, processed_at, created_at`

// RecordAttempt inserts one pending ledger entry for a row about to be
// submitted to the remote endpoint.
func (s *Store) RecordAttempt(ctx context.Context, uploadID, variantID int64, action string, rowNumber int, priceChanged, barcodeChanged bool) (int64, error) {
	var entryID int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sync_log_entries (upload_id, variant_id, action, status, price_changed, barcode_changed, row_number, created_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6, NOW())
		RETURNING id
	`, uploadID, variantID, action, priceChanged, barcodeChanged, rowNumber).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("failed to record attempt for row %d: %w", rowNumber, err)
	}
	return entryID, nil
}

// RecordSkip inserts one terminal skipped entry for a row the change
// detector filtered out.
func (s *Store) RecordSkip(ctx context.Context, uploadID int64, variantID *int64, reason string, rowNumber int) (int64, error) {
	var entryID int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sync_log_entries (upload_id, variant_id, action, status, skip_reason, row_number, processed_at, created_at)
		VALUES ($1, $2, 'skipped', 'skipped', $3, $4, NOW(), NOW())
		RETURNING id
	`, uploadID, variantID, reason, rowNumber).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("failed to record skip for row %d: %w", rowNumber, err)
	}
	return entryID, nil
}

// RecordFailure inserts one terminal failed entry for a row that never
// reached the remote endpoint (validation or resolution failure).
func (s *Store) RecordFailure(ctx context.Context, uploadID int64, variantID *int64, rowNumber int, message string) (int64, error) {
	var entryID int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sync_log_entries (upload_id, variant_id, action, status, error_message, row_number, processed_at, created_at)
		VALUES ($1, $2, 'skipped', 'failed', $3, $4, NOW(), NOW())
		RETURNING id
	`, uploadID, variantID, message, rowNumber).Scan(&entryID)
	if err != nil {
		return 0, fmt.Errorf("failed to record failure for row %d: %w", rowNumber, err)
	}
	return entryID, nil
}

// Resolve transitions a pending entry to success or failed. Entries in any
// other status are left untouched.
func (s *Store) Resolve(ctx context.Context, entryID int64, success bool, errorMessage string) error {
	status := EntryStatusSuccess
	var msg *string
	if !success {
		status = EntryStatusFailed
		msg = &errorMessage
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE sync_log_entries
		SET status = $2, error_message = $3, processed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, entryID, status, msg)
	if err != nil {
		return fmt.Errorf("failed to resolve entry %d: %w", entryID, err)
	}
	return nil
}

// ResolveMany transitions a batch of pending entries at once, used when a
// whole remote submission succeeds or fails together.
func (s *Store) ResolveMany(ctx context.Context, entryIDs []int64, success bool, errorMessage string) error {
	if len(entryIDs) == 0 {
		return nil
	}

	status := EntryStatusSuccess
	var msg *string
	if !success {
		status = EntryStatusFailed
		msg = &errorMessage
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE sync_log_entries
		SET status = $2, error_message = $3, processed_at = NOW()
		WHERE id = ANY($1) AND status = 'pending'
	`, entryIDs, status, msg)
	if err != nil {
		return fmt.Errorf("failed to resolve %d entries: %w", len(entryIDs), err)
	}
	return nil
}

// RetryFailed bulk-transitions failed entries back to pending, clearing
// their error. Returns the number affected; idempotent when none failed.
func (s *Store) RetryFailed(ctx context.Context, uploadID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_log_entries
		SET status = 'pending', error_message = NULL, processed_at = NULL
		WHERE upload_id = $1 AND status = 'failed'
	`, uploadID)
	if err != nil {
		return 0, fmt.Errorf("failed to retry failed entries for upload %d: %w", uploadID, err)
	}
	return tag.RowsAffected(), nil
}

// ClearForUpload deletes every ledger entry of an upload before a reprocess
func (s *Store) ClearForUpload(ctx context.Context, uploadID int64) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM sync_log_entries WHERE upload_id = $1
	`, uploadID)
	if err != nil {
		return fmt.Errorf("failed to clear entries for upload %d: %w", uploadID, err)
	}
	return nil
}

// ListEntries returns ledger entries for an upload in row order, optionally
// filtered by status.
func (s *Store) ListEntries(ctx context.Context, uploadID int64, status string, limit, offset int) ([]SyncLogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM sync_log_entries WHERE upload_id = $1`
	args := []interface{}{uploadID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY row_number LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]SyncLogEntry, 0)
	for rows.Next() {
		var e SyncLogEntry
		if err := rows.Scan(&e.ID, &e.UploadID, &e.VariantID, &e.Action, &e.Status, &e.PriceChanged, &e.BarcodeChanged,
			&e.SkipReason, &e.ErrorMessage, &e.RowNumber, &e.ProcessedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates an upload's ledger entries by action and status
func (s *Store) Stats(ctx context.Context, uploadID int64) (*LedgerStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT action, status, COUNT(*)
		FROM sync_log_entries
		WHERE upload_id = $1
		GROUP BY action, status
	`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats for upload %d: %w", uploadID, err)
	}
	defer rows.Close()

	stats := &LedgerStats{
		ByAction: make(map[string]int),
		ByStatus: make(map[string]int),
	}
	for rows.Next() {
		var action, status string
		var count int
		if err := rows.Scan(&action, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByAction[action] += count
		stats.ByStatus[status] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.SuccessRate = SuccessRate(stats.ByStatus[EntryStatusSuccess], stats.ByStatus[EntryStatusFailed])
	return stats, nil
}

// SuccessRate computes success/(success+failed) as a percentage rounded to
// 2 decimals, guarding the divide-by-zero case.
func SuccessRate(success, failed int) float64 {
	total := success + failed
	if total == 0 {
		return 0
	}
	return math.Round(float64(success)/float64(total)*10000) / 100
}

// ExportRows flattens an upload's entries joined with variant and product
// data for CSV export. Pure projection, no mutation.
func (s *Store) ExportRows(ctx context.Context, uploadID int64, status string) ([]ExportRow, error) {
	query := `
		SELECT e.id, e.variant_id, v.internal_code, v.description, v.barcode,
		       e.action, e.status, e.row_number, e.error_message, e.processed_at
		FROM sync_log_entries e
		LEFT JOIN variants v ON v.id = e.variant_id
		WHERE e.upload_id = $1`
	args := []interface{}{uploadID}
	if status != "" {
		query += ` AND e.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY e.row_number`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	out := make([]ExportRow, 0)
	for rows.Next() {
		var r ExportRow
		if err := rows.Scan(&r.EntryID, &r.VariantID, &r.InternalCode, &r.Description, &r.Barcode,
			&r.Action, &r.Status, &r.RowNumber, &r.Error, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ErrorSummary groups an upload's failed entries by error message
func (s *Store) ErrorSummary(ctx context.Context, uploadID int64) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(error_message, ''), COUNT(*)
		FROM sync_log_entries
		WHERE upload_id = $1 AND status = 'failed'
		GROUP BY error_message
		ORDER BY COUNT(*) DESC
	`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query error summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var msg string
		var count int
		if err := rows.Scan(&msg, &count); err != nil {
			return nil, fmt.Errorf("failed to scan error summary row: %w", err)
		}
		summary[msg] = count
	}
	return summary, rows.Err()
}
