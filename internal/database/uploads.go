package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrUploadBusy is returned when a start is attempted on an upload that is
// already being processed.
var ErrUploadBusy = errors.New("upload is already processing")

const uploadColumns = `id, filename, status, error_message,
	total_products, processed_products, created_products, updated_products, skipped_products, failed_products,
	total_variants, created_variants, updated_variants,
	started_at, completed_at, created_at`

func scanUpload(row pgx.Row) (*Upload, error) {
	var u Upload
	err := row.Scan(&u.ID, &u.Filename, &u.Status, &u.ErrorMessage,
		&u.TotalProducts, &u.ProcessedProducts, &u.CreatedProducts, &u.UpdatedProducts, &u.SkippedProducts, &u.FailedProducts,
		&u.TotalVariants, &u.CreatedVariants, &u.UpdatedVariants,
		&u.StartedAt, &u.CompletedAt, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUpload registers a new spreadsheet submission in status pending
func (s *Store) CreateUpload(ctx context.Context, filename string) (*Upload, error) {
	u, err := scanUpload(s.pool.QueryRow(ctx, `
		INSERT INTO uploads (filename, status, created_at)
		VALUES ($1, 'pending', NOW())
		RETURNING `+uploadColumns+`
	`, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}
	return u, nil
}

// GetUpload fetches one upload. A miss returns (nil, nil).
func (s *Store) GetUpload(ctx context.Context, uploadID int64) (*Upload, error) {
	u, err := scanUpload(s.pool.QueryRow(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads
		WHERE id = $1
	`, uploadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query upload %d: %w", uploadID, err)
	}
	return u, nil
}

// ListUploads returns uploads ordered newest first, optionally filtered by
// status.
func (s *Store) ListUploads(ctx context.Context, status string, limit, offset int) ([]Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, *u)
	}
	return uploads, rows.Err()
}

// StartProcessing transitions an upload into processing. The transition is
// optimistic: a concurrent start loses the affected-rows check and gets
// ErrUploadBusy.
func (s *Store) StartProcessing(ctx context.Context, uploadID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET status = 'processing', started_at = NOW(), completed_at = NULL, error_message = NULL
		WHERE id = $1 AND status <> 'processing'
	`, uploadID)
	if err != nil {
		return fmt.Errorf("failed to start upload %d: %w", uploadID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadBusy
	}
	return nil
}

// SetTotals records how many non-empty rows the spreadsheet produced
func (s *Store) SetTotals(ctx context.Context, uploadID int64, totalProducts, totalVariants int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET total_products = $2, total_variants = $3
		WHERE id = $1
	`, uploadID, totalProducts, totalVariants)
	if err != nil {
		return fmt.Errorf("failed to set upload %d totals: %w", uploadID, err)
	}
	return nil
}

// CounterDelta is one incremental counter update applied as a row resolves
type CounterDelta struct {
	Processed       int
	Created         int
	Updated         int
	Skipped         int
	Failed          int
	CreatedVariants int
	UpdatedVariants int
}

// ApplyCounters adds a delta to an upload's aggregate counters
func (s *Store) ApplyCounters(ctx context.Context, uploadID int64, d CounterDelta) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET processed_products = processed_products + $2,
		    created_products = created_products + $3,
		    updated_products = updated_products + $4,
		    skipped_products = skipped_products + $5,
		    failed_products = failed_products + $6,
		    created_variants = created_variants + $7,
		    updated_variants = updated_variants + $8
		WHERE id = $1
	`, uploadID, d.Processed, d.Created, d.Updated, d.Skipped, d.Failed, d.CreatedVariants, d.UpdatedVariants)
	if err != nil {
		return fmt.Errorf("failed to apply counters to upload %d: %w", uploadID, err)
	}
	return nil
}

// MarkCompleted finishes an upload without a fatal error
func (s *Store) MarkCompleted(ctx context.Context, uploadID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET status = 'completed', completed_at = NOW()
		WHERE id = $1
	`, uploadID)
	if err != nil {
		return fmt.Errorf("failed to complete upload %d: %w", uploadID, err)
	}
	return nil
}

// MarkFailed aborts an upload with a fatal error message
func (s *Store) MarkFailed(ctx context.Context, uploadID int64, message string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET status = 'failed', completed_at = NOW(), error_message = $2
		WHERE id = $1
	`, uploadID, message)
	if err != nil {
		return fmt.Errorf("failed to mark upload %d failed: %w", uploadID, err)
	}
	return nil
}

// ResetForReprocess zeroes every counter and returns the upload to pending.
// Prior ledger entries are cleared separately.
func (s *Store) ResetForReprocess(ctx context.Context, uploadID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET status = 'pending', error_message = NULL, started_at = NULL, completed_at = NULL,
		    total_products = 0, processed_products = 0, created_products = 0,
		    updated_products = 0, skipped_products = 0, failed_products = 0,
		    total_variants = 0, created_variants = 0, updated_variants = 0
		WHERE id = $1
	`, uploadID)
	if err != nil {
		return fmt.Errorf("failed to reset upload %d: %w", uploadID, err)
	}
	return nil
}

// MarkInterruptedUploads fails any upload left in processing, typically
// after a service restart killed the runner mid-batch.
func (s *Store) MarkInterruptedUploads(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE uploads
		SET status = 'failed', completed_at = NOW(),
		    error_message = 'service restarted during processing'
		WHERE status = 'processing'
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted uploads: %w", err)
	}
	return tag.RowsAffected(), nil
}
