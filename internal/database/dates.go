package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetBarcodeDate returns the last-seen modification date recorded for a
// barcode, used by the check_date update mode. A miss returns (nil, nil).
func (s *Store) GetBarcodeDate(ctx context.Context, barcode string) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT last_date FROM barcode_dates WHERE barcode = $1
	`, barcode).Scan(&t)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query barcode date %q: %w", barcode, err)
	}
	return &t, nil
}

// UpsertBarcodeDate records the latest modification date seen for a barcode
func (s *Store) UpsertBarcodeDate(ctx context.Context, barcode string, date time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO barcode_dates (barcode, last_date, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (barcode) DO UPDATE SET
			last_date = EXCLUDED.last_date,
			updated_at = NOW()
	`, barcode, date)

	if err != nil {
		return fmt.Errorf("failed to upsert barcode date %q: %w", barcode, err)
	}
	return nil
}
