package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id, internal_code, final_price, calculated_price, last_price_update, created_at, updated_at`

const variantColumns = `id, product_id, internal_code, description, barcode, is_active, created_at, updated_at`

// GetProductByCode finds a product by its internal code. A miss is not an
// error, it returns (nil, nil).
func (s *Store) GetProductByCode(ctx context.Context, internalCode string) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE internal_code = $1
	`, internalCode).Scan(&p.ID, &p.InternalCode, &p.FinalPrice, &p.CalculatedPrice, &p.LastPriceUpdate, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %q: %w", internalCode, err)
	}
	return &p, nil
}

// CreateProduct inserts a new master product with price 0. Idempotent under
// the single-writer processing model: a conflicting insert returns the
// existing row.
func (s *Store) CreateProduct(ctx context.Context, internalCode string) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (internal_code, final_price, calculated_price, created_at, updated_at)
		VALUES ($1, 0, 0, NOW(), NOW())
		ON CONFLICT (internal_code) DO UPDATE SET updated_at = NOW()
		RETURNING `+productColumns+`
	`, internalCode).Scan(&p.ID, &p.InternalCode, &p.FinalPrice, &p.CalculatedPrice, &p.LastPriceUpdate, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert product %q: %w", internalCode, err)
	}
	return &p, nil
}

// UpdateProductPrice pushes the master record's price fields to the given
// values and stamps last_price_update. Last write wins, no history kept.
func (s *Store) UpdateProductPrice(ctx context.Context, productID int64, finalPrice, calculatedPrice float64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE products
		SET final_price = $2,
		    calculated_price = $3,
		    last_price_update = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`, productID, finalPrice, calculatedPrice)

	if err != nil {
		return fmt.Errorf("failed to update product %d price: %w", productID, err)
	}
	return nil
}

// GetVariantByKey finds a variant by its identity key
// (internal_code, description). A miss returns (nil, nil).
func (s *Store) GetVariantByKey(ctx context.Context, internalCode, description string) (*Variant, error) {
	var v Variant
	err := s.pool.QueryRow(ctx, `
		SELECT `+variantColumns+`
		FROM variants
		WHERE internal_code = $1 AND description = $2
	`, internalCode, description).Scan(&v.ID, &v.ProductID, &v.InternalCode, &v.Description, &v.Barcode, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query variant (%s, %s): %w", internalCode, description, err)
	}
	return &v, nil
}

// CreateVariant inserts a new variant. The assigned id becomes the
// externally visible catalog key and is never reissued for this
// (internal_code, description) pair.
func (s *Store) CreateVariant(ctx context.Context, productID int64, internalCode, description, barcode string) (*Variant, error) {
	var v Variant
	err := s.pool.QueryRow(ctx, `
		INSERT INTO variants (product_id, internal_code, description, barcode, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, NOW(), NOW())
		ON CONFLICT (internal_code, description) DO UPDATE SET updated_at = NOW()
		RETURNING `+variantColumns+`
	`, productID, internalCode, description, barcode).Scan(&v.ID, &v.ProductID, &v.InternalCode, &v.Description, &v.Barcode, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert variant (%s, %s): %w", internalCode, description, err)
	}
	return &v, nil
}

// UpdateVariantBarcode updates a variant's barcode in place, reusing the
// existing record id.
func (s *Store) UpdateVariantBarcode(ctx context.Context, variantID int64, barcode string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE variants
		SET barcode = $2, updated_at = NOW()
		WHERE id = $1
	`, variantID, barcode)

	if err != nil {
		return fmt.Errorf("failed to update variant %d barcode: %w", variantID, err)
	}
	return nil
}

// SetVariantActive flips a variant's active flag
func (s *Store) SetVariantActive(ctx context.Context, variantID int64, active bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE variants
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
	`, variantID, active)

	if err != nil {
		return fmt.Errorf("failed to set variant %d active=%t: %w", variantID, active, err)
	}
	return nil
}
