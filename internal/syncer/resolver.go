package syncer

import (
	"context"
	"fmt"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// CatalogStore is the slice of the database the resolver needs
type CatalogStore interface {
	GetProductByCode(ctx context.Context, internalCode string) (*database.Product, error)
	CreateProduct(ctx context.Context, internalCode string) (*database.Product, error)
	UpdateProductPrice(ctx context.Context, productID int64, finalPrice, calculatedPrice float64) error
	GetVariantByKey(ctx context.Context, internalCode, description string) (*database.Variant, error)
	CreateVariant(ctx context.Context, productID int64, internalCode, description, barcode string) (*database.Variant, error)
	UpdateVariantBarcode(ctx context.Context, variantID int64, barcode string) error
}

// Resolution is the outcome of mapping one row onto the catalog
type Resolution struct {
	Product *database.Product
	Variant *database.Variant

	ProductCreated bool
	VariantCreated bool
	PriceChanged   bool
	BarcodeChanged bool
}

// Action names the ledger action for this resolution
func (r *Resolution) Action() string {
	if r.VariantCreated {
		return database.ActionCreated
	}
	return database.ActionUpdated
}

// Resolver maps normalized rows onto products and variants
type Resolver struct {
	store CatalogStore
}

// NewResolver creates a resolver over the given store
func NewResolver(store CatalogStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve finds or creates the product and variant a row refers to and
// pushes the row's prices onto the product. Variant identity is
// (internal code, description); the variant id it gets on first sight is
// the key the remote catalog knows it by, so an existing variant is never
// re-created, only touched up. Prices are last-write-wins: within one
// file, later rows for the same product overwrite earlier ones.
func (r *Resolver) Resolve(ctx context.Context, row *types.NormalizedRow, calculatedPrice float64) (*Resolution, error) {
	res := &Resolution{}

	product, err := r.store.GetProductByCode(ctx, row.InternalCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %s: %w", row.InternalCode, err)
	}
	if product == nil {
		product, err = r.store.CreateProduct(ctx, row.InternalCode)
		if err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", row.InternalCode, err)
		}
		res.ProductCreated = true
	}
	res.PriceChanged = res.ProductCreated || product.FinalPrice != row.FinalPrice

	if err := r.store.UpdateProductPrice(ctx, product.ID, row.FinalPrice, calculatedPrice); err != nil {
		return nil, fmt.Errorf("failed to update price for product %s: %w", row.InternalCode, err)
	}
	product.FinalPrice = row.FinalPrice
	product.CalculatedPrice = calculatedPrice
	res.Product = product

	variant, err := r.store.GetVariantByKey(ctx, row.InternalCode, row.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to look up variant %s/%s: %w", row.InternalCode, row.Description, err)
	}
	if variant == nil {
		variant, err = r.store.CreateVariant(ctx, product.ID, row.InternalCode, row.Description, row.Barcode)
		if err != nil {
			return nil, fmt.Errorf("failed to create variant %s/%s: %w", row.InternalCode, row.Description, err)
		}
		res.VariantCreated = true
	} else if row.Barcode != "" && variant.Barcode != row.Barcode {
		if err := r.store.UpdateVariantBarcode(ctx, variant.ID, row.Barcode); err != nil {
			return nil, fmt.Errorf("failed to update barcode for variant %d: %w", variant.ID, err)
		}
		variant.Barcode = row.Barcode
		res.BarcodeChanged = true
	}
	res.Variant = variant

	return res, nil
}
