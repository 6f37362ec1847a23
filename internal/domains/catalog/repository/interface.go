package repository

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/catalog/model"
)

// VariantRepository provides read access to product variants and their sales
type VariantRepository interface {
	// GetByID returns the variant with its linked sales loaded.
	// Returns model.ErrVariantNotFound when no row matches.
	GetByID(ctx context.Context, variantID uuid.UUID) (*model.ProductVariant, error)

	// GetByIDs returns the variants for the given IDs, sales loaded,
	// keyed by variant ID. Missing IDs are simply absent from the map.
	GetByIDs(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*model.ProductVariant, error)
}
