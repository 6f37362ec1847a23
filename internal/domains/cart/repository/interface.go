package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/cart/model"
)

// CartRepository provides access to customer carts
type CartRepository interface {
	// GetByUserID returns the user's cart, creating an empty one on
	// first access
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// GetItems returns the cart's lines, oldest first
	GetItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error)

	// ClearWithTx removes every line from the cart, used after checkout
	ClearWithTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error

	// AddItem upserts a line into the user's cart, merging quantities
	// when the variant is already present
	AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) error
}
