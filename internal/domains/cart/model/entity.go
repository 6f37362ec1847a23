package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartEmpty    = errors.New("cart is empty")
)

// Cart is a customer's shopping cart
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is a single variant line inside a cart
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"cart_id" db:"cart_id"`
	VariantID uuid.UUID `json:"variant_id" db:"variant_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
