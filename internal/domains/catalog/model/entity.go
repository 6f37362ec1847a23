package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant represents a sellable variant of a product in the database.
// Quantity is the physical on-hand count; AvailableQuantity is the portion
// not held by open reservations. The two counters move independently:
// reservations touch AvailableQuantity only, fulfilment touches Quantity.
type ProductVariant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	SKU       string    `json:"sku" db:"sku"`

	// Display attributes snapshotted onto order lines
	ProductName string  `json:"product_name" db:"product_name"`
	Size        *string `json:"size,omitempty" db:"size"`
	Color       *string `json:"color,omitempty" db:"color"`
	Material    *string `json:"material,omitempty" db:"material"`
	ImageURL    *string `json:"image_url,omitempty" db:"image_url"`

	// Pricing
	Price     decimal.Decimal  `json:"price" db:"price"`
	CostPrice decimal.Decimal  `json:"cost_price" db:"cost_price"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty" db:"sale_price"`

	// Stock counters
	Quantity          int `json:"quantity" db:"quantity"`
	AvailableQuantity int `json:"available_quantity" db:"available_quantity"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Sales linked to this variant, loaded by the repository
	Sales []Sale `json:"sales,omitempty" db:"-"`
}

// Sale represents a time-boxed percentage discount campaign
type Sale struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty" db:"discount_percent"`
	StartDate       *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate         *time.Time       `json:"end_date,omitempty" db:"end_date"`
	IsActive        bool             `json:"is_active" db:"is_active"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// IsRunningAt reports whether the sale window covers the given instant.
// The window is inclusive at the start and exclusive at the end; a nil
// boundary means unbounded on that side.
func (s *Sale) IsRunningAt(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && !now.Before(*s.EndDate) {
		return false
	}
	return true
}

// HasDiscount reports whether the sale carries a usable discount percentage
func (s *Sale) HasDiscount() bool {
	return s.DiscountPercent != nil && s.DiscountPercent.GreaterThan(decimal.Zero)
}
