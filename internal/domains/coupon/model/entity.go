package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon discount types
const (
	TypeAmount  = "amount"  // flat amount off the subtotal
	TypePercent = "percent" // percentage of the subtotal, optionally capped
)

// Coupon statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Coupon represents a customer-entered discount code in the database
type Coupon struct {
	ID    uuid.UUID       `json:"id" db:"id"`
	Code  string          `json:"code" db:"code"`
	Name  string          `json:"name" db:"name"`
	Type  string          `json:"type" db:"type"`
	Value decimal.Decimal `json:"value" db:"value"`

	// Applicability rules
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty" db:"min_order_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty" db:"max_discount"`

	// Usage limits
	UsageLimit *int `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount  int  `json:"used_count" db:"used_count"`

	// Validity period
	ValidFrom time.Time `json:"valid_from" db:"valid_from"`
	ValidTo   time.Time `json:"valid_to" db:"valid_to"`

	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsWithinWindow reports whether the coupon validity window covers now
func (c *Coupon) IsWithinWindow(now time.Time) bool {
	return !now.Before(c.ValidFrom) && now.Before(c.ValidTo)
}

// HasUsesLeft reports whether the coupon is under its global usage limit
func (c *Coupon) HasUsesLeft() bool {
	return c.UsageLimit == nil || c.UsedCount < *c.UsageLimit
}
