package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/coupon/model"
)

// CouponRepository provides access to coupons
type CouponRepository interface {
	// GetByCode returns the coupon with the given code, case-insensitive.
	// Returns model.ErrCouponNotFound when no row matches.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// GetByID returns the coupon with the given ID
	GetByID(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error)

	// IncrementUsageWithTx bumps used_count by one, failing with
	// model.ErrCouponExhausted when the usage limit has been reached.
	// The conditional update makes the redemption atomic under
	// concurrent checkouts.
	IncrementUsageWithTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error
}
