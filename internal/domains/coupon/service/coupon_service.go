package service

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/coupon/model"
)

var oneHundred = decimal.NewFromInt(100)

// Validate checks whether the coupon can be applied to an order with the
// given subtotal at the given instant. Returns a model sentinel error
// describing the first failed rule, nil when the coupon applies.
func Validate(coupon *model.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if coupon.Status != model.StatusActive {
		return model.ErrCouponInactive
	}
	if now.Before(coupon.ValidFrom) {
		return model.ErrCouponNotStarted
	}
	if !now.Before(coupon.ValidTo) {
		return model.ErrCouponExpired
	}
	if !coupon.HasUsesLeft() {
		return model.ErrCouponExhausted
	}
	if coupon.MinOrderValue != nil && subtotal.LessThan(*coupon.MinOrderValue) {
		return model.ErrCouponMinOrder
	}
	return nil
}

// ComputeDiscount returns the discount the coupon grants on the given
// subtotal. Percent coupons are capped by MaxDiscount when set; every
// discount is additionally capped at the subtotal so the order total
// can never go negative from a coupon alone.
func ComputeDiscount(coupon *model.Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var discount decimal.Decimal

	switch coupon.Type {
	case model.TypeAmount:
		discount = coupon.Value

	case model.TypePercent:
		discount = subtotal.Mul(coupon.Value).Div(oneHundred).Round(2)
		if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
			discount = *coupon.MaxDiscount
		}

	default:
		return decimal.Zero, model.ErrInvalidCouponType
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return discount, nil
}
