package model

import "errors"

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotStarted  = errors.New("coupon is not yet valid")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrCouponMinOrder    = errors.New("order subtotal is below the coupon minimum")
	ErrInvalidCouponType = errors.New("invalid coupon type")
)
