package model

import "errors"

var (
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrVariantInactive   = errors.New("product variant is not active")
	ErrVariantOutOfStock = errors.New("product variant is out of stock")
)
