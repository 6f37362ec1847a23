package model

import "errors"

var (
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)
