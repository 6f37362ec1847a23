package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrPaymentMethodInactive = errors.New("payment method is not active")
)

// Cash on delivery, settled automatically when the order completes
const CodeCOD = "cod"

// PaymentMethod is a way a customer can pay for an order
type PaymentMethod struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsCOD reports whether the method is cash on delivery
func (m *PaymentMethod) IsCOD() bool {
	return m.Code == CodeCOD
}
