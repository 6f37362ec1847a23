package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound        = "ORD001"
	ErrCodeInvalidStatus        = "ORD002"
	ErrCodeInvalidRequest       = "ORD003"
	ErrCodeAccessDenied         = "ORD004"
	ErrCodeInsufficientStock    = "ORD005"
	ErrCodeCouponInvalid        = "ORD006"
	ErrCodeVariantUnavailable   = "ORD007"
	ErrCodeDraftLimitReached    = "ORD008"
	ErrCodeDraftCancelled       = "ORD009"
	ErrCodeEmptyOrder           = "ORD010"
	ErrCodeCustomerNameRequired = "ORD011"
	ErrCodeVariantNotFound      = "ORD012"
	ErrCodeInvalidPaymentMethod = "ORD013"
	ErrCodeInvalidAddress       = "ORD014"
	ErrCodeCartEmpty            = "ORD015"
	ErrCodeCodeCollision        = "ORD016"
	ErrCodeLineItemNotFound     = "ORD017"
	ErrCodeNotPosOrder          = "ORD018"
	ErrCodePosNotSupported      = "ORD019"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("operation is not allowed in the current order status")
	ErrAccessDenied         = errors.New("order does not belong to this customer")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrCouponInvalid        = errors.New("invalid coupon code")
	ErrVariantUnavailable   = errors.New("product variant is not available for sale")
	ErrDraftLimitReached    = errors.New("maximum number of open point-of-sale drafts reached")
	ErrDraftCancelled       = errors.New("draft was cancelled because its last item was removed")
	ErrEmptyOrder           = errors.New("order has no line items")
	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrInvalidQuantity      = errors.New("quantity must not be negative")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCodeCollision        = errors.New("order code already exists")
	ErrLineItemNotFound     = errors.New("line item not found in order")
	ErrNotPosOrder          = errors.New("order is not a point-of-sale order")
	ErrPosNotSupported      = errors.New("operation is not supported for point-of-sale orders")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError
func NewOrderError(code, message string, err error) *OrderError {
	return &OrderError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
