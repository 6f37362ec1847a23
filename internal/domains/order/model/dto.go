package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// CREATE ONLINE ORDER REQUEST
// =====================================================
// The order lines come from the customer's cart; the request only
// carries checkout choices.
type CreateOnlineOrderRequest struct {
	AddressID       uuid.UUID `json:"address_id" binding:"required"`
	PaymentMethodID uuid.UUID `json:"payment_method_id" binding:"required"`
	CouponCode      *string   `json:"coupon_code,omitempty"`
	ShippingCarrier *string   `json:"shipping_carrier,omitempty"`
	Note            *string   `json:"note,omitempty"`
}

// Validate validates CreateOnlineOrderRequest
func (req CreateOnlineOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.AddressID, validation.Required),
		validation.Field(&req.PaymentMethodID, validation.Required),
		validation.Field(&req.CouponCode, validation.Length(1, 50)),
		validation.Field(&req.ShippingCarrier, validation.Length(1, 100)),
	)
}

// =====================================================
// POS REQUESTS
// =====================================================
type OrderItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// Validate validates OrderItemRequest
func (req OrderItemRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.VariantID, validation.Required),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

// CreatePosDraftRequest opens an editable point-of-sale draft
type CreatePosDraftRequest struct {
	ChannelType   string             `json:"channel_type" binding:"required"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Items         []OrderItemRequest `json:"items"`
	CouponCode    *string            `json:"coupon_code,omitempty"`
	Note          *string            `json:"note,omitempty"`
}

// Validate validates CreatePosDraftRequest
func (req CreatePosDraftRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ChannelType, validation.Required, validation.In(
			ChannelPosInstore,
			ChannelPosDelivery,
		)),
		validation.Field(&req.CustomerName, validation.Length(0, 255)),
		validation.Field(&req.CustomerPhone, validation.Length(0, 20)),
		validation.Field(&req.CouponCode, validation.Length(1, 50)),
	)
}

// CreatePosOrderRequest creates and completes a point-of-sale order in
// one step, without the editable draft stage
type CreatePosOrderRequest struct {
	ChannelType     string             `json:"channel_type" binding:"required"`
	CustomerName    string             `json:"customer_name" binding:"required"`
	CustomerPhone   string             `json:"customer_phone"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1"`
	CouponCode      *string            `json:"coupon_code,omitempty"`
	PaymentMethodID *uuid.UUID         `json:"payment_method_id,omitempty"`
	Note            *string            `json:"note,omitempty"`
}

// Validate validates CreatePosOrderRequest
func (req CreatePosOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ChannelType, validation.Required, validation.In(
			ChannelPosInstore,
			ChannelPosDelivery,
		)),
		validation.Field(&req.CustomerName, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Items, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.CouponCode, validation.Length(1, 50)),
	)
}

// AddDraftItemRequest adds a variant to an open draft
type AddDraftItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// Validate validates AddDraftItemRequest
func (req AddDraftItemRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.VariantID, validation.Required),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

// UpdateDraftItemRequest sets the quantity of a draft line.
// Quantity zero removes the line.
type UpdateDraftItemRequest struct {
	Quantity int `json:"quantity"`
}

// Validate validates UpdateDraftItemRequest
func (req UpdateDraftItemRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Quantity, validation.Min(0)),
	)
}

// CompletePosOrderRequest settles an open draft
type CompletePosOrderRequest struct {
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"`
	CustomerName    *string    `json:"customer_name,omitempty"`
	CustomerPhone   *string    `json:"customer_phone,omitempty"`
}

// =====================================================
// LIFECYCLE REQUESTS
// =====================================================
type CancelOrderRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type ReturnOrderRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// Validate validates UpdatePaymentStatusRequest
func (req UpdatePaymentStatusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.PaymentStatus, validation.Required, validation.In(
			PaymentStatusUnpaid,
			PaymentStatusPaid,
			PaymentStatusRefunded,
		)),
	)
}

type UpdateShippingInfoRequest struct {
	ShippingCarrier     *string    `json:"shipping_carrier,omitempty"`
	ShippingFee         *string    `json:"shipping_fee,omitempty"`
	EstimatedDeliveryAt *time.Time `json:"estimated_delivery_at,omitempty"`
}

// Validate validates UpdateShippingInfoRequest
func (req UpdateShippingInfoRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ShippingCarrier, validation.Length(1, 100)),
	)
}

// =====================================================
// LIST ORDERS REQUEST
// =====================================================
type ListOrdersRequest struct {
	Code          string     `form:"code"`
	Status        string     `form:"status"`
	PaymentStatus string     `form:"payment_status"`
	ChannelType   string     `form:"channel_type"`
	UserID        *uuid.UUID `form:"user_id"`
	StaffID       *uuid.UUID `form:"staff_id"`
	DateFrom      *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo        *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page          int        `form:"page"`
	Limit         int        `form:"limit"`
}

// Normalize clamps paging parameters to sane values
func (req *ListOrdersRequest) Normalize() {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
}

// =====================================================
// REORDER RESPONSE
// =====================================================
// ReorderResult reports which lines of a previous order made it back
// into the cart
type ReorderResult struct {
	AddedVariantIDs   []uuid.UUID `json:"added_variant_ids"`
	SkippedVariantIDs []uuid.UUID `json:"skipped_variant_ids"`
}
