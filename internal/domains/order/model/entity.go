package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// SALES CHANNEL CONSTANTS
// =====================================================
const (
	ChannelOnline      = "online"
	ChannelPosInstore  = "pos_instore"
	ChannelPosDelivery = "pos_delivery"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipping  = "shipping"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusReturned  = "returned"
)

// =====================================================
// PAYMENT STATUS CONSTANTS
// =====================================================
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// AllowedTransitions maps each order status to the statuses it may move
// to through the standard lifecycle operations
var AllowedTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusCompleted},
	OrderStatusConfirmed: {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:  {OrderStatusCompleted},
	OrderStatusCompleted: {OrderStatusReturned},
	OrderStatusCancelled: {},
	OrderStatusReturned:  {},
}

// CanTransition reports whether the standard lifecycle allows moving
// from one status to another
func CanTransition(from, to string) bool {
	for _, allowed := range AllowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// =====================================================
// ENTITY: Order
// =====================================================
type Order struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	ChannelType string    `json:"channel_type"`

	// Nil for guest point-of-sale orders
	UserID *uuid.UUID `json:"user_id,omitempty"`
	// Staff member who created or operates the order, nil for
	// self-service online orders
	StaffID *uuid.UUID `json:"staff_id,omitempty"`

	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email,omitempty"`

	// Shipping snapshot, copied from the address at creation time so
	// later address edits never touch placed orders
	RecipientName       *string         `json:"recipient_name,omitempty"`
	AddressLine         *string         `json:"address_line,omitempty"`
	ProvinceCode        *string         `json:"province_code,omitempty"`
	ProvinceName        *string         `json:"province_name,omitempty"`
	DistrictCode        *string         `json:"district_code,omitempty"`
	DistrictName        *string         `json:"district_name,omitempty"`
	WardCode            *string         `json:"ward_code,omitempty"`
	WardName            *string         `json:"ward_name,omitempty"`
	ShippingCarrier     *string         `json:"shipping_carrier,omitempty"`
	ShippingFee         decimal.Decimal `json:"shipping_fee"`
	EstimatedDeliveryAt *time.Time      `json:"estimated_delivery_at,omitempty"`

	PaymentMethodID   *uuid.UUID `json:"payment_method_id,omitempty"`
	PaymentMethodName *string    `json:"payment_method_name,omitempty"`
	PaymentStatus     string     `json:"payment_status"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`

	CouponCode     *string         `json:"coupon_code,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`

	Status    string    `json:"status"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Details []OrderDetail `json:"details,omitempty"`
}

// IsPos reports whether the order belongs to a point-of-sale channel
func (o *Order) IsPos() bool {
	return o.ChannelType == ChannelPosInstore || o.ChannelType == ChannelPosDelivery
}

// IsOwnedBy reports whether the order belongs to the given customer.
// Guest orders have no owner.
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// CanBeCancelled checks whether the order is still in a cancellable
// state. Once fulfilment starts the order has to flow through the
// return path instead.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusReturned, OrderStatusShipping:
		return false
	}
	return true
}

// CalculateTotal recomputes Total from the financial fields, clamping
// at zero
func (o *Order) CalculateTotal() {
	total := o.Subtotal.Add(o.ShippingFee).Sub(o.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.Total = total
}

// =====================================================
// ENTITY: OrderDetail
// =====================================================
type OrderDetail struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`

	// Variant snapshot taken when the line was priced
	VariantID   uuid.UUID `json:"variant_id"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"product_name"`
	Size        *string   `json:"size,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Material    *string   `json:"material,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`

	// Price is the charged unit price after any sale; OriginalPrice is
	// the list price at snapshot time
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
}

// LineSubtotal returns charged price times quantity
func (d *OrderDetail) LineSubtotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// =====================================================
// ENTITY: OrderHistory
// =====================================================
// OrderHistory is an append-only record of a lifecycle transition.
// Rows are never updated or deleted.
type OrderHistory struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"order_id"`
	OldStatus        *string    `json:"old_status,omitempty"`
	NewStatus        string     `json:"new_status"`
	OldPaymentStatus *string    `json:"old_payment_status,omitempty"`
	NewPaymentStatus string     `json:"new_payment_status"`
	ActorID          *uuid.UUID `json:"actor_id,omitempty"`
	Note             *string    `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
