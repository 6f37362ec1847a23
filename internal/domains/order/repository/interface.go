package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
type OrderRepository interface {
	// Transaction management
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// Order operations
	CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*model.Order, error)
	GetOrderWithDetails(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// UpdateOrderStatusWithTx moves the order status, guarded by the
	// expected current status so concurrent transitions lose cleanly.
	// Returns model.ErrInvalidStatus when the guard fails on an
	// existing order.
	UpdateOrderStatusWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, fromStatus, toStatus string) error

	// UpdatePaymentStatusWithTx sets the payment status and optionally
	// the settlement instant
	UpdatePaymentStatusWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, paymentStatus string, paidAt *time.Time) error

	// UpdateFinancialsWithTx rewrites the money fields and coupon
	// reference after a draft recalculation
	UpdateFinancialsWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, subtotal, discount, total decimal.Decimal, couponCode *string) error

	// UpdatePosCompletionWithTx attaches the settlement fields written
	// when a point-of-sale draft is completed
	UpdatePosCompletionWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, customerName, customerPhone *string, paymentMethodID *uuid.UUID, paymentMethodName *string) error

	// UpdateShippingInfo rewrites carrier, fee and delivery estimate
	UpdateShippingInfo(ctx context.Context, orderID uuid.UUID, carrier *string, fee *decimal.Decimal, estimatedDeliveryAt *time.Time) error

	// Order detail operations
	CreateOrderDetailsWithTx(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error
	GetOrderDetailsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderDetail, error)
	// ReplaceOrderDetailsWithTx swaps the full line set of an editable
	// draft in one transaction
	ReplaceOrderDetailsWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, details []model.OrderDetail) error

	// List operations
	ListOrders(ctx context.Context, filter *model.ListOrdersRequest) ([]model.Order, int, error)
	// CountOpenPosDrafts counts PENDING point-of-sale orders store-wide
	CountOpenPosDrafts(ctx context.Context) (int, error)
	// ListStalePosDrafts returns PENDING point-of-sale drafts older
	// than the cutoff, oldest first
	ListStalePosDrafts(ctx context.Context, cutoff time.Time) ([]model.Order, error)

	// Order history
	CreateHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderHistory) error
	GetHistoryByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error)
}
