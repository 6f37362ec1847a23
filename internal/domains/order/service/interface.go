package service

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/order/model"
)

// =====================================================
// ONLINE ORDER SERVICE INTERFACE
// =====================================================
// OrderService carries the online channel lifecycle plus the query and
// administrative operations shared by both channels.
type OrderService interface {
	// CreateOnlineOrder checks out the customer's cart: reserves stock
	// per line, prices lines with current sales, applies the coupon,
	// snapshots the shipping address and clears the cart, all in one
	// transaction
	CreateOnlineOrder(ctx context.Context, userID uuid.UUID, req model.CreateOnlineOrderRequest) (*model.Order, error)

	// Lifecycle transitions, staff-operated
	ConfirmOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error)
	ShipOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error)
	CompleteOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, reason *string) (*model.Order, error)

	// ReceiveOrder is the customer-side confirmation of delivery, owner
	// only, delegates to the completion flow
	ReceiveOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)

	// Reorder puts the lines of a previous order back into the owner's
	// cart, skipping lines that can no longer be added
	Reorder(ctx context.Context, orderID, userID uuid.UUID) (*model.ReorderResult, error)

	// Return flow
	RequestReturn(ctx context.Context, orderID, userID uuid.UUID, reason *string) (*model.Order, error)
	ApproveReturn(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error)

	// Queries
	GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetMyOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter *model.ListOrdersRequest) ([]model.Order, int, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, filter *model.ListOrdersRequest) ([]model.Order, int, error)
	GetOrderHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error)

	// Administrative updates
	UpdatePaymentStatus(ctx context.Context, orderID, actorID uuid.UUID, paymentStatus string) (*model.Order, error)
	UpdateShippingInfo(ctx context.Context, orderID, actorID uuid.UUID, req model.UpdateShippingInfoRequest) (*model.Order, error)
}

// =====================================================
// POS ORDER SERVICE INTERFACE
// =====================================================
// PosOrderService carries the point-of-sale draft flow. Drafts price
// their lines at edit time but touch no stock until completion.
type PosOrderService interface {
	// CreateDraft opens an editable draft, bounded by the store-wide
	// open-draft limit
	CreateDraft(ctx context.Context, staffID uuid.UUID, req model.CreatePosDraftRequest) (*model.Order, error)

	// CreatePosOrder is the instant checkout path: deducts stock and
	// completes the order in a single call
	CreatePosOrder(ctx context.Context, staffID uuid.UUID, req model.CreatePosOrderRequest) (*model.Order, error)

	// Draft line editing. Every mutation reprices the draft; removing
	// the last line cancels the draft and reports model.ErrDraftCancelled.
	AddDraftItem(ctx context.Context, orderID, staffID uuid.UUID, req model.AddDraftItemRequest) (*model.Order, error)
	UpdateDraftItem(ctx context.Context, orderID, staffID, variantID uuid.UUID, quantity int) (*model.Order, error)
	RemoveDraftItem(ctx context.Context, orderID, staffID, variantID uuid.UUID) (*model.Order, error)

	// CompletePosOrder settles the draft: deducts stock per line,
	// redeems the coupon and marks the order completed and paid
	CompletePosOrder(ctx context.Context, orderID, staffID uuid.UUID, req model.CompletePosOrderRequest) (*model.Order, error)

	// CancelDraft abandons an open draft, no stock to undo
	CancelDraft(ctx context.Context, orderID, staffID uuid.UUID, reason *string) (*model.Order, error)
}
