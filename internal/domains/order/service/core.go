package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	addressRepo "storefront-backend/internal/domains/address/repository"
	cartRepo "storefront-backend/internal/domains/cart/repository"
	catalogRepo "storefront-backend/internal/domains/catalog/repository"
	couponModel "storefront-backend/internal/domains/coupon/model"
	couponRepo "storefront-backend/internal/domains/coupon/repository"
	couponService "storefront-backend/internal/domains/coupon/service"
	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/repository"
	paymentRepo "storefront-backend/internal/domains/payment/repository"
	"storefront-backend/internal/domains/pricing"
	"storefront-backend/internal/domains/stock"
	stockModel "storefront-backend/internal/domains/stock/model"
	stockRepo "storefront-backend/internal/domains/stock/repository"
	"storefront-backend/internal/shared"
	"storefront-backend/pkg/logger"
)

// =====================================================
// SHARED LIFECYCLE CORE
// =====================================================
// core carries the channel-independent half of the order lifecycle:
// line processing, financial calculation, history recording, the
// return flow and the query operations. The online and point-of-sale
// services embed it and plug in their stock policy.
type core struct {
	orderRepo   repository.OrderRepository
	variantRepo catalogRepo.VariantRepository
	ledger      stockRepo.Ledger
	couponRepo  couponRepo.CouponRepository
	cartRepo    cartRepo.CartRepository
	paymentRepo paymentRepo.PaymentMethodRepository
	addressRepo addressRepo.AddressRepository
	asynqClient *asynq.Client

	onlinePolicy stock.Policy
	posPolicy    stock.Policy

	defaultShippingFee decimal.Decimal
	maxOpenPosDrafts   int
}

// policyFor selects the stock strategy for a sales channel
func (s *core) policyFor(channelType string) stock.Policy {
	switch channelType {
	case model.ChannelPosInstore, model.ChannelPosDelivery:
		return s.posPolicy
	default:
		return s.onlinePolicy
	}
}

// mergeItems collapses duplicate variant IDs in a request, summing
// quantities, preserving first-seen order
func mergeItems(items []model.OrderItemRequest) []model.OrderItemRequest {
	merged := make([]model.OrderItemRequest, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if pos, ok := index[item.VariantID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.VariantID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// processLineItems turns the requested (variant, qty) pairs into priced
// OrderDetail snapshots on the order and accumulates the subtotal.
// When applyStock is set, each line also runs the channel's stock hook
// inside the given transaction, so an out-of-stock line aborts the
// whole order.
func (s *core) processLineItems(ctx context.Context, tx pgx.Tx, order *model.Order, items []model.OrderItemRequest, applyStock bool) error {
	items = mergeItems(items)
	now := time.Now()
	policy := s.policyFor(order.ChannelType)

	subtotal := decimal.Zero
	details := make([]model.OrderDetail, 0, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			return model.NewOrderError(model.ErrCodeInvalidRequest, "Quantity must be positive", model.ErrInvalidQuantity)
		}

		variant, err := s.variantRepo.GetByID(ctx, item.VariantID)
		if err != nil {
			return model.NewOrderError(model.ErrCodeVariantNotFound,
				fmt.Sprintf("Variant %s not found", item.VariantID), err)
		}
		if !variant.IsActive {
			return model.NewOrderError(model.ErrCodeVariantUnavailable,
				fmt.Sprintf("Variant %s is not available for sale", variant.SKU), nil)
		}

		if applyStock {
			ref := stockRepo.MovementRef{
				ReferenceType: stockModel.ReferenceOrder,
				ReferenceID:   &order.ID,
				ActorID:       order.StaffID,
			}
			if err := policy.ReserveOrDeduct(ctx, tx, item.VariantID, item.Quantity, ref); err != nil {
				return model.NewOrderError(model.ErrCodeInsufficientStock,
					fmt.Sprintf("Insufficient stock for variant %s", variant.SKU), err)
			}
		}

		charged, original, percent := pricing.EffectivePrice(variant, now)
		detail := model.OrderDetail{
			ID:              uuid.New(),
			OrderID:         order.ID,
			VariantID:       variant.ID,
			SKU:             variant.SKU,
			ProductName:     variant.ProductName,
			Size:            variant.Size,
			Color:           variant.Color,
			Material:        variant.Material,
			ImageURL:        variant.ImageURL,
			Price:           charged,
			OriginalPrice:   original,
			DiscountPercent: percent,
			Quantity:        item.Quantity,
			CreatedAt:       now,
		}
		subtotal = subtotal.Add(detail.LineSubtotal())
		details = append(details, detail)
	}

	order.Subtotal = subtotal
	order.Details = details
	return nil
}

// calculateFinancials applies the optional coupon to the order's
// subtotal and recomputes the total. Returns the coupon so the caller
// can redeem its usage once the order is persisted.
func (s *core) calculateFinancials(ctx context.Context, order *model.Order, couponCode *string) (*couponModel.Coupon, error) {
	order.CouponCode = nil
	order.DiscountAmount = decimal.Zero

	var coupon *couponModel.Coupon
	if couponCode != nil && *couponCode != "" {
		var err error
		coupon, err = s.couponRepo.GetByCode(ctx, *couponCode)
		if err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid,
				fmt.Sprintf("Coupon %s not found", *couponCode), err)
		}
		if err := couponService.Validate(coupon, order.Subtotal, time.Now()); err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid,
				fmt.Sprintf("Coupon %s cannot be applied", coupon.Code), err)
		}
		discount, err := couponService.ComputeDiscount(coupon, order.Subtotal)
		if err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid,
				fmt.Sprintf("Coupon %s cannot be applied", coupon.Code), err)
		}
		order.CouponCode = &coupon.Code
		order.DiscountAmount = discount
	}

	order.CalculateTotal()
	return coupon, nil
}

// recordTransition appends a history row for a transition the caller
// has already applied on the order struct
func (s *core) recordTransition(ctx context.Context, tx pgx.Tx, order *model.Order, oldStatus, oldPaymentStatus *string, actorID *uuid.UUID, note *string) error {
	history := &model.OrderHistory{
		ID:               uuid.New(),
		OrderID:          order.ID,
		OldStatus:        oldStatus,
		NewStatus:        order.Status,
		OldPaymentStatus: oldPaymentStatus,
		NewPaymentStatus: order.PaymentStatus,
		ActorID:          actorID,
		Note:             note,
		CreatedAt:        time.Now(),
	}
	return s.orderRepo.CreateHistoryWithTx(ctx, tx, history)
}

// enqueueStockSync schedules the post-commit cache refresh for every
// variant whose stock counters just moved
func (s *core) enqueueStockSync(details []model.OrderDetail, source string) {
	if s.asynqClient == nil {
		return
	}
	for _, detail := range details {
		payload := shared.StockSyncPayload{
			VariantID: detail.VariantID.String(),
			Source:    source,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		task := asynq.NewTask(shared.TypeStockSyncVariant, b)
		if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueStock)); err != nil {
			logger.Error("failed to enqueue stock sync task", err)
		}
	}
}

// =====================================================
// RETURN FLOW
// =====================================================

// RequestReturn implements OrderService.RequestReturn
func (s *core) RequestReturn(ctx context.Context, orderID, userID uuid.UUID, reason *string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	if !order.IsOwnedBy(userID) {
		return nil, model.NewOrderError(model.ErrCodeAccessDenied, "Order does not belong to this customer", model.ErrAccessDenied)
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Only completed orders can be returned", model.ErrInvalidStatus)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	oldStatus := order.Status
	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, oldStatus, model.OrderStatusReturned); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusReturned

	if err := s.recordTransition(ctx, tx, order, &oldStatus, &order.PaymentStatus, &userID, reason); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// ApproveReturn implements OrderService.ApproveReturn
func (s *core) ApproveReturn(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderWithDetails(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	if order.Status != model.OrderStatusReturned {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Only returned orders can be approved", model.ErrInvalidStatus)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	// Returned goods go back on the shelf
	for _, detail := range order.Details {
		ref := stockRepo.MovementRef{
			ReferenceType: stockModel.ReferenceOrder,
			ReferenceID:   &order.ID,
			ActorID:       &actorID,
		}
		if err := s.ledger.ReleaseWithTx(ctx, tx, detail.VariantID, detail.Quantity, ref); err != nil {
			return nil, fmt.Errorf("failed to release stock: %w", err)
		}
	}

	oldPaymentStatus := order.PaymentStatus
	if order.PaymentStatus == model.PaymentStatusPaid {
		if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, order.ID, model.PaymentStatusRefunded, nil); err != nil {
			return nil, err
		}
		order.PaymentStatus = model.PaymentStatusRefunded
	}

	note := "return approved"
	if err := s.recordTransition(ctx, tx, order, &order.Status, &oldPaymentStatus, &actorID, &note); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueStockSync(order.Details, "RETURN_APPROVED")
	return order, nil
}

// =====================================================
// QUERY OPERATIONS
// =====================================================

// GetOrder implements OrderService.GetOrder
func (s *core) GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderWithDetails(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	return order, nil
}

// GetMyOrder implements OrderService.GetMyOrder
func (s *core) GetMyOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(userID) {
		return nil, model.NewOrderError(model.ErrCodeAccessDenied, "Order does not belong to this customer", model.ErrAccessDenied)
	}
	return order, nil
}

// ListOrders implements OrderService.ListOrders
func (s *core) ListOrders(ctx context.Context, filter *model.ListOrdersRequest) ([]model.Order, int, error) {
	filter.Normalize()
	return s.orderRepo.ListOrders(ctx, filter)
}

// ListMyOrders implements OrderService.ListMyOrders
func (s *core) ListMyOrders(ctx context.Context, userID uuid.UUID, filter *model.ListOrdersRequest) ([]model.Order, int, error) {
	filter.UserID = &userID
	// Staff filter is an admin concern, never honored on the
	// customer-facing listing
	filter.StaffID = nil
	filter.Normalize()
	return s.orderRepo.ListOrders(ctx, filter)
}

// GetOrderHistory implements OrderService.GetOrderHistory
func (s *core) GetOrderHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	if _, err := s.orderRepo.GetOrderByID(ctx, orderID); err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	return s.orderRepo.GetHistoryByOrderID(ctx, orderID)
}

// =====================================================
// ADMINISTRATIVE UPDATES
// =====================================================

// UpdatePaymentStatus implements OrderService.UpdatePaymentStatus
func (s *core) UpdatePaymentStatus(ctx context.Context, orderID, actorID uuid.UUID, paymentStatus string) (*model.Order, error) {
	switch paymentStatus {
	case model.PaymentStatusUnpaid, model.PaymentStatusPaid, model.PaymentStatusRefunded:
	default:
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown payment status %q", paymentStatus), nil)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	var paidAt *time.Time
	if paymentStatus == model.PaymentStatusPaid {
		now := time.Now()
		paidAt = &now
	}

	oldPaymentStatus := order.PaymentStatus
	if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, order.ID, paymentStatus, paidAt); err != nil {
		return nil, err
	}
	order.PaymentStatus = paymentStatus
	if paidAt != nil {
		order.PaidAt = paidAt
	}

	if err := s.recordTransition(ctx, tx, order, &order.Status, &oldPaymentStatus, &actorID, nil); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// UpdateShippingInfo implements OrderService.UpdateShippingInfo
func (s *core) UpdateShippingInfo(ctx context.Context, orderID, actorID uuid.UUID, req model.UpdateShippingInfoRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Invalid request", err)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	// Shipping details freeze once the parcel is on its way
	switch order.Status {
	case model.OrderStatusPending, model.OrderStatusConfirmed:
	default:
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Shipping info can only change before shipping starts", model.ErrInvalidStatus)
	}

	var fee *decimal.Decimal
	if req.ShippingFee != nil {
		parsed, err := decimal.NewFromString(*req.ShippingFee)
		if err != nil || parsed.IsNegative() {
			return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Invalid shipping fee", err)
		}
		fee = &parsed
	}

	if err := s.orderRepo.UpdateShippingInfo(ctx, orderID, req.ShippingCarrier, fee, req.EstimatedDeliveryAt); err != nil {
		return nil, err
	}

	return s.orderRepo.GetOrderByID(ctx, orderID)
}
