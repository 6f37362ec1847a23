package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	couponService "storefront-backend/internal/domains/coupon/service"
	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/pricing"
	stockModel "storefront-backend/internal/domains/stock/model"
	stockRepo "storefront-backend/internal/domains/stock/repository"
	"storefront-backend/pkg/logger"
)

// =====================================================
// POS ORDER SERVICE IMPLEMENTATION
// =====================================================
type posOrderService struct {
	*core
}

// NewPosOrderService creates the point-of-sale order service.
// It reuses the lifecycle core of an existing online service so both
// channels share one wiring of repositories and policies.
func NewPosOrderService(svc OrderService) PosOrderService {
	online, ok := svc.(*onlineOrderService)
	if !ok {
		panic("NewPosOrderService requires the service built by NewOrderService")
	}
	return &posOrderService{core: online.core}
}

// CreateDraft implements PosOrderService.CreateDraft
func (s *posOrderService) CreateDraft(ctx context.Context, staffID uuid.UUID, req model.CreatePosDraftRequest) (*model.Order, error) {
	// Step 1: Validate request shape
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Invalid request", err)
	}

	// Step 2: Store-wide open-draft limit. The count is advisory under
	// concurrency, the limit is a workflow policy rather than an
	// integrity constraint.
	open, err := s.orderRepo.CountOpenPosDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count open drafts: %w", err)
	}
	if open >= s.maxOpenPosDrafts {
		return nil, model.NewOrderError(model.ErrCodeDraftLimitReached,
			fmt.Sprintf("At most %d open drafts are allowed", s.maxOpenPosDrafts), model.ErrDraftLimitReached)
	}

	// Step 3: Build the draft shell
	now := time.Now()
	order := &model.Order{
		ID:            uuid.New(),
		Code:          model.GenerateOrderCode(now),
		ChannelType:   req.ChannelType,
		StaffID:       &staffID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ShippingFee:   decimal.Zero,
		PaymentStatus: model.PaymentStatusUnpaid,
		Status:        model.OrderStatusPending,
		Note:          req.Note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Step 4: Transaction. Lines are priced now but no stock moves
	// until the draft is completed.
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	if err := s.processLineItems(ctx, tx, order, req.Items, false); err != nil {
		return nil, err
	}

	if _, err := s.calculateFinancials(ctx, order, req.CouponCode); err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateOrderWithTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderDetailsWithTx(ctx, tx, order.Details); err != nil {
		return nil, err
	}

	if err := s.recordTransition(ctx, tx, order, nil, nil, &staffID, nil); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// CreatePosOrder implements PosOrderService.CreatePosOrder.
// Instant checkout kept for the counter flow that never needs an
// editable draft: deducts stock and settles in one call.
func (s *posOrderService) CreatePosOrder(ctx context.Context, staffID uuid.UUID, req model.CreatePosOrderRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Invalid request", err)
	}

	var methodID *uuid.UUID
	var methodName *string
	if req.PaymentMethodID != nil {
		method, err := s.paymentRepo.GetByID(ctx, *req.PaymentMethodID)
		if err != nil {
			return nil, model.NewOrderError(model.ErrCodeInvalidPaymentMethod, "Invalid payment method", err)
		}
		methodID = &method.ID
		methodName = &method.Name
	}

	now := time.Now()
	order := &model.Order{
		ID:                uuid.New(),
		Code:              model.GenerateOrderCode(now),
		ChannelType:       req.ChannelType,
		StaffID:           &staffID,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		ShippingFee:       decimal.Zero,
		PaymentMethodID:   methodID,
		PaymentMethodName: methodName,
		PaymentStatus:     model.PaymentStatusUnpaid,
		Status:            model.OrderStatusPending,
		Note:              req.Note,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	// applyStock deducts on-hand stock per line through the POS policy
	if err := s.processLineItems(ctx, tx, order, req.Items, true); err != nil {
		return nil, err
	}

	coupon, err := s.calculateFinancials(ctx, order, req.CouponCode)
	if err != nil {
		return nil, err
	}

	paidAt := now
	order.Status = model.OrderStatusCompleted
	order.PaymentStatus = model.PaymentStatusPaid
	order.PaidAt = &paidAt

	if err := s.orderRepo.CreateOrderWithTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderDetailsWithTx(ctx, tx, order.Details); err != nil {
		return nil, err
	}

	if coupon != nil {
		if err := s.couponRepo.IncrementUsageWithTx(ctx, tx, coupon.ID); err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid, "Coupon could not be redeemed", err)
		}
	}

	if err := s.recordTransition(ctx, tx, order, nil, nil, &staffID, nil); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueStockSync(order.Details, "POS_SALE")

	logger.Info("pos order created", map[string]interface{}{
		"order_id": order.ID.String(),
		"code":     order.Code,
		"total":    order.Total.String(),
	})

	return order, nil
}

// =====================================================
// DRAFT LINE EDITING
// =====================================================

// requireOpenDraft loads the order and checks it is an editable
// point-of-sale draft
func (s *posOrderService) requireOpenDraft(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderWithDetails(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	if !order.IsPos() {
		return nil, model.NewOrderError(model.ErrCodeNotPosOrder,
			"Order is not a point-of-sale order", model.ErrNotPosOrder)
	}
	if order.Status != model.OrderStatusPending {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Draft is no longer editable", model.ErrInvalidStatus)
	}
	return order, nil
}

// repriceLine builds a fresh detail snapshot for a variant at current
// prices
func (s *posOrderService) repriceLine(ctx context.Context, orderID, variantID uuid.UUID, quantity int) (*model.OrderDetail, error) {
	variant, err := s.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeVariantNotFound,
			fmt.Sprintf("Variant %s not found", variantID), err)
	}
	if !variant.IsActive {
		return nil, model.NewOrderError(model.ErrCodeVariantUnavailable,
			fmt.Sprintf("Variant %s is not available for sale", variant.SKU), nil)
	}

	now := time.Now()
	charged, original, percent := pricing.EffectivePrice(variant, now)
	return &model.OrderDetail{
		ID:              uuid.New(),
		OrderID:         orderID,
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
		Quantity:        quantity,
		CreatedAt:       now,
	}, nil
}

// recalculateDraftFinancials recomputes subtotal from the current
// lines and re-validates the attached coupon. A coupon that no longer
// qualifies is dropped without error so the cashier can keep editing.
func (s *posOrderService) recalculateDraftFinancials(ctx context.Context, order *model.Order) {
	subtotal := decimal.Zero
	for i := range order.Details {
		subtotal = subtotal.Add(order.Details[i].LineSubtotal())
	}
	order.Subtotal = subtotal
	order.DiscountAmount = decimal.Zero

	if order.CouponCode != nil {
		coupon, err := s.couponRepo.GetByCode(ctx, *order.CouponCode)
		if err == nil {
			if couponService.Validate(coupon, subtotal, time.Now()) == nil {
				if discount, err := couponService.ComputeDiscount(coupon, subtotal); err == nil {
					order.DiscountAmount = discount
					order.CalculateTotal()
					return
				}
			}
		}
		logger.Info("coupon dropped from draft after recalculation", map[string]interface{}{
			"order_id": order.ID.String(),
			"coupon":   *order.CouponCode,
		})
		order.CouponCode = nil
	}

	order.CalculateTotal()
}

// persistDraftLines writes the draft's current lines and money fields
// in one transaction
func (s *posOrderService) persistDraftLines(ctx context.Context, order *model.Order) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	if err := s.orderRepo.ReplaceOrderDetailsWithTx(ctx, tx, order.ID, order.Details); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateFinancialsWithTx(ctx, tx, order.ID,
		order.Subtotal, order.DiscountAmount, order.Total, order.CouponCode); err != nil {
		return err
	}

	return s.orderRepo.CommitTx(ctx, tx)
}

// AddDraftItem implements PosOrderService.AddDraftItem
func (s *posOrderService) AddDraftItem(ctx context.Context, orderID, staffID uuid.UUID, req model.AddDraftItemRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Invalid request", err)
	}

	order, err := s.requireOpenDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range order.Details {
		if order.Details[i].VariantID == req.VariantID {
			order.Details[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		detail, err := s.repriceLine(ctx, order.ID, req.VariantID, req.Quantity)
		if err != nil {
			return nil, err
		}
		order.Details = append(order.Details, *detail)
	}

	s.recalculateDraftFinancials(ctx, order)
	if err := s.persistDraftLines(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateDraftItem implements PosOrderService.UpdateDraftItem
func (s *posOrderService) UpdateDraftItem(ctx context.Context, orderID, staffID, variantID uuid.UUID, quantity int) (*model.Order, error) {
	if quantity < 0 {
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Quantity must not be negative", model.ErrInvalidQuantity)
	}
	if quantity == 0 {
		return s.RemoveDraftItem(ctx, orderID, staffID, variantID)
	}

	order, err := s.requireOpenDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range order.Details {
		if order.Details[i].VariantID == variantID {
			order.Details[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, model.NewOrderError(model.ErrCodeLineItemNotFound,
			"Variant is not part of this draft", model.ErrLineItemNotFound)
	}

	s.recalculateDraftFinancials(ctx, order)
	if err := s.persistDraftLines(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// RemoveDraftItem implements PosOrderService.RemoveDraftItem
func (s *posOrderService) RemoveDraftItem(ctx context.Context, orderID, staffID, variantID uuid.UUID) (*model.Order, error) {
	order, err := s.requireOpenDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	remaining := order.Details[:0]
	found := false
	for _, detail := range order.Details {
		if detail.VariantID == variantID {
			found = true
			continue
		}
		remaining = append(remaining, detail)
	}
	if !found {
		return nil, model.NewOrderError(model.ErrCodeLineItemNotFound,
			"Variant is not part of this draft", model.ErrLineItemNotFound)
	}
	order.Details = remaining

	// An empty draft has nothing left to sell, close it out
	if len(order.Details) == 0 {
		if _, err := s.cancelDraftOrder(ctx, order, &staffID, nil); err != nil {
			return nil, err
		}
		return nil, model.NewOrderError(model.ErrCodeDraftCancelled,
			"Draft was cancelled because its last item was removed", model.ErrDraftCancelled)
	}

	s.recalculateDraftFinancials(ctx, order)
	if err := s.persistDraftLines(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// =====================================================
// DRAFT SETTLEMENT
// =====================================================

// CompletePosOrder implements PosOrderService.CompletePosOrder
func (s *posOrderService) CompletePosOrder(ctx context.Context, orderID, staffID uuid.UUID, req model.CompletePosOrderRequest) (*model.Order, error) {
	order, err := s.requireOpenDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if len(order.Details) == 0 {
		return nil, model.NewOrderError(model.ErrCodeEmptyOrder,
			"Cannot complete an order with no items", model.ErrEmptyOrder)
	}

	customerName := order.CustomerName
	if req.CustomerName != nil {
		customerName = *req.CustomerName
	}
	if strings.TrimSpace(customerName) == "" {
		return nil, model.NewOrderError(model.ErrCodeCustomerNameRequired,
			"Customer name is required to complete the order", model.ErrCustomerNameRequired)
	}

	var methodID *uuid.UUID
	var methodName *string
	if req.PaymentMethodID != nil {
		method, err := s.paymentRepo.GetByID(ctx, *req.PaymentMethodID)
		if err != nil {
			return nil, model.NewOrderError(model.ErrCodeInvalidPaymentMethod, "Invalid payment method", err)
		}
		methodID = &method.ID
		methodName = &method.Name
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	// Stock leaves the shelf now, not at draft time. Any short line
	// aborts the settlement with the draft intact.
	if err := s.deductDraftStock(ctx, tx, order, staffID); err != nil {
		return nil, err
	}

	if order.CouponCode != nil {
		coupon, err := s.couponRepo.GetByCode(ctx, *order.CouponCode)
		if err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid, "Coupon attached to draft no longer exists", err)
		}
		if err := s.couponRepo.IncrementUsageWithTx(ctx, tx, coupon.ID); err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid, "Coupon could not be redeemed", err)
		}
	}

	oldStatus := order.Status
	oldPaymentStatus := order.PaymentStatus
	now := time.Now()

	if err := s.orderRepo.UpdatePosCompletionWithTx(ctx, tx, order.ID,
		req.CustomerName, req.CustomerPhone, methodID, methodName); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, oldStatus, model.OrderStatusCompleted); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, order.ID, model.PaymentStatusPaid, &now); err != nil {
		return nil, err
	}

	order.CustomerName = customerName
	if req.CustomerPhone != nil {
		order.CustomerPhone = *req.CustomerPhone
	}
	if methodID != nil {
		order.PaymentMethodID = methodID
		order.PaymentMethodName = methodName
	}
	order.Status = model.OrderStatusCompleted
	order.PaymentStatus = model.PaymentStatusPaid
	order.PaidAt = &now

	if err := s.recordTransition(ctx, tx, order, &oldStatus, &oldPaymentStatus, &staffID, nil); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueStockSync(order.Details, "POS_SALE")
	return order, nil
}

func (s *posOrderService) deductDraftStock(ctx context.Context, tx pgx.Tx, order *model.Order, staffID uuid.UUID) error {
	policy := s.policyFor(order.ChannelType)
	for _, detail := range order.Details {
		ref := stockRepo.MovementRef{
			ReferenceType: stockModel.ReferenceOrder,
			ReferenceID:   &order.ID,
			ActorID:       &staffID,
		}
		if err := policy.ReserveOrDeduct(ctx, tx, detail.VariantID, detail.Quantity, ref); err != nil {
			return model.NewOrderError(model.ErrCodeInsufficientStock,
				fmt.Sprintf("Insufficient stock for variant %s", detail.SKU), err)
		}
	}
	return nil
}

// CancelDraft implements PosOrderService.CancelDraft
func (s *posOrderService) CancelDraft(ctx context.Context, orderID, staffID uuid.UUID, reason *string) (*model.Order, error) {
	order, err := s.requireOpenDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancelDraftOrder(ctx, order, &staffID, reason)
}

// cancelDraftOrder closes a pending draft. No stock was ever taken for
// a draft, so there is nothing to release.
func (s *posOrderService) cancelDraftOrder(ctx context.Context, order *model.Order, actorID *uuid.UUID, reason *string) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	oldStatus := order.Status
	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, oldStatus, model.OrderStatusCancelled); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusCancelled

	if err := s.recordTransition(ctx, tx, order, &oldStatus, &order.PaymentStatus, actorID, reason); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}
