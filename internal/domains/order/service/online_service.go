package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	addressRepo "storefront-backend/internal/domains/address/repository"
	cartRepo "storefront-backend/internal/domains/cart/repository"
	catalogRepo "storefront-backend/internal/domains/catalog/repository"
	couponRepo "storefront-backend/internal/domains/coupon/repository"
	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/repository"
	paymentRepo "storefront-backend/internal/domains/payment/repository"
	"storefront-backend/internal/domains/stock"
	stockModel "storefront-backend/internal/domains/stock/model"
	stockRepo "storefront-backend/internal/domains/stock/repository"
	"storefront-backend/pkg/logger"
)

// =====================================================
// ONLINE ORDER SERVICE IMPLEMENTATION
// =====================================================
type onlineOrderService struct {
	*core
}

// NewOrderService creates the online order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	variantRepo catalogRepo.VariantRepository,
	ledger stockRepo.Ledger,
	couponRepo couponRepo.CouponRepository,
	cartRepo cartRepo.CartRepository,
	paymentRepo paymentRepo.PaymentMethodRepository,
	addressRepo addressRepo.AddressRepository,
	asynqClient *asynq.Client,
	defaultShippingFee decimal.Decimal,
	maxOpenPosDrafts int,
) OrderService {
	return &onlineOrderService{
		core: &core{
			orderRepo:          orderRepo,
			variantRepo:        variantRepo,
			ledger:             ledger,
			couponRepo:         couponRepo,
			cartRepo:           cartRepo,
			paymentRepo:        paymentRepo,
			addressRepo:        addressRepo,
			asynqClient:        asynqClient,
			onlinePolicy:       stock.NewReservingPolicy(ledger),
			posPolicy:          stock.NewDeductingPolicy(ledger),
			defaultShippingFee: defaultShippingFee,
			maxOpenPosDrafts:   maxOpenPosDrafts,
		},
	}
}

// CreateOnlineOrder implements OrderService.CreateOnlineOrder
func (s *onlineOrderService) CreateOnlineOrder(ctx context.Context, userID uuid.UUID, req model.CreateOnlineOrderRequest) (*model.Order, error) {
	// Step 1: Validate request shape
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidRequest, "Invalid request", err)
	}

	// Step 2: Load the cart, the order lines come from there
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeCartEmpty, "Cart not found for user", err)
	}
	cartItems, err := s.cartRepo.GetItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, model.NewOrderError(model.ErrCodeCartEmpty, "Cart is empty", model.ErrCartEmpty)
	}

	items := make([]model.OrderItemRequest, 0, len(cartItems))
	for _, item := range cartItems {
		items = append(items, model.OrderItemRequest{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	// Step 3: Shipping address, must belong to the customer
	address, err := s.addressRepo.GetByID(ctx, req.AddressID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidAddress, "Invalid shipping address", err)
	}
	if address.UserID != userID {
		return nil, model.NewOrderError(model.ErrCodeInvalidAddress, "Address does not belong to user", nil)
	}

	// Step 4: Payment method
	method, err := s.paymentRepo.GetByID(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidPaymentMethod, "Invalid payment method", err)
	}
	if !method.IsActive {
		return nil, model.NewOrderError(model.ErrCodeInvalidPaymentMethod, "Payment method is not active", nil)
	}

	// Step 5: Build the order shell. Status and payment status are
	// forced regardless of anything the client sent.
	now := time.Now()
	order := &model.Order{
		ID:                uuid.New(),
		Code:              model.GenerateOrderCode(now),
		ChannelType:       model.ChannelOnline,
		UserID:            &userID,
		CustomerName:      address.RecipientName,
		CustomerPhone:     address.Phone,
		RecipientName:     &address.RecipientName,
		AddressLine:       &address.AddressLine,
		ProvinceCode:      &address.ProvinceCode,
		ProvinceName:      &address.ProvinceName,
		DistrictCode:      &address.DistrictCode,
		DistrictName:      &address.DistrictName,
		WardCode:          &address.WardCode,
		WardName:          &address.WardName,
		ShippingCarrier:   req.ShippingCarrier,
		ShippingFee:       s.defaultShippingFee,
		PaymentMethodID:   &method.ID,
		PaymentMethodName: &method.Name,
		PaymentStatus:     model.PaymentStatusUnpaid,
		Status:            model.OrderStatusPending,
		Note:              req.Note,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Step 6: Transaction — reserve stock, price lines, persist
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	if err := s.processLineItems(ctx, tx, order, items, true); err != nil {
		return nil, err
	}

	coupon, err := s.calculateFinancials(ctx, order, req.CouponCode)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateOrderWithTx(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.CreateOrderDetailsWithTx(ctx, tx, order.Details); err != nil {
		return nil, err
	}

	// Coupon usage counts only for orders that actually persisted;
	// rollback undoes the increment together with the order
	if coupon != nil {
		if err := s.couponRepo.IncrementUsageWithTx(ctx, tx, coupon.ID); err != nil {
			return nil, model.NewOrderError(model.ErrCodeCouponInvalid, "Coupon could not be redeemed", err)
		}
	}

	if err := s.recordTransition(ctx, tx, order, nil, nil, &userID, nil); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.cartRepo.ClearWithTx(ctx, tx, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueStockSync(order.Details, "ONLINE_SALE")

	logger.Info("online order created", map[string]interface{}{
		"order_id": order.ID.String(),
		"code":     order.Code,
		"total":    order.Total.String(),
	})

	return order, nil
}

// =====================================================
// LIFECYCLE TRANSITIONS
// =====================================================

// requireOnline loads the order and rejects point-of-sale orders,
// which have their own two-step lifecycle
func (s *onlineOrderService) requireOnline(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	if order.IsPos() {
		return nil, model.NewOrderError(model.ErrCodePosNotSupported,
			"Operation is not supported for point-of-sale orders", model.ErrPosNotSupported)
	}
	return order, nil
}

// transition applies a plain status move with a history row
func (s *onlineOrderService) transition(ctx context.Context, order *model.Order, toStatus string, actorID uuid.UUID, note *string) (*model.Order, error) {
	if !model.CanTransition(order.Status, toStatus) {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			fmt.Sprintf("Cannot move order from %s to %s", order.Status, toStatus), model.ErrInvalidStatus)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	oldStatus := order.Status
	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, oldStatus, toStatus); err != nil {
		return nil, err
	}
	order.Status = toStatus

	if err := s.recordTransition(ctx, tx, order, &oldStatus, &order.PaymentStatus, &actorID, note); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

// ConfirmOrder implements OrderService.ConfirmOrder
func (s *onlineOrderService) ConfirmOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	order, err := s.requireOnline(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Only pending orders can be confirmed", model.ErrInvalidStatus)
	}
	return s.transition(ctx, order, model.OrderStatusConfirmed, actorID, nil)
}

// ShipOrder implements OrderService.ShipOrder
func (s *onlineOrderService) ShipOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	order, err := s.requireOnline(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusConfirmed {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Only confirmed orders can be shipped", model.ErrInvalidStatus)
	}
	return s.transition(ctx, order, model.OrderStatusShipping, actorID, nil)
}

// CompleteOrder implements OrderService.CompleteOrder
func (s *onlineOrderService) CompleteOrder(ctx context.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
	order, err := s.requireOnline(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.completeOnline(ctx, order, actorID)
}

// completeOnline settles a shipping order: commits every reserved line,
// settles cash-on-delivery payment and closes the order
func (s *onlineOrderService) completeOnline(ctx context.Context, order *model.Order, actorID uuid.UUID) (*model.Order, error) {
	if order.Status != model.OrderStatusShipping {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			"Only shipping orders can be completed", model.ErrInvalidStatus)
	}

	details, err := s.orderRepo.GetOrderDetailsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order details: %w", err)
	}
	order.Details = details

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	policy := s.policyFor(order.ChannelType)
	for _, detail := range order.Details {
		ref := stockRepo.MovementRef{
			ReferenceType: stockModel.ReferenceOrder,
			ReferenceID:   &order.ID,
			ActorID:       &actorID,
		}
		if err := policy.CommitOrNoop(ctx, tx, detail.VariantID, detail.Quantity, ref); err != nil {
			return nil, fmt.Errorf("failed to commit stock: %w", err)
		}
	}

	oldStatus := order.Status
	oldPaymentStatus := order.PaymentStatus

	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, oldStatus, model.OrderStatusCompleted); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusCompleted

	// Delivery settles cash-on-delivery payment
	if order.PaymentStatus == model.PaymentStatusUnpaid {
		now := time.Now()
		if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, order.ID, model.PaymentStatusPaid, &now); err != nil {
			return nil, err
		}
		order.PaymentStatus = model.PaymentStatusPaid
		order.PaidAt = &now
	}

	if err := s.recordTransition(ctx, tx, order, &oldStatus, &oldPaymentStatus, &actorID, nil); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueStockSync(order.Details, "ONLINE_COMPLETED")
	return order, nil
}

// CancelOrder implements OrderService.CancelOrder
func (s *onlineOrderService) CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, reason *string) (*model.Order, error) {
	order, err := s.requireOnline(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, model.NewOrderError(model.ErrCodeInvalidStatus,
			fmt.Sprintf("Order in status %s cannot be cancelled", order.Status), model.ErrInvalidStatus)
	}

	details, err := s.orderRepo.GetOrderDetailsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order details: %w", err)
	}
	order.Details = details

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.orderRepo.RollbackTx(ctx, tx)

	policy := s.policyFor(order.ChannelType)
	for _, detail := range order.Details {
		ref := stockRepo.MovementRef{
			ReferenceType: stockModel.ReferenceOrder,
			ReferenceID:   &order.ID,
			ActorID:       &actorID,
		}
		if err := policy.ReleaseOrNoop(ctx, tx, detail.VariantID, detail.Quantity, ref); err != nil {
			return nil, fmt.Errorf("failed to release stock: %w", err)
		}
	}

	oldStatus := order.Status
	oldPaymentStatus := order.PaymentStatus

	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, oldStatus, model.OrderStatusCancelled); err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusCancelled

	if order.PaymentStatus == model.PaymentStatusPaid {
		if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, order.ID, model.PaymentStatusRefunded, nil); err != nil {
			return nil, err
		}
		order.PaymentStatus = model.PaymentStatusRefunded
	}

	if err := s.recordTransition(ctx, tx, order, &oldStatus, &oldPaymentStatus, &actorID, reason); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	if err := s.orderRepo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueStockSync(order.Details, "ONLINE_CANCELLED")
	return order, nil
}

// ReceiveOrder implements OrderService.ReceiveOrder
func (s *onlineOrderService) ReceiveOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.requireOnline(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(userID) {
		return nil, model.NewOrderError(model.ErrCodeAccessDenied, "Order does not belong to this customer", model.ErrAccessDenied)
	}
	return s.completeOnline(ctx, order, userID)
}

// Reorder implements OrderService.Reorder
func (s *onlineOrderService) Reorder(ctx context.Context, orderID, userID uuid.UUID) (*model.ReorderResult, error) {
	order, err := s.orderRepo.GetOrderWithDetails(ctx, orderID)
	if err != nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", err)
	}
	if !order.IsOwnedBy(userID) {
		return nil, model.NewOrderError(model.ErrCodeAccessDenied, "Order does not belong to this customer", model.ErrAccessDenied)
	}

	result := &model.ReorderResult{}
	for _, detail := range order.Details {
		variant, err := s.variantRepo.GetByID(ctx, detail.VariantID)
		if err != nil || !variant.IsActive {
			// Discontinued lines are skipped, the rest still goes in
			logger.Warn("reorder skipped variant", map[string]interface{}{
				"order_id":   order.ID.String(),
				"variant_id": detail.VariantID.String(),
			})
			result.SkippedVariantIDs = append(result.SkippedVariantIDs, detail.VariantID)
			continue
		}
		if err := s.cartRepo.AddItem(ctx, userID, detail.VariantID, detail.Quantity); err != nil {
			logger.Warn("reorder failed to add variant to cart", map[string]interface{}{
				"order_id":   order.ID.String(),
				"variant_id": detail.VariantID.String(),
				"error":      err.Error(),
			})
			result.SkippedVariantIDs = append(result.SkippedVariantIDs, detail.VariantID)
			continue
		}
		result.AddedVariantIDs = append(result.AddedVariantIDs, detail.VariantID)
	}

	return result, nil
}
