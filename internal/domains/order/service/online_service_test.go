package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/order/model"
	stockModel "storefront-backend/internal/domains/stock/model"
	stockRepo "storefront-backend/internal/domains/stock/repository"
)

// =====================================================
// TEST HELPERS
// =====================================================

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func requireOrderErr(t *testing.T, err error, code string) *model.OrderError {
	t.Helper()
	require.Error(t, err)
	var orderErr *model.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, code, orderErr.Code)
	return orderErr
}

type seededLine struct {
	variantID uuid.UUID
	quantity  int
	price     string
}

// seedOrder plants an order with priced lines directly into the mock
// repository, bypassing the creation flow
func (f *fixture) seedOrder(channel, status, paymentStatus string, lines ...seededLine) *model.Order {
	now := time.Now()
	order := &model.Order{
		ID:            uuid.New(),
		Code:          model.GenerateOrderCode(now),
		ChannelType:   channel,
		Status:        status,
		PaymentStatus: paymentStatus,
		CustomerName:  "Walk-in customer",
		ShippingFee:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if channel == model.ChannelOnline {
		order.UserID = &f.userID
	} else {
		order.StaffID = &f.staffID
	}

	subtotal := decimal.Zero
	details := make([]model.OrderDetail, 0, len(lines))
	for _, line := range lines {
		price := decimal.RequireFromString(line.price)
		detail := model.OrderDetail{
			ID:            uuid.New(),
			OrderID:       order.ID,
			VariantID:     line.variantID,
			SKU:           "SKU-" + line.variantID.String()[:8],
			ProductName:   "Test product",
			Price:         price,
			OriginalPrice: price,
			Quantity:      line.quantity,
			CreatedAt:     now,
		}
		subtotal = subtotal.Add(detail.LineSubtotal())
		details = append(details, detail)
	}
	order.Subtotal = subtotal
	order.DiscountAmount = decimal.Zero
	order.CalculateTotal()
	order.Details = details

	f.orderRepo.orders[order.ID] = order
	f.orderRepo.details[order.ID] = details
	return order
}

// =====================================================
// ONLINE CHECKOUT
// =====================================================

func TestCreateOnlineOrder_SalePricing(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10, activeSale("20"))
	addressID := f.addAddress()
	methodID := f.addPaymentMethod("cod")
	require.NoError(t, f.cartRepo.AddItem(context.Background(), f.userID, variantID, 2))

	order, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       addressID,
		PaymentMethodID: methodID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, model.ChannelOnline, order.ChannelType)

	require.Len(t, order.Details, 1)
	assertDecimal(t, "80", order.Details[0].Price)
	assertDecimal(t, "100", order.Details[0].OriginalPrice)
	assertDecimal(t, "160", order.Subtotal)
	assertDecimal(t, "160", order.Total)

	// Reservation holds availability but leaves on-hand stock alone
	assert.Equal(t, 8, f.ledger.available[variantID])
	assert.Equal(t, 10, f.ledger.onHand[variantID])

	assert.True(t, f.cartRepo.cleared)

	// Address snapshot travels on the order
	require.NotNil(t, order.RecipientName)
	assert.Equal(t, "Jamie Doe", *order.RecipientName)

	history, err := f.online.GetOrderHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.OrderStatusPending, history[0].NewStatus)
}

func TestCreateOnlineOrder_PercentCouponCappedByMaxDiscount(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("1000", 10, 10)
	addressID := f.addAddress()
	methodID := f.addPaymentMethod("cod")
	maxDiscount := "5"
	coupon := f.addCoupon("SAVE10", "percent", "10", &maxDiscount)
	require.NoError(t, f.cartRepo.AddItem(context.Background(), f.userID, variantID, 1))

	order, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       addressID,
		PaymentMethodID: methodID,
		CouponCode:      &coupon.Code,
	})
	require.NoError(t, err)

	assertDecimal(t, "1000", order.Subtotal)
	assertDecimal(t, "5", order.DiscountAmount)
	assertDecimal(t, "995", order.Total)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)

	// Usage is redeemed exactly once, in the same transaction
	assert.Equal(t, 1, f.couponRepo.coupons["SAVE10"].UsedCount)
}

func TestCreateOnlineOrder_EmptyCart(t *testing.T) {
	f := newFixture()
	addressID := f.addAddress()
	methodID := f.addPaymentMethod("cod")

	_, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       addressID,
		PaymentMethodID: methodID,
	})
	requireOrderErr(t, err, model.ErrCodeCartEmpty)
}

func TestCreateOnlineOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("50", 1, 1)
	addressID := f.addAddress()
	methodID := f.addPaymentMethod("cod")
	require.NoError(t, f.cartRepo.AddItem(context.Background(), f.userID, variantID, 2))

	_, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       addressID,
		PaymentMethodID: methodID,
	})
	orderErr := requireOrderErr(t, err, model.ErrCodeInsufficientStock)
	assert.ErrorIs(t, orderErr.Err, stockModel.ErrInsufficientStock)
}

func TestCreateOnlineOrder_AddressMustBelongToCustomer(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("50", 5, 5)
	methodID := f.addPaymentMethod("cod")
	require.NoError(t, f.cartRepo.AddItem(context.Background(), f.userID, variantID, 1))

	strangerAddressID := f.addAddress()
	f.addressRepo.addresses[strangerAddressID].UserID = uuid.New()

	_, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       strangerAddressID,
		PaymentMethodID: methodID,
	})
	requireOrderErr(t, err, model.ErrCodeInvalidAddress)
}

func TestCreateOnlineOrder_InactivePaymentMethod(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("50", 5, 5)
	addressID := f.addAddress()
	methodID := f.addPaymentMethod("cod")
	f.paymentRepo.methods[methodID].IsActive = false
	require.NoError(t, f.cartRepo.AddItem(context.Background(), f.userID, variantID, 1))

	_, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       addressID,
		PaymentMethodID: methodID,
	})
	requireOrderErr(t, err, model.ErrCodeInvalidPaymentMethod)
}

// =====================================================
// LIFECYCLE TRANSITIONS
// =====================================================

func TestLifecycle_HappyPath(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	// Stock was reserved at checkout time
	require.NoError(t, f.ledger.ReserveWithTx(context.Background(), nil, variantID, 2, movementRef(t)))
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusPending, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 2, price: "100"})

	confirmed, err := f.online.ConfirmOrder(context.Background(), order.ID, f.staffID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	shipped, err := f.online.ShipOrder(context.Background(), order.ID, f.staffID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipping, shipped.Status)

	completed, err := f.online.CompleteOrder(context.Background(), order.ID, f.staffID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, completed.Status)

	// Delivery settles cash-on-delivery payment
	assert.Equal(t, model.PaymentStatusPaid, completed.PaymentStatus)
	require.NotNil(t, completed.PaidAt)

	// Completion commits the earlier reservation: on-hand drops,
	// availability stays where the reserve left it
	assert.Equal(t, 8, f.ledger.onHand[variantID])
	assert.Equal(t, 8, f.ledger.available[variantID])

	history, err := f.online.GetOrderHistory(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestCompleteOrder_RejectedBeforeShipping(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"from pending", model.OrderStatusPending},
		{"from confirmed", model.OrderStatusConfirmed},
		{"from completed", model.OrderStatusCompleted},
		{"from cancelled", model.OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			variantID := f.addVariant("100", 10, 10)
			order := f.seedOrder(model.ChannelOnline, tt.status, model.PaymentStatusUnpaid,
				seededLine{variantID: variantID, quantity: 1, price: "100"})

			_, err := f.online.CompleteOrder(context.Background(), order.ID, f.staffID)
			requireOrderErr(t, err, model.ErrCodeInvalidStatus)
		})
	}
}

func TestConfirmOrder_OnlyFromPending(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusShipping, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	_, err := f.online.ConfirmOrder(context.Background(), order.ID, f.staffID)
	requireOrderErr(t, err, model.ErrCodeInvalidStatus)
}

func TestCancelOrder_ReleasesStockAndRefunds(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	require.NoError(t, f.ledger.ReserveWithTx(context.Background(), nil, variantID, 3, movementRef(t)))
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusConfirmed, model.PaymentStatusPaid,
		seededLine{variantID: variantID, quantity: 3, price: "100"})

	cancelled, err := f.online.CancelOrder(context.Background(), order.ID, f.staffID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, model.PaymentStatusRefunded, cancelled.PaymentStatus)

	// The hold comes back in full, on-hand never moved
	assert.Equal(t, 10, f.ledger.available[variantID])
	assert.Equal(t, 10, f.ledger.onHand[variantID])
}

func TestCancelOrder_IllegalStates(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"completed", model.OrderStatusCompleted},
		{"cancelled", model.OrderStatusCancelled},
		{"returned", model.OrderStatusReturned},
		{"shipping", model.OrderStatusShipping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			variantID := f.addVariant("100", 10, 10)
			order := f.seedOrder(model.ChannelOnline, tt.status, model.PaymentStatusUnpaid,
				seededLine{variantID: variantID, quantity: 1, price: "100"})

			_, err := f.online.CancelOrder(context.Background(), order.ID, f.staffID, nil)
			requireOrderErr(t, err, model.ErrCodeInvalidStatus)
		})
	}
}

func TestReceiveOrder_OwnerCompletesFromShipping(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	require.NoError(t, f.ledger.ReserveWithTx(context.Background(), nil, variantID, 1, movementRef(t)))
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusShipping, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	received, err := f.online.ReceiveOrder(context.Background(), order.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, received.Status)
	assert.Equal(t, model.PaymentStatusPaid, received.PaymentStatus)
}

func TestReceiveOrder_DeniedForStranger(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusShipping, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	_, err := f.online.ReceiveOrder(context.Background(), order.ID, uuid.New())
	requireOrderErr(t, err, model.ErrCodeAccessDenied)
}

func TestOnlineLifecycle_RejectsPosOrders(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelPosInstore, model.OrderStatusPending, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	_, err := f.online.ConfirmOrder(context.Background(), order.ID, f.staffID)
	requireOrderErr(t, err, model.ErrCodePosNotSupported)

	_, err = f.online.ShipOrder(context.Background(), order.ID, f.staffID)
	requireOrderErr(t, err, model.ErrCodePosNotSupported)

	_, err = f.online.CompleteOrder(context.Background(), order.ID, f.staffID)
	requireOrderErr(t, err, model.ErrCodePosNotSupported)
}

// =====================================================
// RETURN FLOW
// =====================================================

func TestRequestReturn_OwnerOnlyFromCompleted(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusCompleted, model.PaymentStatusPaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	_, err := f.online.RequestReturn(context.Background(), order.ID, uuid.New(), nil)
	requireOrderErr(t, err, model.ErrCodeAccessDenied)

	returned, err := f.online.RequestReturn(context.Background(), order.ID, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReturned, returned.Status)
}

func TestRequestReturn_RejectedBeforeCompletion(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusShipping, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	_, err := f.online.RequestReturn(context.Background(), order.ID, f.userID, nil)
	requireOrderErr(t, err, model.ErrCodeInvalidStatus)
}

func TestApproveReturn_RestocksAndRefunds(t *testing.T) {
	f := newFixture()
	// A completed sale already consumed both counters
	variantID := f.addVariant("100", 8, 8)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusReturned, model.PaymentStatusPaid,
		seededLine{variantID: variantID, quantity: 2, price: "100"})

	approved, err := f.online.ApproveReturn(context.Background(), order.ID, f.staffID)
	require.NoError(t, err)

	// Status stays returned, only payment and stock change
	assert.Equal(t, model.OrderStatusReturned, approved.Status)
	assert.Equal(t, model.PaymentStatusRefunded, approved.PaymentStatus)
	assert.Equal(t, 10, f.ledger.available[variantID])
}

func TestApproveReturn_OnlyFromReturned(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusCompleted, model.PaymentStatusPaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	_, err := f.online.ApproveReturn(context.Background(), order.ID, f.staffID)
	requireOrderErr(t, err, model.ErrCodeInvalidStatus)
}

// =====================================================
// REORDER
// =====================================================

func TestReorder_SkipsDiscontinuedLines(t *testing.T) {
	f := newFixture()
	activeID := f.addVariant("100", 10, 10)
	retiredID := f.addVariant("50", 10, 10)
	f.variantRepo.variants[retiredID].IsActive = false
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusCompleted, model.PaymentStatusPaid,
		seededLine{variantID: activeID, quantity: 2, price: "100"},
		seededLine{variantID: retiredID, quantity: 1, price: "50"})

	result, err := f.online.Reorder(context.Background(), order.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{activeID}, result.AddedVariantIDs)
	assert.Equal(t, []uuid.UUID{retiredID}, result.SkippedVariantIDs)

	require.Len(t, f.cartRepo.items, 1)
	assert.Equal(t, activeID, f.cartRepo.items[0].VariantID)
	assert.Equal(t, 2, f.cartRepo.items[0].Quantity)
}

func TestReorder_SkipsLinesThatFailToAdd(t *testing.T) {
	f := newFixture()
	okID := f.addVariant("100", 10, 10)
	brokenID := f.addVariant("50", 10, 10)
	f.cartRepo.addErrFor[brokenID] = assert.AnError
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusCompleted, model.PaymentStatusPaid,
		seededLine{variantID: okID, quantity: 1, price: "100"},
		seededLine{variantID: brokenID, quantity: 1, price: "50"})

	result, err := f.online.Reorder(context.Background(), order.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{okID}, result.AddedVariantIDs)
	assert.Equal(t, []uuid.UUID{brokenID}, result.SkippedVariantIDs)
}

func TestCreateOnlineOrder_PersistenceFailureSurfaces(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	addressID := f.addAddress()
	methodID := f.addPaymentMethod("cod")
	require.NoError(t, f.cartRepo.AddItem(context.Background(), f.userID, variantID, 1))
	f.orderRepo.createErr = assert.AnError

	_, err := f.online.CreateOnlineOrder(context.Background(), f.userID, model.CreateOnlineOrderRequest{
		AddressID:       addressID,
		PaymentMethodID: methodID,
	})
	require.ErrorIs(t, err, assert.AnError)
}

// =====================================================
// ADMINISTRATIVE UPDATES
// =====================================================

func TestUpdatePaymentStatus_MarksPaidWithTimestamp(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusConfirmed, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	updated, err := f.online.UpdatePaymentStatus(context.Background(), order.ID, f.staffID, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.PaidAt)
}

func TestUpdateShippingInfo_FrozenOnceShipping(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusShipping, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	carrier := "GHN"
	_, err := f.online.UpdateShippingInfo(context.Background(), order.ID, f.staffID, model.UpdateShippingInfoRequest{
		ShippingCarrier: &carrier,
	})
	requireOrderErr(t, err, model.ErrCodeInvalidStatus)
}

func TestUpdateShippingInfo_RecomputesTotal(t *testing.T) {
	f := newFixture()
	variantID := f.addVariant("100", 10, 10)
	order := f.seedOrder(model.ChannelOnline, model.OrderStatusPending, model.PaymentStatusUnpaid,
		seededLine{variantID: variantID, quantity: 1, price: "100"})

	fee := "30"
	updated, err := f.online.UpdateShippingInfo(context.Background(), order.ID, f.staffID, model.UpdateShippingInfoRequest{
		ShippingFee: &fee,
	})
	require.NoError(t, err)
	assertDecimal(t, "30", updated.ShippingFee)
	assertDecimal(t, "130", updated.Total)
}

// movementRef builds a throwaway reference for direct ledger seeding
func movementRef(t *testing.T) stockRepo.MovementRef {
	t.Helper()
	id := uuid.New()
	return stockRepo.MovementRef{ReferenceType: stockModel.ReferenceOrder, ReferenceID: &id}
}
