package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	addressModel "storefront-backend/internal/domains/address/model"
	cartModel "storefront-backend/internal/domains/cart/model"
	catalogModel "storefront-backend/internal/domains/catalog/model"
	couponModel "storefront-backend/internal/domains/coupon/model"
	"storefront-backend/internal/domains/order/model"
	paymentModel "storefront-backend/internal/domains/payment/model"
	stockModel "storefront-backend/internal/domains/stock/model"
	stockRepo "storefront-backend/internal/domains/stock/repository"
)

// =====================================================
// ORDER REPOSITORY MOCK
// =====================================================

type mockOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	details   map[uuid.UUID][]model.OrderDetail
	histories []model.OrderHistory

	createErr error // when set, CreateOrderWithTx fails with this
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:  make(map[uuid.UUID]*model.Order),
		details: make(map[uuid.UUID][]model.OrderDetail),
	}
}

func (m *mockOrderRepo) BeginTx(_ context.Context) (pgx.Tx, error) { return nil, nil }

func (m *mockOrderRepo) CommitTx(_ context.Context, _ pgx.Tx) error { return nil }

func (m *mockOrderRepo) RollbackTx(_ context.Context, _ pgx.Tx) error { return nil }

func (m *mockOrderRepo) CreateOrderWithTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderRepo) GetOrderByID(_ context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) GetOrderByCode(_ context.Context, code string) (*model.Order, error) {
	for _, order := range m.orders {
		if order.Code == code {
			copied := *order
			return &copied, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (m *mockOrderRepo) GetOrderWithDetails(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := m.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Details = append([]model.OrderDetail(nil), m.details[orderID]...)
	return order, nil
}

func (m *mockOrderRepo) UpdateOrderStatusWithTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, fromStatus, toStatus string) error {
	order, ok := m.orders[orderID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if order.Status != fromStatus {
		return model.ErrInvalidStatus
	}
	order.Status = toStatus
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatusWithTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, paymentStatus string, paidAt *time.Time) error {
	order, ok := m.orders[orderID]
	if !ok {
		return model.ErrOrderNotFound
	}
	order.PaymentStatus = paymentStatus
	if paidAt != nil {
		order.PaidAt = paidAt
	}
	return nil
}

func (m *mockOrderRepo) UpdateFinancialsWithTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, subtotal, discount, total decimal.Decimal, couponCode *string) error {
	order, ok := m.orders[orderID]
	if !ok {
		return model.ErrOrderNotFound
	}
	order.Subtotal = subtotal
	order.DiscountAmount = discount
	order.Total = total
	order.CouponCode = couponCode
	return nil
}

func (m *mockOrderRepo) UpdatePosCompletionWithTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, customerName, customerPhone *string, paymentMethodID *uuid.UUID, paymentMethodName *string) error {
	order, ok := m.orders[orderID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if customerName != nil {
		order.CustomerName = *customerName
	}
	if customerPhone != nil {
		order.CustomerPhone = *customerPhone
	}
	if paymentMethodID != nil {
		order.PaymentMethodID = paymentMethodID
		order.PaymentMethodName = paymentMethodName
	}
	return nil
}

func (m *mockOrderRepo) UpdateShippingInfo(_ context.Context, orderID uuid.UUID, carrier *string, fee *decimal.Decimal, estimatedDeliveryAt *time.Time) error {
	order, ok := m.orders[orderID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if carrier != nil {
		order.ShippingCarrier = carrier
	}
	if fee != nil {
		order.ShippingFee = *fee
	}
	if estimatedDeliveryAt != nil {
		order.EstimatedDeliveryAt = estimatedDeliveryAt
	}
	order.CalculateTotal()
	return nil
}

func (m *mockOrderRepo) CreateOrderDetailsWithTx(_ context.Context, _ pgx.Tx, details []model.OrderDetail) error {
	for _, d := range details {
		m.details[d.OrderID] = append(m.details[d.OrderID], d)
	}
	return nil
}

func (m *mockOrderRepo) GetOrderDetailsByOrderID(_ context.Context, orderID uuid.UUID) ([]model.OrderDetail, error) {
	return append([]model.OrderDetail(nil), m.details[orderID]...), nil
}

func (m *mockOrderRepo) ReplaceOrderDetailsWithTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID, details []model.OrderDetail) error {
	m.details[orderID] = append([]model.OrderDetail(nil), details...)
	return nil
}

func (m *mockOrderRepo) ListOrders(_ context.Context, filter *model.ListOrdersRequest) ([]model.Order, int, error) {
	var result []model.Order
	for _, order := range m.orders {
		if filter.UserID != nil && (order.UserID == nil || *order.UserID != *filter.UserID) {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, *order)
	}
	return result, len(result), nil
}

func (m *mockOrderRepo) CountOpenPosDrafts(_ context.Context) (int, error) {
	count := 0
	for _, order := range m.orders {
		if order.IsPos() && order.Status == model.OrderStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *mockOrderRepo) ListStalePosDrafts(_ context.Context, cutoff time.Time) ([]model.Order, error) {
	var result []model.Order
	for _, order := range m.orders {
		if order.IsPos() && order.Status == model.OrderStatusPending && order.CreatedAt.Before(cutoff) {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (m *mockOrderRepo) CreateHistoryWithTx(_ context.Context, _ pgx.Tx, history *model.OrderHistory) error {
	m.histories = append(m.histories, *history)
	return nil
}

func (m *mockOrderRepo) GetHistoryByOrderID(_ context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	var result []model.OrderHistory
	for _, h := range m.histories {
		if h.OrderID == orderID {
			result = append(result, h)
		}
	}
	return result, nil
}

// =====================================================
// VARIANT REPOSITORY MOCK
// =====================================================

type mockVariantRepo struct {
	variants map[uuid.UUID]*catalogModel.ProductVariant
}

func newMockVariantRepo() *mockVariantRepo {
	return &mockVariantRepo{variants: make(map[uuid.UUID]*catalogModel.ProductVariant)}
}

func (m *mockVariantRepo) GetByID(_ context.Context, variantID uuid.UUID) (*catalogModel.ProductVariant, error) {
	variant, ok := m.variants[variantID]
	if !ok {
		return nil, catalogModel.ErrVariantNotFound
	}
	copied := *variant
	return &copied, nil
}

func (m *mockVariantRepo) GetByIDs(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*catalogModel.ProductVariant, error) {
	result := make(map[uuid.UUID]*catalogModel.ProductVariant)
	for _, id := range variantIDs {
		if v, err := m.GetByID(ctx, id); err == nil {
			result[id] = v
		}
	}
	return result, nil
}

// =====================================================
// STOCK LEDGER MOCK
// =====================================================
// Stateful fake tracking both counters per variant so tests can assert
// the reservation protocol end to end.

type mockLedger struct {
	available map[uuid.UUID]int
	onHand    map[uuid.UUID]int
	movements []stockModel.StockMovement
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		available: make(map[uuid.UUID]int),
		onHand:    make(map[uuid.UUID]int),
	}
}

func (m *mockLedger) set(variantID uuid.UUID, onHand, available int) {
	m.onHand[variantID] = onHand
	m.available[variantID] = available
}

func (m *mockLedger) record(variantID uuid.UUID, movementType string, qty int, ref stockRepo.MovementRef) {
	m.movements = append(m.movements, stockModel.StockMovement{
		ID:            uuid.New(),
		VariantID:     variantID,
		MovementType:  movementType,
		Quantity:      qty,
		ReferenceType: ref.ReferenceType,
		ReferenceID:   ref.ReferenceID,
		CreatedBy:     ref.ActorID,
		CreatedAt:     time.Now(),
	})
}

func (m *mockLedger) CheckAvailable(_ context.Context, variantID uuid.UUID, qty int) (bool, error) {
	available, ok := m.available[variantID]
	if !ok {
		return false, stockModel.ErrVariantNotFound
	}
	return available >= qty, nil
}

func (m *mockLedger) ReserveWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, ref stockRepo.MovementRef) error {
	if m.available[variantID] < qty {
		return stockModel.ErrInsufficientStock
	}
	m.available[variantID] -= qty
	m.record(variantID, stockModel.MovementReserve, qty, ref)
	return nil
}

func (m *mockLedger) ReleaseWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, ref stockRepo.MovementRef) error {
	m.available[variantID] += qty
	m.record(variantID, stockModel.MovementRelease, qty, ref)
	return nil
}

func (m *mockLedger) CommitWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, ref stockRepo.MovementRef) error {
	if m.onHand[variantID] < qty {
		return stockModel.ErrInsufficientStock
	}
	m.onHand[variantID] -= qty
	m.record(variantID, stockModel.MovementCommit, qty, ref)
	return nil
}

func (m *mockLedger) DirectDeductWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, ref stockRepo.MovementRef) error {
	if m.onHand[variantID] < qty {
		return stockModel.ErrInsufficientStock
	}
	m.onHand[variantID] -= qty
	m.available[variantID] -= qty
	m.record(variantID, stockModel.MovementDirectDeduct, qty, ref)
	return nil
}

func (m *mockLedger) GetMovementsByReference(_ context.Context, referenceType string, referenceID uuid.UUID) ([]stockModel.StockMovement, error) {
	var result []stockModel.StockMovement
	for _, mv := range m.movements {
		if mv.ReferenceType == referenceType && mv.ReferenceID != nil && *mv.ReferenceID == referenceID {
			result = append(result, mv)
		}
	}
	return result, nil
}

// =====================================================
// COUPON REPOSITORY MOCK
// =====================================================

type mockCouponRepo struct {
	coupons map[string]*couponModel.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[string]*couponModel.Coupon)}
}

func (m *mockCouponRepo) GetByCode(_ context.Context, code string) (*couponModel.Coupon, error) {
	coupon, ok := m.coupons[code]
	if !ok {
		return nil, couponModel.ErrCouponNotFound
	}
	copied := *coupon
	return &copied, nil
}

func (m *mockCouponRepo) GetByID(_ context.Context, couponID uuid.UUID) (*couponModel.Coupon, error) {
	for _, coupon := range m.coupons {
		if coupon.ID == couponID {
			copied := *coupon
			return &copied, nil
		}
	}
	return nil, couponModel.ErrCouponNotFound
}

func (m *mockCouponRepo) IncrementUsageWithTx(_ context.Context, _ pgx.Tx, couponID uuid.UUID) error {
	for _, coupon := range m.coupons {
		if coupon.ID == couponID {
			if !coupon.HasUsesLeft() {
				return couponModel.ErrCouponExhausted
			}
			coupon.UsedCount++
			return nil
		}
	}
	return couponModel.ErrCouponNotFound
}

// =====================================================
// CART REPOSITORY MOCK
// =====================================================

type mockCartRepo struct {
	cart      *cartModel.Cart
	items     []cartModel.CartItem
	cleared   bool
	addErrFor map[uuid.UUID]error
}

func newMockCartRepo(userID uuid.UUID) *mockCartRepo {
	return &mockCartRepo{
		cart: &cartModel.Cart{
			ID:     uuid.New(),
			UserID: userID,
		},
		addErrFor: make(map[uuid.UUID]error),
	}
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*cartModel.Cart, error) {
	if m.cart.UserID != userID {
		return nil, cartModel.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockCartRepo) GetItems(_ context.Context, cartID uuid.UUID) ([]cartModel.CartItem, error) {
	if m.cart.ID != cartID {
		return nil, cartModel.ErrCartNotFound
	}
	return append([]cartModel.CartItem(nil), m.items...), nil
}

func (m *mockCartRepo) ClearWithTx(_ context.Context, _ pgx.Tx, cartID uuid.UUID) error {
	m.items = nil
	m.cleared = true
	return nil
}

func (m *mockCartRepo) AddItem(_ context.Context, userID, variantID uuid.UUID, quantity int) error {
	if err := m.addErrFor[variantID]; err != nil {
		return err
	}
	for i := range m.items {
		if m.items[i].VariantID == variantID {
			m.items[i].Quantity += quantity
			return nil
		}
	}
	m.items = append(m.items, cartModel.CartItem{
		ID:        uuid.New(),
		CartID:    m.cart.ID,
		VariantID: variantID,
		Quantity:  quantity,
	})
	return nil
}

// =====================================================
// PAYMENT METHOD REPOSITORY MOCK
// =====================================================

type mockPaymentRepo struct {
	methods map[uuid.UUID]*paymentModel.PaymentMethod
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{methods: make(map[uuid.UUID]*paymentModel.PaymentMethod)}
}

func (m *mockPaymentRepo) GetByID(_ context.Context, methodID uuid.UUID) (*paymentModel.PaymentMethod, error) {
	method, ok := m.methods[methodID]
	if !ok {
		return nil, paymentModel.ErrPaymentMethodNotFound
	}
	return method, nil
}

// =====================================================
// ADDRESS REPOSITORY MOCK
// =====================================================

type mockAddressRepo struct {
	addresses map[uuid.UUID]*addressModel.Address
}

func newMockAddressRepo() *mockAddressRepo {
	return &mockAddressRepo{addresses: make(map[uuid.UUID]*addressModel.Address)}
}

func (m *mockAddressRepo) GetByID(_ context.Context, addressID uuid.UUID) (*addressModel.Address, error) {
	address, ok := m.addresses[addressID]
	if !ok {
		return nil, addressModel.ErrAddressNotFound
	}
	return address, nil
}

// =====================================================
// TEST FIXTURE
// =====================================================

type fixture struct {
	orderRepo   *mockOrderRepo
	variantRepo *mockVariantRepo
	ledger      *mockLedger
	couponRepo  *mockCouponRepo
	cartRepo    *mockCartRepo
	paymentRepo *mockPaymentRepo
	addressRepo *mockAddressRepo

	userID  uuid.UUID
	staffID uuid.UUID

	online OrderService
	pos    PosOrderService
}

func newFixture() *fixture {
	f := &fixture{
		orderRepo:   newMockOrderRepo(),
		variantRepo: newMockVariantRepo(),
		ledger:      newMockLedger(),
		couponRepo:  newMockCouponRepo(),
		paymentRepo: newMockPaymentRepo(),
		addressRepo: newMockAddressRepo(),
		userID:      uuid.New(),
		staffID:     uuid.New(),
	}
	f.cartRepo = newMockCartRepo(f.userID)
	f.online = NewOrderService(
		f.orderRepo, f.variantRepo, f.ledger, f.couponRepo,
		f.cartRepo, f.paymentRepo, f.addressRepo,
		nil, decimal.Zero, 5,
	)
	f.pos = NewPosOrderService(f.online)
	return f
}

// addVariant registers a variant with stock on both counters
func (f *fixture) addVariant(price string, onHand, available int, sales ...catalogModel.Sale) uuid.UUID {
	id := uuid.New()
	f.variantRepo.variants[id] = &catalogModel.ProductVariant{
		ID:                id,
		ProductID:         uuid.New(),
		SKU:               "SKU-" + id.String()[:8],
		ProductName:       "Test product",
		Price:             decimal.RequireFromString(price),
		Quantity:          onHand,
		AvailableQuantity: available,
		IsActive:          true,
		Sales:             sales,
	}
	f.ledger.set(id, onHand, available)
	return id
}

// addAddress registers an address owned by the fixture user
func (f *fixture) addAddress() uuid.UUID {
	id := uuid.New()
	f.addressRepo.addresses[id] = &addressModel.Address{
		ID:            id,
		UserID:        f.userID,
		RecipientName: "Jamie Doe",
		Phone:         "0900000000",
		AddressLine:   "1 Main St",
		ProvinceCode:  "01",
		ProvinceName:  "Province",
		DistrictCode:  "001",
		DistrictName:  "District",
		WardCode:      "0001",
		WardName:      "Ward",
	}
	return id
}

// addPaymentMethod registers an active payment method
func (f *fixture) addPaymentMethod(code string) uuid.UUID {
	id := uuid.New()
	f.paymentRepo.methods[id] = &paymentModel.PaymentMethod{
		ID:       id,
		Code:     code,
		Name:     code,
		IsActive: true,
	}
	return id
}

// addCoupon registers a coupon valid around now
func (f *fixture) addCoupon(code, typ, value string, maxDiscount *string) *couponModel.Coupon {
	coupon := &couponModel.Coupon{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		Type:      typ,
		Value:     decimal.RequireFromString(value),
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTo:   time.Now().Add(time.Hour),
		Status:    couponModel.StatusActive,
	}
	if maxDiscount != nil {
		d := decimal.RequireFromString(*maxDiscount)
		coupon.MaxDiscount = &d
	}
	f.couponRepo.coupons[code] = coupon
	return coupon
}

// activeSale builds a sale running right now
func activeSale(percent string) catalogModel.Sale {
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	p := decimal.RequireFromString(percent)
	return catalogModel.Sale{
		ID:              uuid.New(),
		Name:            "sale " + percent,
		DiscountPercent: &p,
		StartDate:       &start,
		EndDate:         &end,
		IsActive:        true,
	}
}
