package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/order/model"
)

// postgresRepository implements OrderRepository
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresRepository{pool: pool}
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *postgresRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *postgresRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *postgresRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// =====================================================
// ORDER OPERATIONS
// =====================================================

const orderColumns = `
	id, code, channel_type, user_id, staff_id,
	customer_name, customer_phone, customer_email,
	recipient_name, address_line, province_code, province_name,
	district_code, district_name, ward_code, ward_name,
	shipping_carrier, shipping_fee, estimated_delivery_at,
	payment_method_id, payment_method_name, payment_status, paid_at,
	coupon_code, subtotal, discount_amount, total,
	status, note, created_at, updated_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.Code, &o.ChannelType, &o.UserID, &o.StaffID,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.RecipientName, &o.AddressLine, &o.ProvinceCode, &o.ProvinceName,
		&o.DistrictCode, &o.DistrictName, &o.WardCode, &o.WardName,
		&o.ShippingCarrier, &o.ShippingFee, &o.EstimatedDeliveryAt,
		&o.PaymentMethodID, &o.PaymentMethodName, &o.PaymentStatus, &o.PaidAt,
		&o.CouponCode, &o.Subtotal, &o.DiscountAmount, &o.Total,
		&o.Status, &o.Note, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrderWithTx implements OrderRepository.CreateOrderWithTx
func (r *postgresRepository) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, code, channel_type, user_id, staff_id,
			customer_name, customer_phone, customer_email,
			recipient_name, address_line, province_code, province_name,
			district_code, district_name, ward_code, ward_name,
			shipping_carrier, shipping_fee, estimated_delivery_at,
			payment_method_id, payment_method_name, payment_status, paid_at,
			coupon_code, subtotal, discount_amount, total,
			status, note, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31
		)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.Code, order.ChannelType, order.UserID, order.StaffID,
		order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.RecipientName, order.AddressLine, order.ProvinceCode, order.ProvinceName,
		order.DistrictCode, order.DistrictName, order.WardCode, order.WardName,
		order.ShippingCarrier, order.ShippingFee, order.EstimatedDeliveryAt,
		order.PaymentMethodID, order.PaymentMethodName, order.PaymentStatus, order.PaidAt,
		order.CouponCode, order.Subtotal, order.DiscountAmount, order.Total,
		order.Status, order.Note, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrCodeCollision
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// GetOrderByID implements OrderRepository.GetOrderByID
func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// GetOrderByCode implements OrderRepository.GetOrderByCode
func (r *postgresRepository) GetOrderByCode(ctx context.Context, code string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE code = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by code: %w", err)
	}

	return order, nil
}

// GetOrderWithDetails implements OrderRepository.GetOrderWithDetails
func (r *postgresRepository) GetOrderWithDetails(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := r.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	details, err := r.GetOrderDetailsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Details = details

	return order, nil
}

// UpdateOrderStatusWithTx implements OrderRepository.UpdateOrderStatusWithTx
func (r *postgresRepository) UpdateOrderStatusWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, fromStatus, toStatus string) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, query, orderID, fromStatus, toStatus)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`
		if err := tx.QueryRow(ctx, checkQuery, orderID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check order existence: %w", err)
		}
		if !exists {
			return model.ErrOrderNotFound
		}
		// Status moved under us, the caller's view was stale
		return model.ErrInvalidStatus
	}

	return nil
}

// UpdatePaymentStatusWithTx implements OrderRepository.UpdatePaymentStatusWithTx
func (r *postgresRepository) UpdatePaymentStatusWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, paymentStatus string, paidAt *time.Time) error {
	query := `
		UPDATE orders
		SET payment_status = $2,
		    paid_at = COALESCE($3, paid_at),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, orderID, paymentStatus, paidAt)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// UpdateFinancialsWithTx implements OrderRepository.UpdateFinancialsWithTx
func (r *postgresRepository) UpdateFinancialsWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, subtotal, discount, total decimal.Decimal, couponCode *string) error {
	query := `
		UPDATE orders
		SET subtotal = $2, discount_amount = $3, total = $4,
		    coupon_code = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, orderID, subtotal, discount, total, couponCode)
	if err != nil {
		return fmt.Errorf("failed to update order financials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// UpdatePosCompletionWithTx implements OrderRepository.UpdatePosCompletionWithTx
func (r *postgresRepository) UpdatePosCompletionWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, customerName, customerPhone *string, paymentMethodID *uuid.UUID, paymentMethodName *string) error {
	query := `
		UPDATE orders
		SET customer_name = COALESCE($2, customer_name),
		    customer_phone = COALESCE($3, customer_phone),
		    payment_method_id = COALESCE($4, payment_method_id),
		    payment_method_name = COALESCE($5, payment_method_name),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, orderID, customerName, customerPhone, paymentMethodID, paymentMethodName)
	if err != nil {
		return fmt.Errorf("failed to update order completion fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// UpdateShippingInfo implements OrderRepository.UpdateShippingInfo
func (r *postgresRepository) UpdateShippingInfo(ctx context.Context, orderID uuid.UUID, carrier *string, fee *decimal.Decimal, estimatedDeliveryAt *time.Time) error {
	query := `
		UPDATE orders
		SET shipping_carrier = COALESCE($2, shipping_carrier),
		    shipping_fee = COALESCE($3, shipping_fee),
		    estimated_delivery_at = COALESCE($4, estimated_delivery_at),
		    total = GREATEST(subtotal + COALESCE($3, shipping_fee) - discount_amount, 0),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, orderID, carrier, fee, estimatedDeliveryAt)
	if err != nil {
		return fmt.Errorf("failed to update shipping info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// =====================================================
// ORDER DETAIL OPERATIONS
// =====================================================

// CreateOrderDetailsWithTx implements OrderRepository.CreateOrderDetailsWithTx
func (r *postgresRepository) CreateOrderDetailsWithTx(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}

	columns := []string{
		"id", "order_id", "variant_id", "sku", "product_name",
		"size", "color", "material", "image_url",
		"price", "original_price", "discount_percent", "quantity", "created_at",
	}

	rows := make([][]interface{}, len(details))
	for i, d := range details {
		rows[i] = []interface{}{
			d.ID, d.OrderID, d.VariantID, d.SKU, d.ProductName,
			d.Size, d.Color, d.Material, d.ImageURL,
			d.Price, d.OriginalPrice, d.DiscountPercent, d.Quantity, d.CreatedAt,
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"order_details"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert order details: %w", err)
	}
	if copyCount != int64(len(details)) {
		return fmt.Errorf("expected to insert %d order details, inserted %d", len(details), copyCount)
	}

	return nil
}

// GetOrderDetailsByOrderID implements OrderRepository.GetOrderDetailsByOrderID
func (r *postgresRepository) GetOrderDetailsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderDetail, error) {
	query := `
		SELECT id, order_id, variant_id, sku, product_name,
		       size, color, material, image_url,
		       price, original_price, discount_percent, quantity, created_at
		FROM order_details
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order details: %w", err)
	}
	defer rows.Close()

	var details []model.OrderDetail
	for rows.Next() {
		var d model.OrderDetail
		err := rows.Scan(
			&d.ID, &d.OrderID, &d.VariantID, &d.SKU, &d.ProductName,
			&d.Size, &d.Color, &d.Material, &d.ImageURL,
			&d.Price, &d.OriginalPrice, &d.DiscountPercent, &d.Quantity, &d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order details: %w", err)
	}

	return details, nil
}

// ReplaceOrderDetailsWithTx implements OrderRepository.ReplaceOrderDetailsWithTx
func (r *postgresRepository) ReplaceOrderDetailsWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, details []model.OrderDetail) error {
	_, err := tx.Exec(ctx, `DELETE FROM order_details WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order details: %w", err)
	}

	return r.CreateOrderDetailsWithTx(ctx, tx, details)
}

// =====================================================
// LIST OPERATIONS
// =====================================================

// ListOrders implements OrderRepository.ListOrders
func (r *postgresRepository) ListOrders(ctx context.Context, filter *model.ListOrdersRequest) ([]model.Order, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	addFilter := func(clause string, value interface{}) {
		where += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if filter.Code != "" {
		addFilter(` AND code = $%d`, filter.Code)
	}
	if filter.Status != "" {
		addFilter(` AND status = $%d`, filter.Status)
	}
	if filter.PaymentStatus != "" {
		addFilter(` AND payment_status = $%d`, filter.PaymentStatus)
	}
	if filter.ChannelType != "" {
		addFilter(` AND channel_type = $%d`, filter.ChannelType)
	}
	if filter.UserID != nil {
		addFilter(` AND user_id = $%d`, *filter.UserID)
	}
	if filter.StaffID != nil {
		addFilter(` AND staff_id = $%d`, *filter.StaffID)
	}
	if filter.DateFrom != nil {
		addFilter(` AND created_at >= $%d`, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		addFilter(` AND created_at < $%d`, filter.DateTo.Add(24*time.Hour))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM orders` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, total, nil
}

// CountOpenPosDrafts implements OrderRepository.CountOpenPosDrafts
func (r *postgresRepository) CountOpenPosDrafts(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE status = $1 AND channel_type IN ($2, $3)
	`

	var count int
	err := r.pool.QueryRow(ctx, query,
		model.OrderStatusPending, model.ChannelPosInstore, model.ChannelPosDelivery,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open drafts: %w", err)
	}

	return count, nil
}

// ListStalePosDrafts implements OrderRepository.ListStalePosDrafts
func (r *postgresRepository) ListStalePosDrafts(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND channel_type IN ($2, $3) AND created_at < $4
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query,
		model.OrderStatusPending, model.ChannelPosInstore, model.ChannelPosDelivery, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale drafts: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale drafts: %w", err)
	}

	return orders, nil
}

// =====================================================
// ORDER HISTORY
// =====================================================

// CreateHistoryWithTx implements OrderRepository.CreateHistoryWithTx
func (r *postgresRepository) CreateHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderHistory) error {
	query := `
		INSERT INTO order_histories (
			id, order_id, old_status, new_status,
			old_payment_status, new_payment_status,
			actor_id, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		history.ID, history.OrderID, history.OldStatus, history.NewStatus,
		history.OldPaymentStatus, history.NewPaymentStatus,
		history.ActorID, history.Note, history.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order history: %w", err)
	}

	return nil
}

// GetHistoryByOrderID implements OrderRepository.GetHistoryByOrderID
func (r *postgresRepository) GetHistoryByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	query := `
		SELECT id, order_id, old_status, new_status,
		       old_payment_status, new_payment_status,
		       actor_id, note, created_at
		FROM order_histories
		WHERE order_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	defer rows.Close()

	var histories []model.OrderHistory
	for rows.Next() {
		var h model.OrderHistory
		err := rows.Scan(
			&h.ID, &h.OrderID, &h.OldStatus, &h.NewStatus,
			&h.OldPaymentStatus, &h.NewPaymentStatus,
			&h.ActorID, &h.Note, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order history: %w", err)
	}

	return histories, nil
}
