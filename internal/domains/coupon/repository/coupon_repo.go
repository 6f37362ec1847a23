package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/coupon/model"
)

// postgresRepository implements CouponRepository
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository creates a new PostgreSQL coupon repository
func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &postgresRepository{pool: pool}
}

const couponColumns = `
	id, code, name, type, value, min_order_value, max_discount,
	usage_limit, used_count, valid_from, valid_to, status,
	created_at, updated_at
`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.Type, &c.Value, &c.MinOrderValue, &c.MaxDiscount,
		&c.UsageLimit, &c.UsedCount, &c.ValidFrom, &c.ValidTo, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode implements CouponRepository.GetByCode
func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon by code: %w", err)
	}

	return coupon, nil
}

// GetByID implements CouponRepository.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, couponID uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, couponID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return coupon, nil
}

// IncrementUsageWithTx implements CouponRepository.IncrementUsageWithTx
func (r *postgresRepository) IncrementUsageWithTx(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM coupons WHERE id = $1)`
		if err := tx.QueryRow(ctx, checkQuery, couponID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check coupon existence: %w", err)
		}
		if !exists {
			return model.ErrCouponNotFound
		}
		return model.ErrCouponExhausted
	}

	return nil
}
