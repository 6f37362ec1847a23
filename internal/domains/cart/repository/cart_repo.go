package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/cart/model"
)

// postgresRepository implements CartRepository
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository creates a new PostgreSQL cart repository
func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &postgresRepository{pool: pool}
}

// GetByUserID implements CartRepository.GetByUserID
func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	var cart model.Cart
	err := r.pool.QueryRow(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	// First access, create an empty cart. ON CONFLICT covers a
	// concurrent first access by the same user.
	insertQuery := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, insertQuery, uuid.New(), userID, time.Now()).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return &cart, nil
}

// GetItems implements CartRepository.GetItems
func (r *postgresRepository) GetItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT id, cart_id, variant_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return items, nil
}

// ClearWithTx implements CartRepository.ClearWithTx
func (r *postgresRepository) ClearWithTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// AddItem implements CartRepository.AddItem
func (r *postgresRepository) AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) error {
	cart, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (cart_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query, uuid.New(), cart.ID, variantID, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}
