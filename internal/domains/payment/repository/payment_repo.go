package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/payment/model"
)

// PaymentMethodRepository provides read access to payment methods
type PaymentMethodRepository interface {
	// GetByID returns the payment method with the given ID.
	// Returns model.ErrPaymentMethodNotFound when no row matches.
	GetByID(ctx context.Context, methodID uuid.UUID) (*model.PaymentMethod, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentMethodRepository creates a new PostgreSQL payment method repository
func NewPaymentMethodRepository(pool *pgxpool.Pool) PaymentMethodRepository {
	return &postgresRepository{pool: pool}
}

// GetByID implements PaymentMethodRepository.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, methodID uuid.UUID) (*model.PaymentMethod, error) {
	query := `
		SELECT id, code, name, is_active, created_at, updated_at
		FROM payment_methods
		WHERE id = $1
	`

	var m model.PaymentMethod
	err := r.pool.QueryRow(ctx, query, methodID).
		Scan(&m.ID, &m.Code, &m.Name, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}

	return &m, nil
}
