package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/address/model"
)

// AddressRepository provides read access to customer addresses
type AddressRepository interface {
	// GetByID returns the address with the given ID.
	// Returns model.ErrAddressNotFound when no row matches.
	GetByID(ctx context.Context, addressID uuid.UUID) (*model.Address, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository creates a new PostgreSQL address repository
func NewAddressRepository(pool *pgxpool.Pool) AddressRepository {
	return &postgresRepository{pool: pool}
}

const addressColumns = `
	id, user_id, recipient_name, phone, address_line,
	province_code, province_name, district_code, district_name,
	ward_code, ward_name, is_default, created_at, updated_at
`

// GetByID implements AddressRepository.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, addressID uuid.UUID) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	var a model.Address
	err := r.pool.QueryRow(ctx, query, addressID).Scan(
		&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.AddressLine,
		&a.ProvinceCode, &a.ProvinceName, &a.DistrictCode, &a.DistrictName,
		&a.WardCode, &a.WardName, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return &a, nil
}
