package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/catalog/model"
)

// postgresRepository implements VariantRepository
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewVariantRepository creates a new PostgreSQL variant repository
func NewVariantRepository(pool *pgxpool.Pool) VariantRepository {
	return &postgresRepository{pool: pool}
}

const variantColumns = `
	id, product_id, sku, product_name, size, color, material, image_url,
	price, cost_price, sale_price, quantity, available_quantity,
	is_active, created_at, updated_at
`

func scanVariant(row pgx.Row) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := row.Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.ProductName, &v.Size, &v.Color, &v.Material, &v.ImageURL,
		&v.Price, &v.CostPrice, &v.SalePrice, &v.Quantity, &v.AvailableQuantity,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID implements VariantRepository.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, variantID uuid.UUID) (*model.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`

	variant, err := scanVariant(r.pool.QueryRow(ctx, query, variantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}

	sales, err := r.loadSales(ctx, []uuid.UUID{variantID})
	if err != nil {
		return nil, err
	}
	variant.Sales = sales[variantID]

	return variant, nil
}

// GetByIDs implements VariantRepository.GetByIDs
func (r *postgresRepository) GetByIDs(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*model.ProductVariant, error) {
	result := make(map[uuid.UUID]*model.ProductVariant, len(variantIDs))
	if len(variantIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		result[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variants: %w", err)
	}

	sales, err := r.loadSales(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	for id, v := range result {
		v.Sales = sales[id]
	}

	return result, nil
}

// loadSales fetches the sales linked to the given variants in one query
func (r *postgresRepository) loadSales(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID][]model.Sale, error) {
	query := `
		SELECT sv.variant_id,
		       s.id, s.name, s.discount_percent, s.start_date, s.end_date,
		       s.is_active, s.created_at, s.updated_at
		FROM sale_variants sv
		JOIN sales s ON s.id = sv.sale_id
		WHERE sv.variant_id = ANY($1)
		ORDER BY s.created_at
	`

	rows, err := r.pool.Query(ctx, query, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]model.Sale)
	for rows.Next() {
		var variantID uuid.UUID
		var s model.Sale
		err := rows.Scan(
			&variantID,
			&s.ID, &s.Name, &s.DiscountPercent, &s.StartDate, &s.EndDate,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		result[variantID] = append(result[variantID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}

	return result, nil
}
