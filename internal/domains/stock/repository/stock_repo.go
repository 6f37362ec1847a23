package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/stock/model"
)

// postgresLedger implements Ledger
type postgresLedger struct {
	pool *pgxpool.Pool
}

// NewLedger creates a new PostgreSQL stock ledger
func NewLedger(pool *pgxpool.Pool) Ledger {
	return &postgresLedger{pool: pool}
}

// CheckAvailable implements Ledger.CheckAvailable
func (r *postgresLedger) CheckAvailable(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, model.ErrInvalidQuantity
	}

	query := `SELECT available_quantity FROM product_variants WHERE id = $1`

	var available int
	err := r.pool.QueryRow(ctx, query, variantID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, model.ErrVariantNotFound
		}
		return false, fmt.Errorf("failed to check availability: %w", err)
	}

	return available >= qty, nil
}

// ReserveWithTx implements Ledger.ReserveWithTx
func (r *postgresLedger) ReserveWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error {
	query := `
		UPDATE product_variants
		SET available_quantity = available_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND available_quantity >= $2
	`
	if err := r.conditionalUpdate(ctx, tx, query, variantID, qty); err != nil {
		return err
	}
	return r.insertMovement(ctx, tx, variantID, model.MovementReserve, qty, ref)
}

// ReleaseWithTx implements Ledger.ReleaseWithTx
func (r *postgresLedger) ReleaseWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE product_variants
		SET available_quantity = available_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, variantID, qty)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVariantNotFound
	}

	return r.insertMovement(ctx, tx, variantID, model.MovementRelease, qty, ref)
}

// CommitWithTx implements Ledger.CommitWithTx
func (r *postgresLedger) CommitWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error {
	query := `
		UPDATE product_variants
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
	`
	if err := r.conditionalUpdate(ctx, tx, query, variantID, qty); err != nil {
		return err
	}
	return r.insertMovement(ctx, tx, variantID, model.MovementCommit, qty, ref)
}

// DirectDeductWithTx implements Ledger.DirectDeductWithTx
func (r *postgresLedger) DirectDeductWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error {
	query := `
		UPDATE product_variants
		SET quantity = quantity - $2,
		    available_quantity = available_quantity - $2,
		    updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
	`
	if err := r.conditionalUpdate(ctx, tx, query, variantID, qty); err != nil {
		return err
	}
	return r.insertMovement(ctx, tx, variantID, model.MovementDirectDeduct, qty, ref)
}

// conditionalUpdate runs a guarded counter update and maps a zero-row
// result to either a missing variant or insufficient stock
func (r *postgresLedger) conditionalUpdate(ctx context.Context, tx pgx.Tx, query string, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}

	tag, err := tx.Exec(ctx, query, variantID, qty)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM product_variants WHERE id = $1)`
		if err := tx.QueryRow(ctx, checkQuery, variantID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check variant existence: %w", err)
		}
		if !exists {
			return model.ErrVariantNotFound
		}
		return model.ErrInsufficientStock
	}

	return nil
}

func (r *postgresLedger) insertMovement(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, movementType string, qty int, ref MovementRef) error {
	query := `
		INSERT INTO stock_movements (
			id, variant_id, movement_type, quantity,
			reference_type, reference_id, note, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		uuid.New(),
		variantID,
		movementType,
		qty,
		ref.ReferenceType,
		ref.ReferenceID,
		ref.Note,
		ref.ActorID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}

	return nil
}

// GetMovementsByReference implements Ledger.GetMovementsByReference
func (r *postgresLedger) GetMovementsByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) ([]model.StockMovement, error) {
	query := `
		SELECT id, variant_id, movement_type, quantity,
		       reference_type, reference_id, note, created_by, created_at
		FROM stock_movements
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock movements: %w", err)
	}
	defer rows.Close()

	var movements []model.StockMovement
	for rows.Next() {
		var m model.StockMovement
		err := rows.Scan(
			&m.ID, &m.VariantID, &m.MovementType, &m.Quantity,
			&m.ReferenceType, &m.ReferenceID, &m.Note, &m.CreatedBy, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stock movements: %w", err)
	}

	return movements, nil
}
