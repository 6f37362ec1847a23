package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/stock/model"
)

// MovementRef identifies the business event behind a stock mutation,
// recorded on the audit row written alongside every counter change.
type MovementRef struct {
	ReferenceType string
	ReferenceID   *uuid.UUID
	ActorID       *uuid.UUID
	Note          *string
}

// Ledger performs atomic conditional updates against the two stock
// counters of a product variant. Reserve and Release move
// available_quantity only; Commit moves quantity only; DirectDeduct
// moves both in a single statement. Every mutation appends a movement
// audit row in the same transaction.
type Ledger interface {
	// CheckAvailable reports whether at least qty units are free to
	// reserve. Read-only, so callers must still expect the paired
	// mutation to fail under concurrency.
	CheckAvailable(ctx context.Context, variantID uuid.UUID, qty int) (bool, error)

	// ReserveWithTx decrements available_quantity by qty, failing with
	// model.ErrInsufficientStock when fewer units are free
	ReserveWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error

	// ReleaseWithTx returns qty previously reserved units to available_quantity
	ReleaseWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error

	// CommitWithTx decrements on-hand quantity by qty on fulfilment of a
	// reservation made earlier with ReserveWithTx
	CommitWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error

	// DirectDeductWithTx decrements quantity and available_quantity
	// together, failing with model.ErrInsufficientStock when on-hand
	// stock is short. Used for immediate point-of-sale fulfilment.
	DirectDeductWithTx(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref MovementRef) error

	// GetMovementsByReference returns the audit trail for a business
	// event, oldest first
	GetMovementsByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) ([]model.StockMovement, error)
}
