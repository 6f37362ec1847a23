// Package stock holds the variant stock ledger and the per-channel
// policies that decide how an order interacts with it.
package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/stock/repository"
)

// Policy is the stock strategy an order channel applies at each point of
// the order lifecycle. Online orders hold a reservation from creation
// until fulfilment; point-of-sale orders skip reservations entirely and
// deduct on-hand stock once, at completion.
type Policy interface {
	// ReserveOrDeduct runs when a line item is charged against stock
	ReserveOrDeduct(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error

	// ReleaseOrNoop runs when an order is cancelled before fulfilment
	ReleaseOrNoop(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error

	// CommitOrNoop runs when an order is fulfilled
	CommitOrNoop(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error
}

type reservingPolicy struct {
	ledger repository.Ledger
}

type deductingPolicy struct {
	ledger repository.Ledger
}

// NewReservingPolicy returns the reserve/release/commit strategy used by
// online orders
func NewReservingPolicy(ledger repository.Ledger) Policy {
	return &reservingPolicy{ledger: ledger}
}

// NewDeductingPolicy returns the direct-deduction strategy used by
// point-of-sale orders. Release and commit are no-ops: nothing is ever
// reserved, and the single deduction already moved both counters.
func NewDeductingPolicy(ledger repository.Ledger) Policy {
	return &deductingPolicy{ledger: ledger}
}

func (p *reservingPolicy) ReserveOrDeduct(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error {
	return p.ledger.ReserveWithTx(ctx, tx, variantID, qty, ref)
}

func (p *reservingPolicy) ReleaseOrNoop(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error {
	return p.ledger.ReleaseWithTx(ctx, tx, variantID, qty, ref)
}

func (p *reservingPolicy) CommitOrNoop(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error {
	return p.ledger.CommitWithTx(ctx, tx, variantID, qty, ref)
}

func (p *deductingPolicy) ReserveOrDeduct(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error {
	return p.ledger.DirectDeductWithTx(ctx, tx, variantID, qty, ref)
}

func (p *deductingPolicy) ReleaseOrNoop(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error {
	return nil
}

func (p *deductingPolicy) CommitOrNoop(ctx context.Context, tx pgx.Tx, variantID uuid.UUID, qty int, ref repository.MovementRef) error {
	return nil
}
