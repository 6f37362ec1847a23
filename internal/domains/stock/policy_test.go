package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/stock/model"
	"storefront-backend/internal/domains/stock/repository"
)

// recordingLedger tracks both counters in memory and logs which
// operation each policy routed to
type recordingLedger struct {
	available map[uuid.UUID]int
	onHand    map[uuid.UUID]int
	calls     []string
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{
		available: make(map[uuid.UUID]int),
		onHand:    make(map[uuid.UUID]int),
	}
}

func (l *recordingLedger) CheckAvailable(_ context.Context, variantID uuid.UUID, qty int) (bool, error) {
	return l.available[variantID] >= qty, nil
}

func (l *recordingLedger) ReserveWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, _ repository.MovementRef) error {
	l.calls = append(l.calls, "reserve")
	if l.available[variantID] < qty {
		return model.ErrInsufficientStock
	}
	l.available[variantID] -= qty
	return nil
}

func (l *recordingLedger) ReleaseWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, _ repository.MovementRef) error {
	l.calls = append(l.calls, "release")
	l.available[variantID] += qty
	return nil
}

func (l *recordingLedger) CommitWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, _ repository.MovementRef) error {
	l.calls = append(l.calls, "commit")
	if l.onHand[variantID] < qty {
		return model.ErrInsufficientStock
	}
	l.onHand[variantID] -= qty
	return nil
}

func (l *recordingLedger) DirectDeductWithTx(_ context.Context, _ pgx.Tx, variantID uuid.UUID, qty int, _ repository.MovementRef) error {
	l.calls = append(l.calls, "direct_deduct")
	if l.onHand[variantID] < qty {
		return model.ErrInsufficientStock
	}
	l.onHand[variantID] -= qty
	l.available[variantID] -= qty
	return nil
}

func (l *recordingLedger) GetMovementsByReference(_ context.Context, _ string, _ uuid.UUID) ([]model.StockMovement, error) {
	return nil, nil
}

func TestReservingPolicy_RoundTripRestoresAvailability(t *testing.T) {
	ledger := newRecordingLedger()
	variantID := uuid.New()
	ledger.onHand[variantID] = 10
	ledger.available[variantID] = 10

	policy := NewReservingPolicy(ledger)
	ref := repository.MovementRef{ReferenceType: model.ReferenceOrder}

	require.NoError(t, policy.ReserveOrDeduct(context.Background(), nil, variantID, 4, ref))
	assert.Equal(t, 6, ledger.available[variantID])
	assert.Equal(t, 10, ledger.onHand[variantID])

	require.NoError(t, policy.ReleaseOrNoop(context.Background(), nil, variantID, 4, ref))
	assert.Equal(t, 10, ledger.available[variantID])
	assert.Equal(t, 10, ledger.onHand[variantID])

	assert.Equal(t, []string{"reserve", "release"}, ledger.calls)
}

func TestReservingPolicy_CommitConsumesOnHand(t *testing.T) {
	ledger := newRecordingLedger()
	variantID := uuid.New()
	ledger.onHand[variantID] = 10
	ledger.available[variantID] = 10

	policy := NewReservingPolicy(ledger)
	ref := repository.MovementRef{ReferenceType: model.ReferenceOrder}

	require.NoError(t, policy.ReserveOrDeduct(context.Background(), nil, variantID, 3, ref))
	require.NoError(t, policy.CommitOrNoop(context.Background(), nil, variantID, 3, ref))

	assert.Equal(t, 7, ledger.available[variantID])
	assert.Equal(t, 7, ledger.onHand[variantID])
}

func TestReservingPolicy_ShortStock(t *testing.T) {
	ledger := newRecordingLedger()
	variantID := uuid.New()
	ledger.onHand[variantID] = 2
	ledger.available[variantID] = 2

	policy := NewReservingPolicy(ledger)
	err := policy.ReserveOrDeduct(context.Background(), nil, variantID, 3, repository.MovementRef{})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 2, ledger.available[variantID])
}

func TestDeductingPolicy_SingleDeduction(t *testing.T) {
	ledger := newRecordingLedger()
	variantID := uuid.New()
	ledger.onHand[variantID] = 10
	ledger.available[variantID] = 10

	policy := NewDeductingPolicy(ledger)
	ref := repository.MovementRef{ReferenceType: model.ReferenceOrder}

	require.NoError(t, policy.ReserveOrDeduct(context.Background(), nil, variantID, 4, ref))
	assert.Equal(t, 6, ledger.available[variantID])
	assert.Equal(t, 6, ledger.onHand[variantID])

	// Release and commit are no-ops for the point-of-sale strategy
	require.NoError(t, policy.ReleaseOrNoop(context.Background(), nil, variantID, 4, ref))
	require.NoError(t, policy.CommitOrNoop(context.Background(), nil, variantID, 4, ref))
	assert.Equal(t, 6, ledger.available[variantID])
	assert.Equal(t, 6, ledger.onHand[variantID])

	assert.Equal(t, []string{"direct_deduct"}, ledger.calls)
}
