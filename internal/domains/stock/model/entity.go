package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types recorded in the stock audit trail
const (
	MovementReserve      = "reserve"       // available_quantity decreased by a hold
	MovementRelease      = "release"       // available_quantity increased, hold undone
	MovementCommit       = "commit"        // quantity decreased on fulfilment
	MovementDirectDeduct = "direct_deduct" // both counters decreased in one step
)

// Reference types linking a movement back to its cause
const (
	ReferenceOrder = "order"
)

// StockMovement is an append-only audit record of a stock counter change
type StockMovement struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	VariantID     uuid.UUID  `json:"variant_id" db:"variant_id"`
	MovementType  string     `json:"movement_type" db:"movement_type"`
	Quantity      int        `json:"quantity" db:"quantity"`
	ReferenceType string     `json:"reference_type" db:"reference_type"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty" db:"reference_id"`
	Note          *string    `json:"note,omitempty" db:"note"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
