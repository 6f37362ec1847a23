package model

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"pending to completed", OrderStatusPending, OrderStatusCompleted, true},
		{"pending to shipping", OrderStatusPending, OrderStatusShipping, false},
		{"confirmed to shipping", OrderStatusConfirmed, OrderStatusShipping, true},
		{"confirmed to completed", OrderStatusConfirmed, OrderStatusCompleted, false},
		{"shipping to completed", OrderStatusShipping, OrderStatusCompleted, true},
		{"shipping to cancelled", OrderStatusShipping, OrderStatusCancelled, false},
		{"completed to returned", OrderStatusCompleted, OrderStatusReturned, true},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPending, false},
		{"returned is terminal", OrderStatusReturned, OrderStatusCompleted, false},
		{"unknown status", "limbo", OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCalculateTotal_NeverNegative(t *testing.T) {
	order := &Order{
		Subtotal:       decimal.RequireFromString("50"),
		ShippingFee:    decimal.RequireFromString("10"),
		DiscountAmount: decimal.RequireFromString("100"),
	}
	order.CalculateTotal()
	assert.True(t, order.Total.IsZero(), "total clamps at zero, got %s", order.Total)
}

func TestCanBeCancelled(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusShipping, false},
		{OrderStatusCompleted, false},
		{OrderStatusCancelled, false},
		{OrderStatusReturned, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			order := &Order{Status: tt.status}
			assert.Equal(t, tt.want, order.CanBeCancelled())
		})
	}
}

func TestIsPos(t *testing.T) {
	assert.False(t, (&Order{ChannelType: ChannelOnline}).IsPos())
	assert.True(t, (&Order{ChannelType: ChannelPosInstore}).IsPos())
	assert.True(t, (&Order{ChannelType: ChannelPosDelivery}).IsPos())
}

func TestIsOwnedBy(t *testing.T) {
	userID := uuid.New()
	owned := &Order{UserID: &userID}
	assert.True(t, owned.IsOwnedBy(userID))
	assert.False(t, owned.IsOwnedBy(uuid.New()))

	guest := &Order{}
	assert.False(t, guest.IsOwnedBy(userID))
}

func TestGenerateOrderCode(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 45, 0, 0, time.UTC)
	code := GenerateOrderCode(now)

	assert.Len(t, code, 17)
	assert.Equal(t, "ORD2603151245", code[:13])

	suffix, err := strconv.Atoi(code[13:])
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, suffix, 0)
	assert.Less(t, suffix, 10000)
}
