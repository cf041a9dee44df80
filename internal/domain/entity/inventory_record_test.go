package entity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
)

func TestInventoryRecord_DisponibleYStockBajo(t *testing.T) {
	rp := int64(2)
	rec := InventoryRecord{Quantity: 5, Reserved: 3, ReorderPoint: &rp}

	assert.Equal(t, int64(2), rec.Available())
	assert.True(t, rec.IsLowStock(), "disponible igual al punto de reorden es stock bajo")
	assert.False(t, rec.Oversold())

	rec.ReorderPoint = nil
	assert.False(t, rec.IsLowStock(), "sin punto de reorden nunca es stock bajo")
}

func TestInventoryRecord_WithDelta_NoMutaElReceptor(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := InventoryRecord{Quantity: 10, Reserved: 2, Version: 4}

	next, err := rec.WithDelta(-3, 1, now)
	require.NoError(t, err)

	assert.Equal(t, int64(7), next.Quantity)
	assert.Equal(t, int64(3), next.Reserved)
	assert.Equal(t, int64(5), next.Version)
	assert.Equal(t, now, next.LastUpdated)
	assert.Equal(t, int64(10), rec.Quantity, "el original queda igual")
}

func TestInventoryRecord_WithDelta_RechazaNegativos(t *testing.T) {
	rec := InventoryRecord{Quantity: 1, Reserved: 0}

	_, err := rec.WithDelta(-2, 0, time.Now())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = rec.WithDelta(0, -1, time.Now())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestMovementType_Signos(t *testing.T) {
	cases := []struct {
		typ   MovementType
		delta int64
		ok    bool
	}{
		{MovementRestock, 5, true},
		{MovementRestock, -5, false},
		{MovementReturn, 1, true},
		{MovementDamaged, -1, true},
		{MovementDamaged, 1, false},
		{MovementSale, -2, true},
		{MovementAdjustment, -3, true},
		{MovementAdjustment, 3, true},
		{MovementAdjustment, 0, false},
		{MovementReservation, 0, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.typ.AcceptsDelta(c.delta), "%s con delta %d", c.typ, c.delta)
	}
	assert.False(t, MovementReservation.Manual())
	assert.False(t, MovementReservationRelease.Manual())
	assert.True(t, MovementReservationRelease.Valid())
	assert.False(t, MovementType("TRANSFER").Valid())
}

func TestReservation_Estados(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	res := Reservation{Status: ReservationHeld, ExpiresAt: now.Add(-time.Minute)}

	assert.False(t, res.Terminal())
	assert.True(t, res.Expired(now))

	res.Status = ReservationReleased
	assert.True(t, res.Terminal())
	assert.False(t, res.Expired(now), "una reserva liberada no vence")
}

func TestOrder_AwaitingPayment(t *testing.T) {
	o := Order{Status: OrderStatusPending, PaymentStatus: PaymentStatusPending}
	assert.True(t, o.AwaitingPayment())

	o.PaymentStatus = PaymentStatusPaid
	assert.False(t, o.AwaitingPayment())
}

func TestInventoryRecord_WithDelta_RechazaDesborde(t *testing.T) {
	rec := InventoryRecord{Quantity: math.MaxInt64 - 1, Reserved: 0}

	_, err := rec.WithDelta(5, 0, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = rec.WithDelta(0, math.MaxInt64, time.Now())
	assert.NoError(t, err, "reserved puede llegar al máximo si quantity lo cubre")
	_, err = InventoryRecord{Quantity: 10, Reserved: 1}.WithDelta(0, math.MaxInt64, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
