package inventory_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// ─── Ajustes administrativos ─────────────────────────────────────────────────

func adjust(productID, warehouseID string, delta int64, typ entity.MovementType) inventory.AdjustStockInput {
	return inventory.AdjustStockInput{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     delta,
		MovementType: typ,
		Note:         "conteo físico",
	}
}

func TestAdjustStock_NoBajaDeLoReservado(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 3, 1)
	ctx := context.Background()

	_, err := f.adjustments.AdjustStock(ctx, adjust(prodP, whA, -3, entity.MovementAdjustment))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAdjustmentRejected)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var rejected *domain.AdjustmentRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, int64(1), rejected.Reserved)
	assert.Equal(t, int64(3), f.record(t, prodP, whA).Quantity, "un ajuste rechazado no muta nada")
	assert.Len(t, f.movements(t, prodP, whA), 1)

	rec, err := f.adjustments.AdjustStock(ctx, adjust(prodP, whA, -2, entity.MovementAdjustment))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Quantity)
	assert.Equal(t, int64(1), rec.Reserved)
	assert.Equal(t, int64(0), rec.Available())
}

func TestAdjustStock_EscribeMovimientoConNotaYReferencia(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 4, 0)

	in := adjust(prodP, whA, -1, entity.MovementDamaged)
	in.ReferenceID = "acta-17"
	_, err := f.adjustments.AdjustStock(context.Background(), in)
	require.NoError(t, err)

	moves := f.movements(t, prodP, whA)
	require.Len(t, moves, 2)
	last := moves[1]
	assert.Equal(t, entity.MovementDamaged, last.Type)
	assert.Equal(t, int64(-1), last.QuantityDelta)
	assert.Equal(t, "acta-17", last.ReferenceID)
	assert.Equal(t, "conteo físico", last.Note)
	assert.Greater(t, last.Seq, moves[0].Seq)
}

func TestAdjustStock_PositivoCreaElRegistro(t *testing.T) {
	f := newFixture(t)

	rec, err := f.adjustments.AdjustStock(context.Background(), adjust(prodQ, whB, 7, entity.MovementRestock))
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)
	assert.Equal(t, int64(0), rec.Reserved)

	stored := f.record(t, prodQ, whB)
	assert.Equal(t, int64(7), stored.Quantity)
	assert.Len(t, f.movements(t, prodQ, whB), 1)
}

func TestAdjustStock_NegativoSobreRegistroInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.adjustments.AdjustStock(context.Background(), adjust(prodQ, whB, -1, entity.MovementAdjustment))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock_ProductoOBodegaDesconocidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.adjustments.AdjustStock(ctx, adjust("prod-fantasma", whA, 2, entity.MovementRestock))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.adjustments.AdjustStock(ctx, adjust(prodP, "wh-fantasma", 2, entity.MovementRestock))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock_SignoIncompatibleConElTipo(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 4, 0)
	ctx := context.Background()

	cases := []inventory.AdjustStockInput{
		adjust(prodP, whA, -2, entity.MovementRestock),
		adjust(prodP, whA, 2, entity.MovementDamaged),
		adjust(prodP, whA, 0, entity.MovementAdjustment),
		adjust(prodP, whA, 1, entity.MovementReservation),
	}
	for _, in := range cases {
		_, err := f.adjustments.AdjustStock(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%s con delta %d", in.MovementType, in.Quantity)
	}
	assert.Len(t, f.movements(t, prodP, whA), 1)
}

func TestAdjustStock_RegistroRetirado(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 4, 0)
	ctx := context.Background()

	_, err := f.adjustments.Retire(ctx, prodP, whA)
	require.NoError(t, err)

	_, err = f.adjustments.AdjustStock(ctx, adjust(prodP, whA, 1, entity.MovementRestock))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no entra stock a un registro retirado")

	rec, err := f.adjustments.AdjustStock(ctx, adjust(prodP, whA, -4, entity.MovementAdjustment))
	require.NoError(t, err, "sí se puede vaciar")
	assert.Equal(t, int64(0), rec.Quantity)
}

// ─── Registros ───────────────────────────────────────────────────────────────

func TestProvisionRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rp := int64(3)

	rec, err := f.adjustments.ProvisionRecord(ctx, prodQ, whA, &rp)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Quantity)
	require.NotNil(t, rec.ReorderPoint)
	assert.Equal(t, int64(3), *rec.ReorderPoint)
	assert.Empty(t, f.movements(t, prodQ, whA), "provisionar no escribe movimiento")

	_, err = f.adjustments.ProvisionRecord(ctx, prodQ, whA, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.adjustments.ProvisionRecord(ctx, "prod-fantasma", whA, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	neg := int64(-1)
	_, err = f.adjustments.ProvisionRecord(ctx, prodQ, whB, &neg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProvisionRecord_BodegaInactiva(t *testing.T) {
	f := newFixture(t)
	f.mem.SeedWarehouse(entity.Warehouse{ID: "wh-cerrada", Name: "Cerrada", Active: false})

	_, err := f.adjustments.ProvisionRecord(context.Background(), prodP, "wh-cerrada", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetReorderPoint_YStockBajo(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 4, 0)
	f.seed(prodP, whB, 40, 0)
	ctx := context.Background()

	rp := int64(5)
	rec, err := f.adjustments.SetReorderPoint(ctx, prodP, whA, &rp)
	require.NoError(t, err)
	assert.True(t, rec.IsLowStock())
	_, err = f.adjustments.SetReorderPoint(ctx, prodP, whB, &rp)
	require.NoError(t, err)

	low, err := f.queries.ListLowStock(ctx, "")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, whA, low[0].WarehouseID)
	assert.True(t, low[0].LowStock)
	assert.Equal(t, "Producto P", low[0].ProductName)

	_, err = f.adjustments.SetReorderPoint(ctx, prodP, whA, nil)
	require.NoError(t, err)
	low, err = f.queries.ListLowStock(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, low)

	_, err = f.adjustments.SetReorderPoint(ctx, prodQ, whA, &rp)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetire_ConUnidadesReservadas(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 4, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 1, "O1")
	require.NoError(t, err)

	_, err = f.adjustments.Retire(ctx, prodP, whA)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, f.record(t, prodP, whA).Retired)

	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 1, "O1"))
	rec, err := f.adjustments.Retire(ctx, prodP, whA)
	require.NoError(t, err)
	assert.True(t, rec.Retired)
}

func TestAdjustStock_DeltaQueDesbordaEsEntradaInvalida(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, math.MaxInt64-1, 1)
	ctx := context.Background()

	_, err := f.adjustments.AdjustStock(ctx, adjust(prodP, whA, 5, entity.MovementRestock))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrAdjustmentRejected)

	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(math.MaxInt64-1), rec.Quantity)
	assert.Equal(t, int64(1), rec.Reserved)
}
