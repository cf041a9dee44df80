package inventory_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// ─── Reserva y venta ─────────────────────────────────────────────────────────

func TestReserveStock_AgotaElDisponibleYRechazaLaSiguiente(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	res, err := f.manager.ReserveStock(ctx, prodP, whA, 10, "O1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(10), rec.Reserved)
	assert.Equal(t, int64(0), rec.Available())

	res, err = f.manager.ReserveStock(ctx, prodP, whA, 1, "O2")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, inventory.ReasonInsufficientStock, res.Reason)
	assert.Nil(t, f.reservation(t, "O2", prodP, whA), "una reserva rechazada no deja registro")
}

func TestConfirmSale_DescuentaQuantityYReserved(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 10, "O1")
	require.NoError(t, err)
	require.NoError(t, f.manager.ConfirmSale(ctx, prodP, whA, 10, "O1"))

	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(0), rec.Quantity)
	assert.Equal(t, int64(0), rec.Reserved)
	assert.Equal(t, entity.ReservationConfirmed, f.reservation(t, "O1", prodP, whA).Status)

	moves := f.movements(t, prodP, whA)
	require.Len(t, moves, 3)
	assert.Equal(t, entity.MovementReservation, moves[1].Type)
	assert.Equal(t, int64(0), moves[1].QuantityDelta)
	assert.Equal(t, entity.MovementSale, moves[2].Type)
	assert.Equal(t, int64(-10), moves[2].QuantityDelta)
	assert.Equal(t, "O1", moves[2].ReferenceID)
}

func TestReleaseReservation_DevuelveElDisponible(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 5, 0)
	ctx := context.Background()

	res, err := f.manager.ReserveStock(ctx, prodP, whA, 5, "O1")
	require.NoError(t, err)
	require.True(t, res.Success)

	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 5, "O1"))

	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(5), rec.Quantity)
	assert.Equal(t, int64(0), rec.Reserved)
	assert.Equal(t, int64(5), rec.Available())
	assert.Equal(t, entity.ReservationReleased, f.reservation(t, "O1", prodP, whA).Status)
}

func TestReserveStock_Idempotente(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := f.manager.ReserveStock(ctx, prodP, whA, 4, "O1")
		require.NoError(t, err)
		assert.True(t, res.Success)
	}
	assert.Equal(t, int64(4), f.record(t, prodP, whA).Reserved, "repetir la reserva no vuelve a retener")
	assert.Len(t, f.movements(t, prodP, whA), 2)

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 6, "O1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "otra cantidad para la misma línea es un error")
}

func TestReserveStock_RegistroInexistenteORetirado(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 3, 0)
	ctx := context.Background()

	res, err := f.manager.ReserveStock(ctx, prodP, whB, 1, "O1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, inventory.ReasonNotStocked, res.Reason)

	_, err = f.adjustments.Retire(ctx, prodP, whA)
	require.NoError(t, err)
	res, err = f.manager.ReserveStock(ctx, prodP, whA, 1, "O1")
	require.NoError(t, err)
	assert.Equal(t, inventory.ReasonNotStocked, res.Reason)
}

func TestReserveStock_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name               string
		product, wh, order string
		qty                int64
	}{
		{"cantidad cero", prodP, whA, "O1", 0},
		{"cantidad negativa", prodP, whA, "O1", -1},
		{"sin orden", prodP, whA, "", 1},
		{"sin producto", "", whA, "O1", 1},
		{"sin bodega", prodP, "", "O1", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.manager.ReserveStock(ctx, c.product, c.wh, c.qty, c.order)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestReserveStock_ConcurrenteNuncaSobrevende(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	var ok atomic.Int64
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		orderID := fmt.Sprintf("O-%02d", i)
		g.Go(func() error {
			res, err := f.manager.ReserveStock(ctx, prodP, whA, 1, orderID)
			if err != nil {
				return err
			}
			if res.Success {
				ok.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(10), ok.Load())
	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(10), rec.Reserved)
	assert.Equal(t, int64(0), rec.Available())
}

// ─── Liberación ──────────────────────────────────────────────────────────────

func TestReleaseReservation_RecortaSinDejarNegativo(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 3, "O1")
	require.NoError(t, err)

	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 7, "O1"))

	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(0), rec.Reserved)
	assert.Equal(t, int64(10), rec.Quantity)
	assert.Equal(t, entity.ReservationReleased, f.reservation(t, "O1", prodP, whA).Status)
}

func TestReleaseReservation_SinFilaDeReservaEsNoOp(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 2)

	require.NoError(t, f.manager.ReleaseReservation(context.Background(), prodP, whA, 5, "O-huerfana"))
	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(2), rec.Reserved)
	assert.Equal(t, int64(10), rec.Quantity)
	assert.Len(t, f.movements(t, prodP, whA), 1, "solo el movimiento de stock inicial")
}

func TestReleaseReservation_OrdenAjenaNoLiberaReservasDeOtras(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 5, 0)
	ctx := context.Background()

	res, err := f.manager.ReserveStock(ctx, prodP, whA, 5, "O1")
	require.NoError(t, err)
	require.True(t, res.Success)

	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 5, "O-desconocida"))
	assert.Equal(t, int64(5), f.record(t, prodP, whA).Reserved)
	assert.Equal(t, entity.ReservationHeld, f.reservation(t, "O1", prodP, whA).Status)

	res, err = f.manager.ReserveStock(ctx, prodP, whA, 5, "O2")
	require.NoError(t, err)
	assert.False(t, res.Success, "las 5 unidades siguen retenidas por O1")

	require.NoError(t, f.manager.ConfirmSale(ctx, prodP, whA, 5, "O1"))
	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(0), rec.Quantity)
	assert.Equal(t, int64(0), rec.Reserved)
}

func TestReleaseReservation_Parcial(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 6, "O1")
	require.NoError(t, err)
	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 2, "O1"))

	res := f.reservation(t, "O1", prodP, whA)
	assert.Equal(t, entity.ReservationHeld, res.Status)
	assert.Equal(t, int64(4), res.Quantity)
	assert.Equal(t, int64(4), f.record(t, prodP, whA).Reserved)
}

func TestReleaseReservation_DosVecesEsNoOp(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 4, "O1")
	require.NoError(t, err)
	_, err = f.manager.ReserveStock(ctx, prodP, whA, 3, "O2")
	require.NoError(t, err)

	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 4, "O1"))
	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 4, "O1"))

	assert.Equal(t, int64(3), f.record(t, prodP, whA).Reserved, "la segunda liberación no toca la reserva de O2")
}

func TestReleaseReservation_RegistroInexistenteNoFalla(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.manager.ReleaseReservation(context.Background(), prodP, whB, 1, "O1"))
}

func TestReleaseReservation_TrasConfirmarNoDevuelveStock(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 4, "O1")
	require.NoError(t, err)
	require.NoError(t, f.manager.ConfirmSale(ctx, prodP, whA, 4, "O1"))
	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 4, "O1"))

	rec := f.record(t, prodP, whA)
	assert.Equal(t, int64(6), rec.Quantity)
	assert.Equal(t, int64(0), rec.Reserved)
}

// ─── Confirmación ────────────────────────────────────────────────────────────

func TestConfirmSale_SinReservaActiva(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	err := f.manager.ConfirmSale(ctx, prodP, whA, 1, "O1")
	assert.ErrorIs(t, err, domain.ErrNoActiveReservation)
	assert.Equal(t, int64(10), f.record(t, prodP, whA).Quantity)

	_, err = f.manager.ReserveStock(ctx, prodP, whA, 2, "O1")
	require.NoError(t, err)
	require.NoError(t, f.manager.ReleaseReservation(ctx, prodP, whA, 2, "O1"))
	assert.ErrorIs(t, f.manager.ConfirmSale(ctx, prodP, whA, 2, "O1"), domain.ErrNoActiveReservation)
}

func TestConfirmSale_DosVecesEsNoOp(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 4, "O1")
	require.NoError(t, err)
	require.NoError(t, f.manager.ConfirmSale(ctx, prodP, whA, 4, "O1"))
	require.NoError(t, f.manager.ConfirmSale(ctx, prodP, whA, 4, "O1"))

	assert.Equal(t, int64(6), f.record(t, prodP, whA).Quantity)
	assert.Len(t, f.movements(t, prodP, whA), 3, "la segunda confirmación no escribe otro SALE")
}

func TestConfirmSale_CantidadDistintaALaReservada(t *testing.T) {
	f := newFixture(t)
	f.seed(prodP, whA, 10, 0)
	ctx := context.Background()

	_, err := f.manager.ReserveStock(ctx, prodP, whA, 4, "O1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.manager.ConfirmSale(ctx, prodP, whA, 3, "O1"), domain.ErrInvalidInput)
	assert.Equal(t, int64(4), f.record(t, prodP, whA).Reserved, "sin efecto")
}

func TestConfirmSale_RegistroInexistente(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.manager.ConfirmSale(context.Background(), prodP, whB, 1, "O1"), domain.ErrNotFound)
}

// ─── Reintentos ante conflicto ───────────────────────────────────────────────

func TestReserveStock_ReintentaConflictos(t *testing.T) {
	var runner *flakyRunner
	f := newFixtureWithRunner(t, func(inner inventory.TxRunner) inventory.TxRunner {
		runner = &flakyRunner{inner: inner, failures: 2}
		return runner
	})
	f.seed(prodP, whA, 5, 0)

	res, err := f.manager.ReserveStock(context.Background(), prodP, whA, 2, "O1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, runner.calls)
}

func TestReserveStock_AgotaReintentos(t *testing.T) {
	f := newFixtureWithRunner(t, func(inner inventory.TxRunner) inventory.TxRunner {
		return &flakyRunner{inner: inner, failures: 5}
	})
	f.seed(prodP, whA, 5, 0)

	_, err := f.manager.ReserveStock(context.Background(), prodP, whA, 2, "O1")
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, int64(0), f.record(t, prodP, whA).Reserved)
}
