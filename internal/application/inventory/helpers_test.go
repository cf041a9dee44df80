package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: store en memoria con un producto y dos bodegas
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodP = "prod-p"
	prodQ = "prod-q"
	whA   = "wh-a"
	whB   = "wh-b"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	mem         *memory.Store
	clock       *clock
	store       *inventory.Store
	manager     *inventory.ReservationManager
	adjustments *inventory.AdjustmentService
	queries     *inventory.QueryService
	sweeper     *inventory.Sweeper
	reports     *fakeReports
}

type fixtureOption func(*inventory.Options)

func withPolicy(policy, defaultWarehouse string) fixtureOption {
	return func(o *inventory.Options) {
		o.AvailabilityPolicy = policy
		o.DefaultWarehouseID = defaultWarehouse
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, nil, opts...)
}

// newFixtureWithRunner wrap permite envolver el TxRunner del store en memoria (p. ej. para inyectar conflictos).
func newFixtureWithRunner(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner, opts ...fixtureOption) *fixture {
	t.Helper()
	mem := memory.NewStore()
	mem.SeedProduct(entity.Product{ID: prodP, SKU: "P-001", Name: "Producto P", Price: decimal.NewFromInt(100), Active: true})
	mem.SeedProduct(entity.Product{ID: prodQ, SKU: "Q-001", Name: "Producto Q", Price: decimal.NewFromInt(50), Active: true})
	mem.SeedWarehouse(entity.Warehouse{ID: whA, Name: "Bodega A", Active: true})
	mem.SeedWarehouse(entity.Warehouse{ID: whB, Name: "Bodega B", Active: true})

	clk := &clock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	o := inventory.Options{MaxConflictRetries: 3, ReservationTTL: 30 * time.Minute, Now: clk.Now}
	for _, fn := range opts {
		fn(&o)
	}
	var runner inventory.TxRunner = mem
	if wrap != nil {
		runner = wrap(mem)
	}
	store := inventory.NewStore(runner, mem.Records(), o, logger.Nop())
	manager := inventory.NewReservationManager(store)
	reports := &fakeReports{}
	return &fixture{
		mem:         mem,
		clock:       clk,
		store:       store,
		manager:     manager,
		adjustments: inventory.NewAdjustmentService(store, mem.Products(), mem.Warehouses()),
		queries:     inventory.NewQueryService(store, mem.Movements(), mem.Products(), mem.Warehouses(), reports),
		sweeper:     inventory.NewSweeper(manager, mem.Reservations(), time.Minute, 50),
		reports:     reports,
	}
}

func (f *fixture) seed(productID, warehouseID string, quantity, reserved int64) {
	f.mem.SeedRecord(entity.InventoryRecord{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
		Reserved:    reserved,
	})
}

func (f *fixture) record(t *testing.T, productID, warehouseID string) *entity.InventoryRecord {
	t.Helper()
	rec, err := f.store.Get(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) reservation(t *testing.T, orderID, productID, warehouseID string) *entity.Reservation {
	t.Helper()
	var out *entity.Reservation
	require.NoError(t, f.mem.Run(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = tx.Reservations.GetForUpdate(context.Background(), orderID, productID, warehouseID)
		return err
	}))
	return out
}

func (f *fixture) pendingOrder(t *testing.T, orderID string) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.mem.Run(context.Background(), func(tx repository.Tx) error {
		return tx.Orders.Create(context.Background(), &entity.Order{
			ID:            orderID,
			CustomerEmail: "ana@example.com",
			CustomerName:  "Ana",
			Status:        entity.OrderStatusPending,
			PaymentStatus: entity.PaymentStatusPending,
			Total:         decimal.NewFromInt(100),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}))
}

func (f *fixture) movements(t *testing.T, productID, warehouseID string) []*entity.MovementLedgerEntry {
	t.Helper()
	list, err := f.mem.Movements().List(context.Background(), repository.MovementFilter{ProductID: productID, WarehouseID: warehouseID})
	require.NoError(t, err)
	return list
}

// fakeReports captura el DTO que recibiría el generador PDF.
type fakeReports struct {
	last *dto.MovementReportDTO
}

func (r *fakeReports) GenerateMovementReport(report dto.MovementReportDTO) ([]byte, error) {
	r.last = &report
	return []byte("%PDF-fake"), nil
}

// flakyRunner falla con ErrConcurrentModification las primeras `failures` transacciones.
type flakyRunner struct {
	mu       sync.Mutex
	inner    inventory.TxRunner
	failures int
	calls    int
}

func (r *flakyRunner) Run(ctx context.Context, fn func(tx repository.Tx) error) error {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return domain.ErrConcurrentModification
	}
	return r.inner.Run(ctx, fn)
}
