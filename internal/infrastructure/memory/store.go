package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

type recordKey struct {
	productID   string
	warehouseID string
}

type reservationKey struct {
	orderID     string
	productID   string
	warehouseID string
}

// state datos del store. Se clona completo al abrir cada transacción para poder deshacerla.
type state struct {
	products     map[string]*entity.Product
	warehouses   map[string]*entity.Warehouse
	records      map[recordKey]*entity.InventoryRecord
	movements    []*entity.MovementLedgerEntry
	seq          int64
	reservations map[reservationKey]*entity.Reservation
	orders       map[string]*entity.Order
}

func newState() *state {
	return &state{
		products:     map[string]*entity.Product{},
		warehouses:   map[string]*entity.Warehouse{},
		records:      map[recordKey]*entity.InventoryRecord{},
		reservations: map[reservationKey]*entity.Reservation{},
		orders:       map[string]*entity.Order{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range s.warehouses {
		w := *v
		c.warehouses[k] = &w
	}
	for k, v := range s.records {
		c.records[k] = copyRecord(v)
	}
	// Los movimientos son inmutables: basta copiar el slice.
	c.movements = append([]*entity.MovementLedgerEntry(nil), s.movements...)
	c.seq = s.seq
	for k, v := range s.reservations {
		r := *v
		c.reservations[k] = &r
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	return c
}

// Store almacenamiento en proceso con las mismas garantías que el adaptador Postgres:
// transacciones serializadas por un mutex global y rollback completo ante error.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

// Run ejecuta fn en una transacción. Si fn falla, el estado vuelve al de antes de empezar.
// fn no debe usar los repositorios de fuera de la transacción (el mutex no es reentrante).
func (s *Store) Run(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.tx(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) tx(locked bool) repository.Tx {
	return repository.Tx{
		Records:      &recordRepo{s: s, locked: locked},
		Movements:    &movementRepo{s: s, locked: locked},
		Reservations: &reservationRepo{s: s, locked: locked},
		Orders:       &orderRepo{s: s, locked: locked},
	}
}

// Records repositorio de registros para lecturas fuera de transacción.
func (s *Store) Records() repository.InventoryRecordRepository {
	return &recordRepo{s: s}
}

// Movements repositorio del ledger fuera de transacción.
func (s *Store) Movements() repository.MovementRepository {
	return &movementRepo{s: s}
}

// Reservations repositorio de reservas fuera de transacción.
func (s *Store) Reservations() repository.ReservationRepository {
	return &reservationRepo{s: s}
}

// Orders repositorio de órdenes fuera de transacción.
func (s *Store) Orders() repository.OrderRepository {
	return &orderRepo{s: s}
}

// Products catálogo.
func (s *Store) Products() repository.ProductRepository {
	return &catalogRepo{s: s}
}

// Warehouses bodegas.
func (s *Store) Warehouses() repository.WarehouseRepository {
	return &catalogRepo{s: s}
}

// with ejecuta fn con el estado, tomando el mutex si el llamador no está dentro de Run.
func (s *Store) with(locked bool, fn func(st *state) error) error {
	if !locked {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

// SeedProduct agrega o reemplaza un producto del catálogo.
func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
		p.UpdatedAt = p.CreatedAt
	}
	s.data.products[p.ID] = &p
}

// SeedWarehouse agrega o reemplaza una bodega.
func (s *Store) SeedWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.now().UTC()
		w.UpdatedAt = w.CreatedAt
	}
	s.data.warehouses[w.ID] = &w
}

// SeedRecord crea el registro con su stock inicial y un movimiento RESTOCK por esa cantidad,
// de modo que el ledger cuadre desde el principio. Reserved se fija tal cual, sin reservas.
func (s *Store) SeedRecord(rec entity.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = now
	}
	s.data.records[recordKey{rec.ProductID, rec.WarehouseID}] = copyRecord(&rec)
	if rec.Quantity != 0 {
		s.data.seq++
		s.data.movements = append(s.data.movements, &entity.MovementLedgerEntry{
			ID:            uuid.NewString(),
			Seq:           s.data.seq,
			ProductID:     rec.ProductID,
			WarehouseID:   rec.WarehouseID,
			Type:          entity.MovementRestock,
			QuantityDelta: rec.Quantity,
			Note:          "stock inicial",
			CreatedAt:     now,
		})
	}
}

func copyRecord(r *entity.InventoryRecord) *entity.InventoryRecord {
	c := *r
	if r.ReorderPoint != nil {
		rp := *r.ReorderPoint
		c.ReorderPoint = &rp
	}
	return &c
}

func copyOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return &c
}
