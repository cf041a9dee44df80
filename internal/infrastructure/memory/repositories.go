package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// ─── Registros de inventario ─────────────────────────────────────────────────

type recordRepo struct {
	s      *Store
	locked bool
}

func (r *recordRepo) Get(_ context.Context, productID, warehouseID string) (*entity.InventoryRecord, error) {
	var out *entity.InventoryRecord
	_ = r.s.with(r.locked, func(st *state) error {
		if rec, ok := st.records[recordKey{productID, warehouseID}]; ok {
			out = copyRecord(rec)
		}
		return nil
	})
	return out, nil
}

// GetForUpdate dentro de Run el mutex global ya serializa; fuera de Run equivale a Get.
func (r *recordRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *recordRepo) Create(_ context.Context, rec *entity.InventoryRecord) error {
	return r.s.with(r.locked, func(st *state) error {
		k := recordKey{rec.ProductID, rec.WarehouseID}
		if _, ok := st.records[k]; ok {
			return domain.ErrConcurrentModification
		}
		st.records[k] = copyRecord(rec)
		return nil
	})
}

func (r *recordRepo) Update(_ context.Context, rec *entity.InventoryRecord) error {
	return r.s.with(r.locked, func(st *state) error {
		k := recordKey{rec.ProductID, rec.WarehouseID}
		cur, ok := st.records[k]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Version != rec.Version-1 {
			return domain.ErrConcurrentModification
		}
		if rec.Quantity < 0 || rec.Reserved < 0 || rec.Reserved > rec.Quantity {
			return domain.ErrInsufficientStock
		}
		st.records[k] = copyRecord(rec)
		return nil
	})
}

func (r *recordRepo) ListByProduct(_ context.Context, productID string) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	_ = r.s.with(r.locked, func(st *state) error {
		for k, rec := range st.records {
			if k.productID == productID {
				out = append(out, copyRecord(rec))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (r *recordRepo) List(_ context.Context, f repository.InventoryFilter) ([]repository.InventoryRow, int, error) {
	var rows []repository.InventoryRow
	search := strings.ToLower(strings.TrimSpace(f.Search))
	_ = r.s.with(r.locked, func(st *state) error {
		for _, rec := range st.records {
			if f.WarehouseID != "" && rec.WarehouseID != f.WarehouseID {
				continue
			}
			row := joinRow(st, rec)
			if search != "" &&
				!strings.Contains(strings.ToLower(row.ProductName), search) &&
				!strings.Contains(strings.ToLower(row.SKU), search) {
				continue
			}
			rows = append(rows, row)
		}
		return nil
	})
	sortRows(rows)
	total := len(rows)
	return page(rows, f.Offset, f.Limit), total, nil
}

func (r *recordRepo) ListLowStock(_ context.Context, warehouseID string) ([]repository.InventoryRow, error) {
	var rows []repository.InventoryRow
	_ = r.s.with(r.locked, func(st *state) error {
		for _, rec := range st.records {
			if rec.Retired || !rec.IsLowStock() {
				continue
			}
			if warehouseID != "" && rec.WarehouseID != warehouseID {
				continue
			}
			rows = append(rows, joinRow(st, rec))
		}
		return nil
	})
	sortRows(rows)
	return rows, nil
}

func joinRow(st *state, rec *entity.InventoryRecord) repository.InventoryRow {
	row := repository.InventoryRow{Record: *copyRecord(rec)}
	if p, ok := st.products[rec.ProductID]; ok {
		row.ProductName, row.SKU = p.Name, p.SKU
	}
	if w, ok := st.warehouses[rec.WarehouseID]; ok {
		row.WarehouseName = w.Name
	}
	return row
}

func sortRows(rows []repository.InventoryRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductName != rows[j].ProductName {
			return rows[i].ProductName < rows[j].ProductName
		}
		if rows[i].Record.ProductID != rows[j].Record.ProductID {
			return rows[i].Record.ProductID < rows[j].Record.ProductID
		}
		return rows[i].Record.WarehouseID < rows[j].Record.WarehouseID
	})
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// ─── Ledger ──────────────────────────────────────────────────────────────────

type movementRepo struct {
	s      *Store
	locked bool
}

func (r *movementRepo) Create(_ context.Context, e *entity.MovementLedgerEntry) error {
	return r.s.with(r.locked, func(st *state) error {
		st.seq++
		c := *e
		c.Seq = st.seq
		e.Seq = st.seq
		st.movements = append(st.movements, &c)
		return nil
	})
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.MovementLedgerEntry, error) {
	var out []*entity.MovementLedgerEntry
	_ = r.s.with(r.locked, func(st *state) error {
		for _, e := range st.movements {
			if matchMovement(e, f) {
				c := *e
				out = append(out, &c)
			}
		}
		return nil
	})
	return page(out, f.Offset, f.Limit), nil
}

func matchMovement(e *entity.MovementLedgerEntry, f repository.MovementFilter) bool {
	switch {
	case f.ProductID != "" && e.ProductID != f.ProductID:
		return false
	case f.WarehouseID != "" && e.WarehouseID != f.WarehouseID:
		return false
	case f.ReferenceID != "" && e.ReferenceID != f.ReferenceID:
		return false
	case f.From != nil && e.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && e.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func (r *movementRepo) SumDeltas(_ context.Context, productID, warehouseID string) (int64, error) {
	var sum int64
	_ = r.s.with(r.locked, func(st *state) error {
		for _, e := range st.movements {
			if e.ProductID == productID && e.WarehouseID == warehouseID {
				sum += e.QuantityDelta
			}
		}
		return nil
	})
	return sum, nil
}

// ─── Reservas ────────────────────────────────────────────────────────────────

type reservationRepo struct {
	s      *Store
	locked bool
}

func (r *reservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	return r.s.with(r.locked, func(st *state) error {
		k := reservationKey{res.OrderID, res.ProductID, res.WarehouseID}
		if _, ok := st.reservations[k]; ok {
			return domain.ErrConcurrentModification
		}
		c := *res
		st.reservations[k] = &c
		return nil
	})
}

func (r *reservationRepo) GetForUpdate(_ context.Context, orderID, productID, warehouseID string) (*entity.Reservation, error) {
	var out *entity.Reservation
	_ = r.s.with(r.locked, func(st *state) error {
		if res, ok := st.reservations[reservationKey{orderID, productID, warehouseID}]; ok {
			c := *res
			out = &c
		}
		return nil
	})
	return out, nil
}

func (r *reservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	return r.s.with(r.locked, func(st *state) error {
		k := reservationKey{res.OrderID, res.ProductID, res.WarehouseID}
		if _, ok := st.reservations[k]; !ok {
			return domain.ErrNotFound
		}
		c := *res
		st.reservations[k] = &c
		return nil
	})
}

func (r *reservationRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	_ = r.s.with(r.locked, func(st *state) error {
		for k, res := range st.reservations {
			if k.orderID == orderID {
				c := *res
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, nil
}

func (r *reservationRepo) ListExpiredOrderIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	oldest := map[string]time.Time{}
	_ = r.s.with(r.locked, func(st *state) error {
		for _, res := range st.reservations {
			if !res.Expired(now) {
				continue
			}
			if o, ok := st.orders[res.OrderID]; ok && !o.AwaitingPayment() {
				continue
			}
			if t, ok := oldest[res.OrderID]; !ok || res.ExpiresAt.Before(t) {
				oldest[res.OrderID] = res.ExpiresAt
			}
		}
		return nil
	})
	ids := make([]string, 0, len(oldest))
	for id := range oldest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := oldest[ids[i]], oldest[ids[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ─── Órdenes ─────────────────────────────────────────────────────────────────

type orderRepo struct {
	s      *Store
	locked bool
}

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.s.with(r.locked, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.ErrConflict
		}
		st.orders[o.ID] = copyOrder(o)
		return nil
	})
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	_ = r.s.with(r.locked, func(st *state) error {
		if o, ok := st.orders[id]; ok {
			out = copyOrder(o)
		}
		return nil
	})
	return out, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

// Update reemplaza la cabecera; los ítems no cambian después de crear la orden.
func (r *orderRepo) Update(_ context.Context, o *entity.Order) error {
	return r.s.with(r.locked, func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.ErrNotFound
		}
		c := copyOrder(o)
		c.Items = cur.Items
		st.orders[o.ID] = c
		return nil
	})
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	return r.s.with(r.locked, func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.orders, id)
		return nil
	})
}

// ─── Catálogo ────────────────────────────────────────────────────────────────

type catalogRepo struct {
	s *Store
}

func (r *catalogRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	_ = r.s.with(false, func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				c := *p
				out[id] = &c
			}
		}
		return nil
	})
	return out, nil
}

func (r *catalogRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	_ = r.s.with(false, func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			c := *w
			out = &c
		}
		return nil
	})
	return out, nil
}

func (r *catalogRepo) List(_ context.Context) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	_ = r.s.with(false, func(st *state) error {
		for _, w := range st.warehouses {
			c := *w
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
