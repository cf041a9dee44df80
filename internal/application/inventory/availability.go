package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// Line línea {producto, cantidad} de una consulta de disponibilidad o de un carrito.
type Line struct {
	ProductID string
	Quantity  int64
}

// Availability resultado de CheckStockAvailability.
type Availability struct {
	Available  bool
	OutOfStock []string
}

// Allocation parte de una línea asignada a una bodega; cada una se reserva por separado.
type Allocation struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
}

// CheckStockAvailability agrega el disponible vendible según la política configurada.
// Solo lectura y sin bloqueos: es un pre-chequeo rápido, la garantía real la da ReserveStock.
func (m *ReservationManager) CheckStockAvailability(ctx context.Context, lines []Line) (Availability, error) {
	merged, order, err := mergeLines(lines)
	if err != nil {
		return Availability{}, err
	}
	out := Availability{Available: true, OutOfStock: []string{}}
	for _, productID := range order {
		records, err := m.sellable(ctx, productID)
		if err != nil {
			return Availability{}, err
		}
		var total int64
		for _, r := range records {
			if avail := r.Available(); avail > 0 {
				if total > math.MaxInt64-avail {
					total = math.MaxInt64
				} else {
					total += avail
				}
			}
		}
		if total < merged[productID] {
			out.Available = false
			out.OutOfStock = append(out.OutOfStock, productID)
		}
	}
	return out, nil
}

// AllocateLines reparte cada línea entre bodegas, de mayor a menor disponible (empate por id de bodega).
// Con la política default_warehouse todo sale de la bodega por defecto.
// Si alguna línea no alcanza devuelve *domain.InsufficientStockError con los productos faltantes.
func (m *ReservationManager) AllocateLines(ctx context.Context, lines []Line) ([]Allocation, error) {
	merged, order, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}
	var (
		allocs []Allocation
		short  []string
	)
	for _, productID := range order {
		records, err := m.sellable(ctx, productID)
		if err != nil {
			return nil, err
		}
		sort.Slice(records, func(i, j int) bool {
			ai, aj := records[i].Available(), records[j].Available()
			if ai != aj {
				return ai > aj
			}
			return records[i].WarehouseID < records[j].WarehouseID
		})
		pending := merged[productID]
		var parts []Allocation
		for _, r := range records {
			if pending == 0 {
				break
			}
			take := min(r.Available(), pending)
			if take <= 0 {
				continue
			}
			parts = append(parts, Allocation{ProductID: productID, WarehouseID: r.WarehouseID, Quantity: take})
			pending -= take
		}
		if pending > 0 {
			short = append(short, productID)
			continue
		}
		allocs = append(allocs, parts...)
	}
	if len(short) > 0 {
		return nil, &domain.InsufficientStockError{ProductIDs: short}
	}
	return allocs, nil
}

// sellable registros que cuentan para el disponible del producto según la política.
func (m *ReservationManager) sellable(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	s := m.store
	if s.opts.AvailabilityPolicy == PolicyDefaultWarehouse {
		rec, err := s.records.Get(ctx, productID, s.opts.DefaultWarehouseID)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.Retired {
			return nil, nil
		}
		return []*entity.InventoryRecord{rec}, nil
	}
	all, err := s.records.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.InventoryRecord, 0, len(all))
	for _, r := range all {
		if !r.Retired {
			out = append(out, r)
		}
	}
	return out, nil
}

// mergeLines suma líneas repetidas del mismo producto conservando el orden de aparición.
func mergeLines(lines []Line) (map[string]int64, []string, error) {
	if len(lines) == 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	merged := make(map[string]int64, len(lines))
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return nil, nil, domain.ErrInvalidInput
		}
		if _, ok := merged[l.ProductID]; !ok {
			order = append(order, l.ProductID)
		}
		if merged[l.ProductID] > math.MaxInt64-l.Quantity {
			return nil, nil, fmt.Errorf("%w: la cantidad total de %s desborda", domain.ErrInvalidInput, l.ProductID)
		}
		merged[l.ProductID] += l.Quantity
	}
	return merged, order, nil
}
