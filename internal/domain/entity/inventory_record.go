package entity

import (
	"math"
	"time"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
)

// InventoryRecord existencias de un producto en una bodega. Clave compuesta (ProductID, WarehouseID):
// existe exactamente un registro por par. Nunca se borra; se retira con Retired.
type InventoryRecord struct {
	ProductID    string
	WarehouseID  string
	Quantity     int64  // stock físico total
	Reserved     int64  // retenido para órdenes pendientes de pago
	ReorderPoint *int64 // umbral opcional de stock bajo
	Retired      bool
	Version      int64
	LastUpdated  time.Time
}

// Available stock vendible: Quantity - Reserved.
func (r *InventoryRecord) Available() int64 {
	return r.Quantity - r.Reserved
}

// IsLowStock true si hay punto de reorden y el disponible está en o por debajo de él.
func (r *InventoryRecord) IsLowStock() bool {
	return r.ReorderPoint != nil && r.Available() <= *r.ReorderPoint
}

// Oversold disponible negativo. Solo se marca; las operaciones ya impiden llegar aquí.
func (r *InventoryRecord) Oversold() bool {
	return r.Available() < 0
}

// WithDelta devuelve el registro resultante de aplicar ambos deltas, sin mutar el receptor.
// Rechaza con ErrInsufficientStock si quantity o reserved quedarían negativos.
func (r InventoryRecord) WithDelta(quantityDelta, reservedDelta int64, now time.Time) (InventoryRecord, error) {
	if overflows(r.Quantity, quantityDelta) || overflows(r.Reserved, reservedDelta) {
		return r, domain.ErrInvalidInput
	}
	next := r
	next.Quantity = r.Quantity + quantityDelta
	next.Reserved = r.Reserved + reservedDelta
	if next.Quantity < 0 || next.Reserved < 0 {
		return r, domain.ErrInsufficientStock
	}
	next.Version = r.Version + 1
	next.LastUpdated = now
	return next, nil
}

// overflows true si a + b desborda int64.
func overflows(a, b int64) bool {
	return (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b)
}
