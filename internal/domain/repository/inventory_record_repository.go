package repository

import (
	"context"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// InventoryFilter filtro paginado del listado de inventario.
type InventoryFilter struct {
	WarehouseID string
	Search      string // coincide con nombre o SKU del producto
	Limit       int
	Offset      int
}

// InventoryRow fila del listado: registro más datos del producto y la bodega.
type InventoryRow struct {
	Record        entity.InventoryRecord
	ProductName   string
	SKU           string
	WarehouseName string
}

// InventoryRecordRepository puerto de persistencia de los registros de inventario.
// Get y GetForUpdate devuelven (nil, nil) si el par no existe.
type InventoryRecordRepository interface {
	Get(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error)
	// Create inserta un registro nuevo; si otro escritor lo creó antes devuelve domain.ErrConcurrentModification.
	Create(ctx context.Context, record *entity.InventoryRecord) error
	Update(ctx context.Context, record *entity.InventoryRecord) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error)
	List(ctx context.Context, filter InventoryFilter) ([]InventoryRow, int, error)
	ListLowStock(ctx context.Context, warehouseID string) ([]InventoryRow, error)
}
