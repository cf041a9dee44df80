package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// MovementFilter filtro de consulta del ledger. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	ReferenceID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// MovementRepository puerto del ledger de movimientos. Solo inserción: no hay Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, entry *entity.MovementLedgerEntry) error
	// List devuelve los movimientos en orden de creación.
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementLedgerEntry, error)
	SumDeltas(ctx context.Context, productID, warehouseID string) (int64, error)
}
