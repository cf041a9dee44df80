package repository

import (
	"context"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// WarehouseRepository lectura de bodegas (el CRUD de bodegas vive fuera del núcleo).
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	List(ctx context.Context) ([]*entity.Warehouse, error)
}
