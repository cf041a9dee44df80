package repository

import (
	"context"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// ProductRepository lectura del catálogo necesaria para el checkout y los reportes.
type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
}
