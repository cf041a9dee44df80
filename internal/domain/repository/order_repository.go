package repository

import (
	"context"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// OrderRepository puerto de persistencia de órdenes (colaborador externo del núcleo de stock).
type OrderRepository interface {
	// Create persiste la cabecera y sus ítems.
	Create(ctx context.Context, order *entity.Order) error
	// GetByID y GetForUpdate devuelven (nil, nil) si la orden no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id string) error
}
