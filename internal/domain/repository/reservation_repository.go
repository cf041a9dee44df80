package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
)

// ReservationRepository puerto de persistencia de reservas (una por orden+producto+bodega).
type ReservationRepository interface {
	// Create devuelve domain.ErrConcurrentModification si ya existe la clave.
	Create(ctx context.Context, reservation *entity.Reservation) error
	// GetForUpdate devuelve (nil, nil) si no hay reserva para la clave.
	GetForUpdate(ctx context.Context, orderID, productID, warehouseID string) (*entity.Reservation, error)
	Update(ctx context.Context, reservation *entity.Reservation) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Reservation, error)
	// ListExpiredOrderIDs órdenes con reservas HELD vencidas antes de now, la más antigua primero.
	// Solo incluye órdenes que ya no existen o que siguen pendientes de pago.
	ListExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}
