package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

const reservationColumns = `id, order_id, product_id, warehouse_id, quantity, status, expires_at, created_at, updated_at`

// ReservationRepo reservas explícitas por (orden, producto, bodega).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	var status string
	if err := row.Scan(&res.ID, &res.OrderID, &res.ProductID, &res.WarehouseID, &res.Quantity,
		&status, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Status = entity.ReservationStatus(status)
	return &res, nil
}

// Create inserta la reserva; una clave repetida es ErrConcurrentModification.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	query := `INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.OrderID, res.ProductID, res.WarehouseID, res.Quantity,
		string(res.Status), res.ExpiresAt, res.CreatedAt, res.UpdatedAt,
	)
	return classify("create reservation", err)
}

// GetForUpdate bloquea la reserva de la línea; (nil, nil) si no existe.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, orderID, productID, warehouseID string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM stock_reservations
		WHERE order_id = $1 AND product_id = $2 AND warehouse_id = $3
		FOR UPDATE`
	res, err := scanReservation(r.q.QueryRow(ctx, query, orderID, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get reservation", err)
	}
	return res, nil
}

// Update persiste estado y cantidad.
func (r *ReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_reservations SET quantity = $2, status = $3, updated_at = $4
		WHERE id = $1`,
		res.ID, res.Quantity, string(res.Status), res.UpdatedAt,
	)
	if err != nil {
		return classify("update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: reserva %s", domain.ErrNotFound, res.ID)
	}
	return nil
}

// ListByOrder reservas de la orden ordenadas por (producto, bodega).
func (r *ReservationRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, `SELECT `+reservationColumns+`
		FROM stock_reservations WHERE order_id = $1
		ORDER BY product_id, warehouse_id`, orderID)
	if err != nil {
		return nil, classify("list reservations", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// ListExpiredOrderIDs órdenes con reservas HELD vencidas, sin orden o aún pendientes de pago.
func (r *ReservationRepo) ListExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT r.order_id
		FROM stock_reservations r
		LEFT JOIN orders o ON o.id = r.order_id
		WHERE r.status = 'HELD' AND r.expires_at < $1
		  AND (o.id IS NULL OR (o.status = 'PENDING' AND o.payment_status = 'PENDING'))
		GROUP BY r.order_id
		ORDER BY MIN(r.expires_at), r.order_id
		LIMIT $2`, now, limitArg(limit))
	if err != nil {
		return nil, classify("list expired reservations", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
