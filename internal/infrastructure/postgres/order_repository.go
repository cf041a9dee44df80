package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, customer_email, customer_name, shipping_address, status, payment_status, total,
	payment_id, paid_at, needs_reconciliation, reconciliation_note, created_at, updated_at`

// OrderRepo órdenes del storefront e ítems.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste cabecera e ítems. Debe llamarse dentro de una transacción.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := r.q.Exec(ctx, query,
		o.ID, o.CustomerEmail, o.CustomerName, o.ShippingAddress, string(o.Status), string(o.PaymentStatus),
		o.Total, o.PaymentID, o.PaidAt, o.NeedsReconciliation, o.ReconciliationNote, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return classify("create order", err)
	}
	for _, it := range o.Items {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
		); err != nil {
			return classify("create order item", err)
		}
	}
	return nil
}

// GetByID orden con ítems; (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea la cabecera de la orden.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *OrderRepo) get(ctx context.Context, id, suffix string) (*entity.Order, error) {
	var o entity.Order
	var status, paymentStatus string
	err := r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`+suffix, id).Scan(
		&o.ID, &o.CustomerEmail, &o.CustomerName, &o.ShippingAddress, &status, &paymentStatus, &o.Total,
		&o.PaymentID, &o.PaidAt, &o.NeedsReconciliation, &o.ReconciliationNote, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get order", err)
	}
	o.Status = entity.OrderStatus(status)
	o.PaymentStatus = entity.PaymentStatus(paymentStatus)

	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, classify("list order items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update actualiza la cabecera (estado, pago, conciliación).
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, payment_id = $4, paid_at = $5,
		    needs_reconciliation = $6, reconciliation_note = $7, updated_at = $8
		WHERE id = $1`,
		o.ID, string(o.Status), string(o.PaymentStatus), o.PaymentID, o.PaidAt,
		o.NeedsReconciliation, o.ReconciliationNote, o.UpdatedAt,
	)
	if err != nil {
		return classify("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: orden %s", domain.ErrNotFound, o.ID)
	}
	return nil
}

// Delete borra la orden; los ítems caen por ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return classify("delete order", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: orden %s", domain.ErrNotFound, id)
	}
	return nil
}
