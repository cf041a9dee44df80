package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger de movimientos sobre PostgreSQL. La tabla rechaza UPDATE y DELETE por trigger.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento y completa Seq con el asignado por la base.
func (r *MovementRepo) Create(ctx context.Context, e *entity.MovementLedgerEntry) error {
	query := `
		INSERT INTO stock_movements (id, product_id, warehouse_id, movement_type, quantity_delta, reference_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		e.ID, e.ProductID, e.WarehouseID, string(e.Type), e.QuantityDelta, e.ReferenceID, e.Note, e.CreatedAt,
	).Scan(&e.Seq)
	return classify("create stock movement", err)
}

// List movimientos filtrados en orden de creación.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementLedgerEntry, error) {
	query := `
		SELECT seq, id, product_id, warehouse_id, movement_type, quantity_delta, reference_id, note, created_at
		FROM stock_movements WHERE 1=1`
	args := []any{}
	pos := 1
	add := func(cond string, v any) {
		query += fmt.Sprintf(cond, pos)
		args = append(args, v)
		pos++
	}
	if f.ProductID != "" {
		add(" AND product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add(" AND warehouse_id = $%d", f.WarehouseID)
	}
	if f.ReferenceID != "" {
		add(" AND reference_id = $%d", f.ReferenceID)
	}
	if f.From != nil {
		add(" AND created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND created_at <= $%d", *f.To)
	}
	query += fmt.Sprintf(" ORDER BY seq LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitArg(f.Limit), f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.MovementLedgerEntry
	for rows.Next() {
		var e entity.MovementLedgerEntry
		var movementType string
		if err := rows.Scan(&e.Seq, &e.ID, &e.ProductID, &e.WarehouseID, &movementType,
			&e.QuantityDelta, &e.ReferenceID, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		e.Type = entity.MovementType(movementType)
		list = append(list, &e)
	}
	return list, rows.Err()
}

// SumDeltas suma de quantity_delta del par.
func (r *MovementRepo) SumDeltas(ctx context.Context, productID, warehouseID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_delta), 0)::BIGINT
		FROM stock_movements WHERE product_id = $1 AND warehouse_id = $2`,
		productID, warehouseID,
	).Scan(&sum)
	if err != nil {
		return 0, classify("sum stock movements", err)
	}
	return sum, nil
}
