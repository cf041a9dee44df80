package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

const recordColumns = `r.product_id, r.warehouse_id, r.quantity, r.reserved, r.reorder_point, r.retired, r.version, r.last_updated`

// InventoryRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

func scanRecord(row pgx.Row, extra ...any) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	dest := append([]any{
		&rec.ProductID, &rec.WarehouseID, &rec.Quantity, &rec.Reserved,
		&rec.ReorderPoint, &rec.Retired, &rec.Version, &rec.LastUpdated,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get obtiene el registro de un producto en una bodega; (nil, nil) si no existe.
func (r *InventoryRecordRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error) {
	return r.get(ctx, productID, warehouseID, "")
}

// GetForUpdate obtiene el registro y bloquea la fila hasta el fin de la transacción.
func (r *InventoryRecordRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error) {
	return r.get(ctx, productID, warehouseID, " FOR UPDATE")
}

func (r *InventoryRecordRepo) get(ctx context.Context, productID, warehouseID, suffix string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM inventory_records r WHERE r.product_id = $1 AND r.warehouse_id = $2` + suffix
	rec, err := scanRecord(r.q.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get inventory record", err)
	}
	return rec, nil
}

// Create inserta un registro nuevo. Si otro escritor lo creó antes devuelve ErrConcurrentModification.
func (r *InventoryRecordRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (product_id, warehouse_id, quantity, reserved, reorder_point, retired, version, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		rec.ProductID, rec.WarehouseID, rec.Quantity, rec.Reserved,
		rec.ReorderPoint, rec.Retired, rec.Version, rec.LastUpdated,
	)
	return classify("create inventory record", err)
}

// Update escribe el registro si la versión almacenada es la anterior a rec.Version.
func (r *InventoryRecordRepo) Update(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		UPDATE inventory_records
		SET quantity = $3, reserved = $4, reorder_point = $5, retired = $6, version = $7, last_updated = $8
		WHERE product_id = $1 AND warehouse_id = $2 AND version = $7 - 1`
	tag, err := r.q.Exec(ctx, query,
		rec.ProductID, rec.WarehouseID, rec.Quantity, rec.Reserved,
		rec.ReorderPoint, rec.Retired, rec.Version, rec.LastUpdated,
	)
	if err != nil {
		return classify("update inventory record", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: versión %d de %s/%s", domain.ErrConcurrentModification, rec.Version-1, rec.ProductID, rec.WarehouseID)
	}
	return nil
}

// ListByProduct registros del producto en todas las bodegas.
func (r *InventoryRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM inventory_records r WHERE r.product_id = $1 ORDER BY r.warehouse_id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, classify("list records by product", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// List listado paginado con datos del producto y la bodega.
func (r *InventoryRecordRepo) List(ctx context.Context, f repository.InventoryFilter) ([]repository.InventoryRow, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	pos := 1
	if f.WarehouseID != "" {
		where += fmt.Sprintf(" AND r.warehouse_id = $%d", pos)
		args = append(args, f.WarehouseID)
		pos++
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d)", pos, pos)
		args = append(args, "%"+escapeLike(s)+"%")
		pos++
	}
	from := `
		FROM inventory_records r
		LEFT JOIN products p ON p.id = r.product_id
		LEFT JOIN warehouses w ON w.id = r.warehouse_id`

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, classify("count inventory", err)
	}

	query := `SELECT ` + recordColumns + `, COALESCE(p.name, ''), COALESCE(p.sku, ''), COALESCE(w.name, '')` +
		from + where +
		fmt.Sprintf(" ORDER BY p.name, r.product_id, r.warehouse_id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limitArg(f.Limit), f.Offset)

	list, err := r.queryRows(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListLowStock registros activos con disponible en o por debajo del punto de reorden.
func (r *InventoryRecordRepo) ListLowStock(ctx context.Context, warehouseID string) ([]repository.InventoryRow, error) {
	query := `SELECT ` + recordColumns + `, COALESCE(p.name, ''), COALESCE(p.sku, ''), COALESCE(w.name, '')
		FROM inventory_records r
		LEFT JOIN products p ON p.id = r.product_id
		LEFT JOIN warehouses w ON w.id = r.warehouse_id
		WHERE NOT r.retired
		  AND r.reorder_point IS NOT NULL
		  AND r.quantity - r.reserved <= r.reorder_point
		  AND ($1 = '' OR r.warehouse_id = $1)
		ORDER BY p.name, r.product_id, r.warehouse_id`
	return r.queryRows(ctx, query, warehouseID)
}

func (r *InventoryRecordRepo) queryRows(ctx context.Context, query string, args ...any) ([]repository.InventoryRow, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list inventory", err)
	}
	defer rows.Close()
	var list []repository.InventoryRow
	for rows.Next() {
		var row repository.InventoryRow
		rec, err := scanRecord(rows, &row.ProductName, &row.SKU, &row.WarehouseName)
		if err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		row.Record = *rec
		list = append(list, row)
	}
	return list, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
