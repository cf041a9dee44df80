package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// QueryService lecturas del inventario y del ledger para el back-office.
type QueryService struct {
	store      *Store
	movements  repository.MovementRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	reports    ReportGenerator
}

// NewQueryService construye el servicio de consultas. reports puede ser nil si no se sirve el PDF.
func NewQueryService(
	store *Store,
	movements repository.MovementRepository,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	reports ReportGenerator,
) *QueryService {
	return &QueryService{
		store:      store,
		movements:  movements,
		products:   products,
		warehouses: warehouses,
		reports:    reports,
	}
}

// GetInventoryList listado paginado de registros con datos de producto y bodega.
func (q *QueryService) GetInventoryList(ctx context.Context, req dto.InventoryListRequest) (*dto.InventoryListResponse, error) {
	req.DefaultPage()
	rows, total, err := q.store.records.List(ctx, repository.InventoryFilter{
		WarehouseID: req.WarehouseID,
		Search:      req.Search,
		Limit:       req.Limit,
		Offset:      req.PageRequest.Offset(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryRecordDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRecordDTO(r))
	}
	return &dto.InventoryListResponse{
		Inventory:  out,
		Pagination: dto.NewPageResponse(req.PageRequest, total),
	}, nil
}

// ListLowStock registros en o por debajo de su punto de reorden (warehouseID vacío = todas).
func (q *QueryService) ListLowStock(ctx context.Context, warehouseID string) ([]dto.InventoryRecordDTO, error) {
	rows, err := q.store.records.ListLowStock(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryRecordDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRecordDTO(r))
	}
	return out, nil
}

// ListMovements ledger filtrado, en orden de creación.
func (q *QueryService) ListMovements(ctx context.Context, req dto.MovementListRequest) ([]dto.MovementDTO, error) {
	if req.ProductID == "" && req.WarehouseID == "" && req.ReferenceID == "" {
		return nil, fmt.Errorf("%w: se requiere product_id, warehouse_id o reference_id", domain.ErrInvalidInput)
	}
	req.DefaultPage()
	entries, err := q.movements.List(ctx, repository.MovementFilter{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		ReferenceID: req.ReferenceID,
		From:        req.From,
		To:          req.To,
		Limit:       req.Limit,
		Offset:      req.PageRequest.Offset(),
	})
	if err != nil {
		return nil, err
	}
	return toMovementDTOs(entries), nil
}

// MovementsByReference todos los movimientos de una referencia (p. ej. una orden).
func (q *QueryService) MovementsByReference(ctx context.Context, referenceID string) ([]dto.MovementDTO, error) {
	if referenceID == "" {
		return nil, domain.ErrInvalidInput
	}
	entries, err := q.movements.List(ctx, repository.MovementFilter{ReferenceID: referenceID})
	if err != nil {
		return nil, err
	}
	return toMovementDTOs(entries), nil
}

// Reconcile compara la suma de deltas del ledger con quantity, bajo el bloqueo del registro
// para no observar una transacción a medias.
func (q *QueryService) Reconcile(ctx context.Context, productID, warehouseID string) (*dto.ReconciliationDTO, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.ReconciliationDTO
	err := q.store.tx.Run(ctx, func(tx repository.Tx) error {
		rec, err := tx.Records.GetForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		sum, err := tx.Movements.SumDeltas(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		out = &dto.ReconciliationDTO{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    rec.Quantity,
			LedgerSum:   sum,
			Difference:  rec.Quantity - sum,
			Consistent:  rec.Quantity == sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		q.store.log.Error().
			Str("product_id", productID).
			Str("warehouse_id", warehouseID).
			Int64("quantity", out.Quantity).
			Int64("ledger_sum", out.LedgerSum).
			Bool("reconciliation", true).
			Msg("el ledger no cuadra con el registro")
	}
	return out, nil
}

// MovementReport PDF con el ledger completo de un registro.
func (q *QueryService) MovementReport(ctx context.Context, productID, warehouseID string) ([]byte, error) {
	if q.reports == nil {
		return nil, fmt.Errorf("%w: generador de reportes no configurado", domain.ErrInternal)
	}
	rec, err := q.store.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	entries, err := q.movements.List(ctx, repository.MovementFilter{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return nil, err
	}
	report := dto.MovementReportDTO{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    rec.Quantity,
		Reserved:    rec.Reserved,
		GeneratedAt: q.store.opts.Now().UTC(),
		Movements:   toMovementDTOs(entries),
	}
	for _, e := range entries {
		report.LedgerSum += e.QuantityDelta
	}
	products, err := q.products.GetByIDs(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	if p := products[productID]; p != nil {
		report.ProductName, report.SKU = p.Name, p.SKU
	}
	wh, err := q.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh != nil {
		report.WarehouseName = wh.Name
	}
	return q.reports.GenerateMovementReport(report)
}

func toRecordDTO(r repository.InventoryRow) dto.InventoryRecordDTO {
	rec := r.Record
	return dto.InventoryRecordDTO{
		ProductID:     rec.ProductID,
		WarehouseID:   rec.WarehouseID,
		ProductName:   r.ProductName,
		SKU:           r.SKU,
		WarehouseName: r.WarehouseName,
		Quantity:      rec.Quantity,
		Reserved:      rec.Reserved,
		Available:     rec.Available(),
		ReorderPoint:  rec.ReorderPoint,
		LowStock:      rec.IsLowStock(),
		Oversold:      rec.Oversold(),
		Retired:       rec.Retired,
		LastUpdated:   rec.LastUpdated,
	}
}

// ToRecordDTO registro suelto (respuestas de ajustes y provisión).
func ToRecordDTO(rec *entity.InventoryRecord) dto.InventoryRecordDTO {
	return toRecordDTO(repository.InventoryRow{Record: *rec})
}

func toMovementDTOs(entries []*entity.MovementLedgerEntry) []dto.MovementDTO {
	out := make([]dto.MovementDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.MovementDTO{
			ID:            e.ID,
			Seq:           e.Seq,
			ProductID:     e.ProductID,
			WarehouseID:   e.WarehouseID,
			MovementType:  string(e.Type),
			QuantityDelta: e.QuantityDelta,
			ReferenceID:   e.ReferenceID,
			Note:          e.Note,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
