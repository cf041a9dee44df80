package inventory

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// AdjustStockInput ajuste administrativo. Quantity es el delta con signo.
type AdjustStockInput struct {
	ProductID    string
	WarehouseID  string
	Quantity     int64
	MovementType entity.MovementType
	Note         string
	ReferenceID  string
}

// AdjustmentService cambios directos de quantity por motivos administrativos (no toca reserved).
type AdjustmentService struct {
	store      *Store
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
}

// NewAdjustmentService construye el servicio de ajustes.
func NewAdjustmentService(
	store *Store,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
) *AdjustmentService {
	return &AdjustmentService{
		store:      store,
		products:   products,
		warehouses: warehouses,
	}
}

// AdjustStock aplica el delta y registra el movimiento del tipo indicado.
// Un delta positivo sobre un par sin registro lo crea; uno negativo devuelve domain.ErrNotFound.
// Si quantity + delta < reserved se rechaza con *domain.AdjustmentRejectedError sin mutar nada.
func (a *AdjustmentService) AdjustStock(ctx context.Context, in AdjustStockInput) (*entity.InventoryRecord, error) {
	if in.ProductID == "" || in.WarehouseID == "" || !in.MovementType.Manual() {
		return nil, domain.ErrInvalidInput
	}
	if !in.MovementType.AcceptsDelta(in.Quantity) {
		return nil, fmt.Errorf("%w: delta %d no válido para %s", domain.ErrInvalidInput, in.Quantity, in.MovementType)
	}
	s := a.store
	if in.Quantity > 0 {
		existing, err := s.records.Get(ctx, in.ProductID, in.WarehouseID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if err := a.ensureCatalog(ctx, in.ProductID, in.WarehouseID); err != nil {
				return nil, err
			}
		}
	}
	rec, err := retry(ctx, s, func() (*entity.InventoryRecord, error) {
		var out *entity.InventoryRecord
		err := s.tx.Run(ctx, func(tx repository.Tx) error {
			rec, err := tx.Records.GetForUpdate(ctx, in.ProductID, in.WarehouseID)
			if err != nil {
				return err
			}
			if rec == nil {
				if in.Quantity < 0 {
					return domain.ErrNotFound
				}
				rec = &entity.InventoryRecord{
					ProductID:   in.ProductID,
					WarehouseID: in.WarehouseID,
					LastUpdated: s.opts.Now().UTC(),
				}
				if err := tx.Records.Create(ctx, rec); err != nil {
					return err
				}
			}
			if rec.Retired && in.Quantity > 0 {
				return fmt.Errorf("%w: el registro está retirado", domain.ErrInvalidInput)
			}
			if in.Quantity > 0 && rec.Quantity > math.MaxInt64-in.Quantity {
				return fmt.Errorf("%w: el delta %d desborda la cantidad del registro", domain.ErrInvalidInput, in.Quantity)
			}
			if rec.Quantity+in.Quantity < rec.Reserved {
				return &domain.AdjustmentRejectedError{
					ProductID:   in.ProductID,
					WarehouseID: in.WarehouseID,
					Quantity:    rec.Quantity,
					Reserved:    rec.Reserved,
					Delta:       in.Quantity,
				}
			}
			out, err = s.applyLocked(ctx, tx, rec, Delta{
				ProductID:     in.ProductID,
				WarehouseID:   in.WarehouseID,
				QuantityDelta: in.Quantity,
				Type:          in.MovementType,
				ReferenceID:   in.ReferenceID,
				Note:          in.Note,
			})
			return err
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.add(s.metrics.adjustments, 1, attribute.String("type", string(in.MovementType)))
	s.log.Info().
		Str("product_id", in.ProductID).
		Str("warehouse_id", in.WarehouseID).
		Str("movement_type", string(in.MovementType)).
		Int64("delta", in.Quantity).
		Int64("quantity", rec.Quantity).
		Int64("reserved", rec.Reserved).
		Msg("ajuste de stock aplicado")
	if rec.Oversold() {
		s.log.Warn().Str("product_id", in.ProductID).Str("warehouse_id", in.WarehouseID).Msg("disponible negativo tras el ajuste")
	}
	return rec, nil
}

// ensureCatalog verifica que producto y bodega existan antes de crear un registro.
func (a *AdjustmentService) ensureCatalog(ctx context.Context, productID, warehouseID string) error {
	products, err := a.products.GetByIDs(ctx, []string{productID})
	if err != nil {
		return err
	}
	if products[productID] == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	wh, err := a.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if !wh.Active {
		return fmt.Errorf("%w: la bodega %s está inactiva", domain.ErrInvalidInput, warehouseID)
	}
	return nil
}
