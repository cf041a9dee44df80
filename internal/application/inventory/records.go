package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// ProvisionRecord crea un registro vacío (quantity=0) para el par. No escribe movimiento: no cambia stock.
func (a *AdjustmentService) ProvisionRecord(ctx context.Context, productID, warehouseID string, reorderPoint *int64) (*entity.InventoryRecord, error) {
	if productID == "" || warehouseID == "" || (reorderPoint != nil && *reorderPoint < 0) {
		return nil, domain.ErrInvalidInput
	}
	if err := a.ensureCatalog(ctx, productID, warehouseID); err != nil {
		return nil, err
	}
	s := a.store
	var out *entity.InventoryRecord
	err := s.tx.Run(ctx, func(tx repository.Tx) error {
		existing, err := tx.Records.GetForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: el registro ya existe", domain.ErrConflict)
		}
		out = &entity.InventoryRecord{
			ProductID:    productID,
			WarehouseID:  warehouseID,
			ReorderPoint: reorderPoint,
			LastUpdated:  s.opts.Now().UTC(),
		}
		return tx.Records.Create(ctx, out)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: el registro ya existe", domain.ErrConflict)
		}
		return nil, err
	}
	return out, nil
}

// SetReorderPoint fija (o quita, con nil) el umbral de stock bajo.
func (a *AdjustmentService) SetReorderPoint(ctx context.Context, productID, warehouseID string, reorderPoint *int64) (*entity.InventoryRecord, error) {
	if reorderPoint != nil && *reorderPoint < 0 {
		return nil, domain.ErrInvalidInput
	}
	return a.mutateRecord(ctx, productID, warehouseID, func(rec *entity.InventoryRecord) error {
		rec.ReorderPoint = reorderPoint
		return nil
	})
}

// Retire retira el registro: sigue legible pero no acepta reservas ni ajustes positivos.
// No se puede retirar mientras tenga unidades reservadas.
func (a *AdjustmentService) Retire(ctx context.Context, productID, warehouseID string) (*entity.InventoryRecord, error) {
	return a.mutateRecord(ctx, productID, warehouseID, func(rec *entity.InventoryRecord) error {
		if rec.Reserved > 0 {
			return fmt.Errorf("%w: el registro tiene %d unidades reservadas", domain.ErrConflict, rec.Reserved)
		}
		rec.Retired = true
		return nil
	})
}

// mutateRecord cambia metadatos del registro bajo bloqueo, sin tocar los contadores.
func (a *AdjustmentService) mutateRecord(ctx context.Context, productID, warehouseID string, fn func(rec *entity.InventoryRecord) error) (*entity.InventoryRecord, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	s := a.store
	return retry(ctx, s, func() (*entity.InventoryRecord, error) {
		var out *entity.InventoryRecord
		err := s.tx.Run(ctx, func(tx repository.Tx) error {
			rec, err := tx.Records.GetForUpdate(ctx, productID, warehouseID)
			if err != nil {
				return err
			}
			if rec == nil {
				return domain.ErrNotFound
			}
			next := *rec
			if err := fn(&next); err != nil {
				return err
			}
			next.Version = rec.Version + 1
			next.LastUpdated = s.opts.Now().UTC()
			if err := tx.Records.Update(ctx, &next); err != nil {
				return err
			}
			out = &next
			return nil
		})
		return out, err
	})
}
