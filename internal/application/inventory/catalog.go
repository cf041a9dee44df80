package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
)

// ProductStock ficha del producto con el disponible de cada bodega donde está almacenado.
// Es una lectura sin bloqueos, igual que CheckStockAvailability.
func (q *QueryService) ProductStock(ctx context.Context, productID string) (*dto.ProductStockResponse, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	products, err := q.products.GetByIDs(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	p := products[productID]
	if p == nil {
		return nil, domain.ErrNotFound
	}
	records, err := q.store.records.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductStockResponse{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		Price:      p.Price,
		Active:     p.Active,
		Warehouses: make([]dto.WarehouseStockSummary, 0, len(records)),
	}
	for _, rec := range records {
		if rec.Retired {
			continue
		}
		avail := rec.Available()
		if avail < 0 {
			avail = 0
		}
		out.Available += avail
		out.Warehouses = append(out.Warehouses, dto.WarehouseStockSummary{
			WarehouseID: rec.WarehouseID,
			Available:   avail,
			LowStock:    rec.IsLowStock(),
		})
	}
	sort.Slice(out.Warehouses, func(i, j int) bool {
		return out.Warehouses[i].WarehouseID < out.Warehouses[j].WarehouseID
	})
	return out, nil
}

// ListWarehouses bodegas registradas, activas o no.
func (q *QueryService) ListWarehouses(ctx context.Context) (*dto.WarehouseListResponse, error) {
	list, err := q.warehouses.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.WarehouseListResponse{Items: make([]dto.WarehouseResponse, 0, len(list))}
	for _, w := range list {
		out.Items = append(out.Items, dto.WarehouseResponse{
			ID:        w.ID,
			Name:      w.Name,
			Address:   w.Address,
			Active:    w.Active,
			CreatedAt: w.CreatedAt,
			UpdatedAt: w.UpdatedAt,
		})
	}
	return out, nil
}
