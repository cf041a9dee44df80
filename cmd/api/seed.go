package main

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/internal/infrastructure/memory"
)

// seedDemo catálogo mínimo para probar el storefront con STORAGE_DRIVER=memory.
func seedDemo(s *memory.Store) {
	s.SeedWarehouse(entity.Warehouse{ID: "wh-central", Name: "Bodega Central", Address: "Cra 7 # 12-40", Active: true})
	s.SeedWarehouse(entity.Warehouse{ID: "wh-norte", Name: "Bodega Norte", Address: "Cll 170 # 45-10", Active: true})

	products := []entity.Product{
		{ID: "prod-camiseta", SKU: "CAM-001", Name: "Camiseta básica", Price: decimal.RequireFromString("39900"), Active: true},
		{ID: "prod-gorra", SKU: "GOR-001", Name: "Gorra bordada", Price: decimal.RequireFromString("25000"), Active: true},
		{ID: "prod-taza", SKU: "TAZ-001", Name: "Taza de cerámica", Price: decimal.RequireFromString("18500"), Active: true},
	}
	for _, p := range products {
		s.SeedProduct(p)
	}

	reorder := int64(5)
	s.SeedRecord(entity.InventoryRecord{ProductID: "prod-camiseta", WarehouseID: "wh-central", Quantity: 20, ReorderPoint: &reorder})
	s.SeedRecord(entity.InventoryRecord{ProductID: "prod-camiseta", WarehouseID: "wh-norte", Quantity: 8})
	s.SeedRecord(entity.InventoryRecord{ProductID: "prod-gorra", WarehouseID: "wh-central", Quantity: 3, ReorderPoint: &reorder})
	s.SeedRecord(entity.InventoryRecord{ProductID: "prod-taza", WarehouseID: "wh-norte", Quantity: 12})
}
