package dto

import (
	"github.com/shopspring/decimal"
)

// ProductStockResponse producto del catálogo con su disponible por bodega.
type ProductStockResponse struct {
	ID         string                  `json:"id"`
	SKU        string                  `json:"sku"`
	Name       string                  `json:"name"`
	Price      decimal.Decimal         `json:"price"`
	Active     bool                    `json:"active"`
	Available  int64                   `json:"available"`
	Warehouses []WarehouseStockSummary `json:"warehouses"`
}

// WarehouseStockSummary disponible de un producto en una bodega (registros retirados excluidos).
type WarehouseStockSummary struct {
	WarehouseID string `json:"warehouse_id"`
	Available   int64  `json:"available"`
	LowStock    bool   `json:"low_stock"`
}
