package dto

import "time"

// StockLine línea {producto, cantidad} para la consulta de disponibilidad.
type StockLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0,lte=1000"`
}

// AvailabilityRequest body para POST /api/inventory/availability.
type AvailabilityRequest struct {
	Lines []StockLine `json:"lines" validate:"required,min=1,dive"`
}

// AvailabilityResponse resultado de checkStockAvailability.
type AvailabilityResponse struct {
	Available  bool     `json:"available"`
	OutOfStock []string `json:"out_of_stock"`
}

// AdjustStockRequest body para POST /api/admin/inventory/adjustments.
// Quantity es el delta con signo (positivo entra, negativo sale).
type AdjustStockRequest struct {
	ProductID    string `json:"product_id" validate:"required"`
	WarehouseID  string `json:"warehouse_id" validate:"required"`
	Quantity     int64  `json:"quantity" validate:"required,gte=-1000000,lte=1000000"`
	MovementType string `json:"movement_type" validate:"required,oneof=ADJUSTMENT RESTOCK DAMAGED RETURN SALE"`
	Note         string `json:"note,omitempty" validate:"max=500"`
	ReferenceID  string `json:"reference_id,omitempty" validate:"max=120"`
}

// ProvisionRecordRequest body para POST /api/admin/inventory/records.
type ProvisionRecordRequest struct {
	ProductID    string `json:"product_id" validate:"required"`
	WarehouseID  string `json:"warehouse_id" validate:"required"`
	ReorderPoint *int64 `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
}

// ReorderPointRequest body para PUT /api/admin/inventory/records/reorder-point.
// ReorderPoint nil elimina el umbral.
type ReorderPointRequest struct {
	ProductID    string `json:"product_id" validate:"required"`
	WarehouseID  string `json:"warehouse_id" validate:"required"`
	ReorderPoint *int64 `json:"reorder_point" validate:"omitempty,gte=0"`
}

// RecordKeyRequest identifica un registro (retiro).
type RecordKeyRequest struct {
	ProductID   string `json:"product_id" query:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" query:"warehouse_id" validate:"required"`
}

// InventoryRecordDTO registro de inventario en respuestas.
type InventoryRecordDTO struct {
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	ProductName   string    `json:"product_name,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	WarehouseName string    `json:"warehouse_name,omitempty"`
	Quantity      int64     `json:"quantity"`
	Reserved      int64     `json:"reserved"`
	Available     int64     `json:"available"`
	ReorderPoint  *int64    `json:"reorder_point,omitempty"`
	LowStock      bool      `json:"low_stock"`
	Oversold      bool      `json:"oversold,omitempty"`
	Retired       bool      `json:"retired"`
	LastUpdated   time.Time `json:"last_updated"`
}

// InventoryListRequest filtros de GET /api/admin/inventory.
type InventoryListRequest struct {
	PageRequest
	WarehouseID string `query:"warehouse_id"`
	Search      string `query:"search" validate:"max=120"`
}

// InventoryListResponse página del listado de inventario.
type InventoryListResponse struct {
	Inventory  []InventoryRecordDTO `json:"inventory"`
	Pagination PageResponse         `json:"pagination"`
}

// MovementDTO entrada del ledger en respuestas.
type MovementDTO struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	MovementType  string    `json:"movement_type"`
	QuantityDelta int64     `json:"quantity_delta"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementListRequest filtros de GET /api/admin/inventory/movements.
type MovementListRequest struct {
	PageRequest
	ProductID   string     `query:"product_id"`
	WarehouseID string     `query:"warehouse_id"`
	ReferenceID string     `query:"reference_id"`
	From        *time.Time `query:"-"`
	To          *time.Time `query:"-"`
}

// ReconciliationDTO comparación ledger vs contador de un registro.
type ReconciliationDTO struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
	LedgerSum   int64  `json:"ledger_sum"`
	Difference  int64  `json:"difference"`
	Consistent  bool   `json:"consistent"`
}

// MovementReportDTO datos del reporte PDF del ledger de un registro.
type MovementReportDTO struct {
	ProductID     string
	ProductName   string
	SKU           string
	WarehouseID   string
	WarehouseName string
	Quantity      int64
	Reserved      int64
	LedgerSum     int64
	GeneratedAt   time.Time
	Movements     []MovementDTO
}

// SweepResultDTO resultado de un barrido de reservas vencidas.
type SweepResultDTO struct {
	OrdersExpired        int `json:"orders_expired"`
	ReservationsReleased int `json:"reservations_released"`
	Failures             int `json:"failures"`
}
