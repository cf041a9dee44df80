package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemDTO línea de orden en respuestas.
type OrderItemDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderStatusDTO vista pública de GET /api/orders/:id, sin datos del cliente ni del pago.
type OrderStatusDTO struct {
	ID                  string          `json:"id"`
	Status              string          `json:"status"`
	PaymentStatus       string          `json:"payment_status"`
	Total               decimal.Decimal `json:"total"`
	NeedsReconciliation bool            `json:"needs_reconciliation"`
	Items               []OrderItemDTO  `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
}

// OrderDTO orden completa para GET /api/admin/orders/:id.
type OrderDTO struct {
	ID                  string          `json:"id"`
	CustomerEmail       string          `json:"customer_email"`
	CustomerName        string          `json:"customer_name"`
	Status              string          `json:"status"`
	PaymentStatus       string          `json:"payment_status"`
	PaymentID           string          `json:"payment_id,omitempty"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	Total               decimal.Decimal `json:"total"`
	NeedsReconciliation bool            `json:"needs_reconciliation"`
	Items               []OrderItemDTO  `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
}
