package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la orden.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Estados del pago de la orden.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

// Order orden de compra del storefront. El núcleo de stock solo la referencia por ID
// y actualiza estado/pago como efecto del checkout.
type Order struct {
	ID                  string
	CustomerEmail       string
	CustomerName        string
	ShippingAddress     string
	Status              OrderStatus
	PaymentStatus       PaymentStatus
	Total               decimal.Decimal
	PaymentID           string
	PaidAt              *time.Time
	NeedsReconciliation bool
	ReconciliationNote  string
	Items               []OrderItem
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AwaitingPayment true mientras la orden sigue PENDING/PENDING.
func (o *Order) AwaitingPayment() bool {
	return o.Status == OrderStatusPending && o.PaymentStatus == PaymentStatusPending
}

// OrderItem línea de la orden.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
