package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain/repository"
)

// TxRunner transacción con repositorios atados (la misma que usa el motor de stock).
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Tx) error) error
}

// Validator colaborador de validación: devuelve *domain.ValidationError con errores por campo.
type Validator interface {
	Validate(v any) error
}

// PaymentRequest cobro de una orden. CardNumber nunca se registra.
type PaymentRequest struct {
	Amount     decimal.Decimal
	OrderID    string
	CardNumber string
}

// PaymentResult respuesta de la pasarela.
type PaymentResult struct {
	Success   bool
	PaymentID string
}

// PaymentGateway pasarela de pago externa. Un fallo es terminal para ese checkout (sin reintentos).
type PaymentGateway interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

// CacheInvalidator invalidación de caché por tags, de mejor esfuerzo.
type CacheInvalidator interface {
	InvalidateTags(ctx context.Context, tags ...string) error
}

// StockService operaciones del motor de stock que consume el checkout.
type StockService interface {
	CheckStockAvailability(ctx context.Context, lines []inventory.Line) (inventory.Availability, error)
	AllocateLines(ctx context.Context, lines []inventory.Line) ([]inventory.Allocation, error)
	ReserveStock(ctx context.Context, productID, warehouseID string, quantity int64, orderID string) (inventory.ReservationResult, error)
	ReleaseReservation(ctx context.Context, productID, warehouseID string, quantity int64, orderID string) error
	ConfirmSale(ctx context.Context, productID, warehouseID string, quantity int64, orderID string) error
}
