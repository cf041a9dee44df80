package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
// Los adaptadores de infraestructura traducen sus errores a esta taxonomía; nunca se exponen errores crudos.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrValidation             = errors.New("datos de entrada con errores de validación")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrConcurrentModification = errors.New("modificación concurrente, reintente")
	ErrPaymentFailed          = errors.New("el pago no pudo procesarse")
	ErrPartialConfirmation    = errors.New("confirmación parcial de la venta, requiere conciliación manual")
	ErrAdjustmentRejected     = errors.New("ajuste rechazado: la cantidad quedaría por debajo de lo reservado")
	ErrNoActiveReservation    = errors.New("no existe una reserva activa para la línea")
	ErrInternal               = errors.New("ocurrió un error inesperado")
)

// FieldError error de validación de un campo concreto (path estilo JSON: items[0].quantity).
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError agrupa los errores por campo de una entrada mal formada.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return ErrValidation.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError indica qué productos no tienen stock suficiente.
type InsufficientStockError struct {
	ProductIDs []string
}

func (e *InsufficientStockError) Error() string {
	if len(e.ProductIDs) == 0 {
		return ErrInsufficientStock.Error()
	}
	return fmt.Sprintf("%s para: %s", ErrInsufficientStock.Error(), strings.Join(e.ProductIDs, ", "))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// AdjustmentRejectedError ajuste administrativo que dejaría quantity < reserved.
// Cumple errors.Is tanto con ErrAdjustmentRejected como con ErrInsufficientStock.
type AdjustmentRejectedError struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	Reserved    int64
	Delta       int64
}

func (e *AdjustmentRejectedError) Error() string {
	return fmt.Sprintf("%s (producto %s, bodega %s: quantity=%d, reserved=%d, delta=%d)",
		ErrAdjustmentRejected.Error(), e.ProductID, e.WarehouseID, e.Quantity, e.Reserved, e.Delta)
}

func (e *AdjustmentRejectedError) Unwrap() []error {
	return []error{ErrAdjustmentRejected, ErrInsufficientStock}
}

// PartialConfirmationError el pago fue capturado pero no todas las líneas se confirmaron.
// Es fatal: la orden queda marcada para conciliación manual, nunca se revierte.
type PartialConfirmationError struct {
	OrderID   string
	Confirmed int
	Pending   int
	Cause     error
}

func (e *PartialConfirmationError) Error() string {
	msg := fmt.Sprintf("%s (orden %s: %d confirmadas, %d pendientes)",
		ErrPartialConfirmation.Error(), e.OrderID, e.Confirmed, e.Pending)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialConfirmationError) Unwrap() error { return ErrPartialConfirmation }
