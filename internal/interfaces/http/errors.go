package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

var errInvalidBody = errors.New("cuerpo inválido")

// writeError traduce la taxonomía de dominio a status y dto.ErrorResponse.
// Los errores no clasificados se registran completos y salen con un mensaje genérico.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var validation *domain.ValidationError
	var insufficient *domain.InsufficientStockError
	var partial *domain.PartialConfirmationError

	switch {
	case errors.Is(err, errInvalidBody):
		return invalidBody(c)
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: domain.ErrValidation.Error(), Fields: validation.Fields,
		})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrAdjustmentRejected):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ADJUSTMENT_REJECTED", Message: err.Error()})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: domain.ErrInsufficientStock.Error(), ProductIDs: insufficient.ProductIDs,
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: domain.ErrInsufficientStock.Error()})
	case errors.Is(err, domain.ErrNoActiveReservation), errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrPaymentFailed):
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{Code: "PAYMENT_FAILED", Message: domain.ErrPaymentFailed.Error()})
	case errors.Is(err, domain.ErrConcurrentModification):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CONCURRENT_MODIFICATION", Message: domain.ErrConcurrentModification.Error()})
	case errors.As(err, &partial):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "RECONCILIATION_REQUIRED", Message: "el pago fue recibido; la orden " + partial.OrderID + " queda en revisión",
		})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: domain.ErrUnauthorized.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: domain.ErrForbidden.Error()})
	default:
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error no clasificado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: domain.ErrInternal.Error()})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
