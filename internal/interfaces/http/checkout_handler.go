package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-stock-api/internal/application/checkout"
	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// CheckoutHandler checkout del storefront y lectura de órdenes (público).
type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	orders       *checkout.OrderQuery
	log          *logger.Logger
}

// NewCheckoutHandler construye el handler.
func NewCheckoutHandler(orchestrator *checkout.Orchestrator, orders *checkout.OrderQuery, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator, orders: orders, log: log}
}

// Checkout godoc
// @Summary      Ejecutar checkout
// @Description  Valida el carrito, reserva stock, cobra y confirma la venta. Ante un fallo previo a la
//
//	confirmación libera las reservas y elimina la orden.
//
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "customer, items[], payment"
// @Success      201   {object}  dto.CheckoutResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      402   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/checkout [post]
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.orchestrator.Checkout(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetOrder godoc
// @Summary      Estado de una orden
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderStatusDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	out, err := h.orders.GetOrderStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// AdminGetOrder godoc
// @Summary      Obtener orden completa
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/orders/{id} [get]
func (h *CheckoutHandler) AdminGetOrder(c *fiber.Ctx) error {
	out, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
