package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// ProductHandler ficha pública de producto con su stock vendible.
type ProductHandler struct {
	queries *inventory.QueryService
	log     *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(queries *inventory.QueryService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{queries: queries, log: log}
}

// GetStock godoc
// @Summary      Stock de un producto
// @Description  Disponible total y por bodega. Lectura sin bloqueos; puede quedar desactualizada al instante.
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *ProductHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.queries.ProductStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
