package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// WarehouseHandler lectura de bodegas para el storefront.
type WarehouseHandler struct {
	queries *inventory.QueryService
	log     *logger.Logger
}

// NewWarehouseHandler construye el handler.
func NewWarehouseHandler(queries *inventory.QueryService, log *logger.Logger) *WarehouseHandler {
	return &WarehouseHandler{queries: queries, log: log}
}

// List godoc
// @Summary      Listar bodegas
// @Tags         warehouses
// @Produce      json
// @Success      200  {object}  dto.WarehouseListResponse
// @Router       /api/warehouses [get]
func (h *WarehouseHandler) List(c *fiber.Ctx) error {
	out, err := h.queries.ListWarehouses(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
