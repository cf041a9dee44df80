package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-stock-api/internal/application/dto"
	"github.com/jhoicas/tienda-stock-api/internal/application/inventory"
	"github.com/jhoicas/tienda-stock-api/internal/domain"
	"github.com/jhoicas/tienda-stock-api/internal/domain/entity"
	"github.com/jhoicas/tienda-stock-api/pkg/logger"
)

// Validator valida los bodies de entrada; devuelve *domain.ValidationError.
type Validator interface {
	Validate(v any) error
}

// InventoryHandler disponibilidad pública y back-office de inventario.
type InventoryHandler struct {
	reservations *inventory.ReservationManager
	adjustments  *inventory.AdjustmentService
	queries      *inventory.QueryService
	sweeper      *inventory.Sweeper
	validator    Validator
	log          *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	reservations *inventory.ReservationManager,
	adjustments *inventory.AdjustmentService,
	queries *inventory.QueryService,
	sweeper *inventory.Sweeper,
	validator Validator,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		reservations: reservations,
		adjustments:  adjustments,
		queries:      queries,
		sweeper:      sweeper,
		validator:    validator,
		log:          log,
	}
}

// bind parsea y valida el body; los errores se responden con writeError.
func (h *InventoryHandler) bind(c *fiber.Ctx, in any) error {
	if err := c.BodyParser(in); err != nil {
		return errInvalidBody
	}
	return h.validator.Validate(in)
}

// Availability godoc
// @Summary      Consultar disponibilidad
// @Description  Pre-chequeo sin bloqueos; la garantía real la da la reserva en el checkout.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "lines[] {product_id, quantity}"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/availability [post]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if err := h.bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	lines := make([]inventory.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	res, err := h.reservations.CheckStockAvailability(c.UserContext(), lines)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AvailabilityResponse{Available: res.Available, OutOfStock: res.OutOfStock})
}

// List godoc
// @Summary      Listar inventario
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      json
// @Param        page          query  int     false  "Página (1..n)"
// @Param        limit         query  int     false  "Tamaño de página (máx. 100)"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        search        query  string  false  "Nombre o SKU"
// @Success      200  {object}  dto.InventoryListResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var in dto.InventoryListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.queries.GetInventoryList(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Registros bajo el punto de reorden
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Success      200  {array}   dto.InventoryRecordDTO
// @Router       /api/admin/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.queries.ListLowStock(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "records": list})
}

// Adjust godoc
// @Summary      Ajuste administrativo de stock
// @Description  quantity es el delta con signo. Se rechaza si la existencia quedaría por debajo de lo reservado.
// @Tags         admin-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, warehouse_id, quantity, movement_type"
// @Success      200   {object}  dto.InventoryRecordDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := h.bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	rec, err := h.adjustments.AdjustStock(c.UserContext(), inventory.AdjustStockInput{
		ProductID:    in.ProductID,
		WarehouseID:  in.WarehouseID,
		Quantity:     in.Quantity,
		MovementType: entity.MovementType(in.MovementType),
		Note:         in.Note,
		ReferenceID:  in.ReferenceID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToRecordDTO(rec))
}

// Provision godoc
// @Summary      Crear registro de inventario en cero
// @Tags         admin-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProvisionRecordRequest  true  "product_id, warehouse_id, reorder_point"
// @Success      201   {object}  dto.InventoryRecordDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/records [post]
func (h *InventoryHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionRecordRequest
	if err := h.bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	rec, err := h.adjustments.ProvisionRecord(c.UserContext(), in.ProductID, in.WarehouseID, in.ReorderPoint)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToRecordDTO(rec))
}

// SetReorderPoint godoc
// @Summary      Fijar o quitar el punto de reorden
// @Tags         admin-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReorderPointRequest  true  "reorder_point null elimina el umbral"
// @Success      200   {object}  dto.InventoryRecordDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/records/reorder-point [put]
func (h *InventoryHandler) SetReorderPoint(c *fiber.Ctx) error {
	var in dto.ReorderPointRequest
	if err := h.bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	rec, err := h.adjustments.SetReorderPoint(c.UserContext(), in.ProductID, in.WarehouseID, in.ReorderPoint)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToRecordDTO(rec))
}

// Retire godoc
// @Summary      Retirar registro
// @Description  El registro deja de aceptar reservas y entradas; sigue siendo consultable.
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.InventoryRecordDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/records [delete]
func (h *InventoryHandler) Retire(c *fiber.Ctx) error {
	var in dto.RecordKeyRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Validate(&in); err != nil {
		return writeError(c, h.log, err)
	}
	rec, err := h.adjustments.Retire(c.UserContext(), in.ProductID, in.WarehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToRecordDTO(rec))
}

// Movements godoc
// @Summary      Consultar el ledger de movimientos
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        reference_id  query  string  false  "Referencia (p. ej. orden)"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Success      200  {array}   dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	var in dto.MovementListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	var err error
	if in.From, err = parseTime(c.Query("from")); err != nil {
		return writeError(c, h.log, err)
	}
	if in.To, err = parseTime(c.Query("to")); err != nil {
		return writeError(c, h.log, err)
	}
	list, err := h.queries.ListMovements(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "movements": list})
}

// MovementReport godoc
// @Summary      Reporte PDF del ledger de un registro
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/movements/report.pdf [get]
func (h *InventoryHandler) MovementReport(c *fiber.Ctx) error {
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	pdf, err := h.queries.MovementReport(c.UserContext(), productID, warehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="movimientos-%s-%s.pdf"`, productID, warehouseID))
	return c.Send(pdf)
}

// Reconcile godoc
// @Summary      Conciliar ledger contra existencia
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.ReconciliationDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/inventory/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.queries.Reconcile(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Sweep godoc
// @Summary      Forzar un barrido de reservas vencidas
// @Tags         admin-inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SweepResultDTO
// @Router       /api/admin/inventory/reservations/sweep [post]
func (h *InventoryHandler) Sweep(c *fiber.Ctx) error {
	out, err := h.sweeper.SweepOnce(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Path: "from/to", Message: "fecha RFC3339 inválida"}}}
	}
	return &t, nil
}
