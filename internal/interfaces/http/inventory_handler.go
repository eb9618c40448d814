package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// InventoryHandler maneja el ledger de movimientos de inventario (protegido).
type InventoryHandler struct {
	ledger *appinventory.Ledger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *appinventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  entrada suma, salida resta y ajuste fija el stock absoluto.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.ProductID == "" || !entity.MovementType(in.Type).Valid() {
		return badRequest(c, "VALIDATION", "product_id y type (entrada, salida, ajuste) son requeridos")
	}
	out, err := h.ledger.RegisterMovement(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, new_stock, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.ProductID == "" {
		return badRequest(c, "VALIDATION", "product_id es requerido")
	}
	out, err := h.ledger.Adjust(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        type        query  string  false  "entrada | salida | ajuste"
// @Param        from        query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to          query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, err := timeParam(c, "from", false)
	if err != nil {
		return respondError(c, err)
	}
	to, err := timeParam(c, "to", true)
	if err != nil {
		return respondError(c, err)
	}
	mt := entity.MovementType(c.Query("type"))
	if mt != "" && !mt.Valid() {
		return badRequest(c, "VALIDATION", "type debe ser entrada, salida o ajuste")
	}
	limit, offset := pageParams(c)
	out, err := h.ledger.List(c.UserContext(), entity.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      mt,
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
