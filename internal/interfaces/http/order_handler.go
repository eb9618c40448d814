package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/application/orders"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// HeaderIdempotencyKey permite reintentar POST /api/orders sin duplicar el pedido.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler maneja pedidos de clientes (protegido).
type OrderHandler struct {
	workflow *orders.Workflow
}

// NewOrderHandler construye el handler.
func NewOrderHandler(workflow *orders.Workflow) *OrderHandler {
	return &OrderHandler{workflow: workflow}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Reserva stock de todas las líneas en una transacción; si una falla no se aplica ninguna.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                  false  "Clave de idempotencia"
// @Param        body             body    dto.CreateOrderRequest  true   "customer_id, lines, notes"
// @Success      201  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.CustomerID == "" || len(in.Lines) == 0 {
		return badRequest(c, "VALIDATION", "customer_id y al menos una línea son requeridos")
	}
	out, err := h.workflow.CreateOrder(c.UserContext(), GetUserID(c), in, c.Get(HeaderIdempotencyKey))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener pedido con sus líneas
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.workflow.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        customer_id  query  string  false  "Cliente"
// @Param        status       query  string  false  "pendiente | procesado | enviado | entregado | cancelado"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	status := entity.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return badRequest(c, "VALIDATION", "status inválido")
	}
	from, err := timeParam(c, "from", false)
	if err != nil {
		return respondError(c, err)
	}
	to, err := timeParam(c, "to", true)
	if err != nil {
		return respondError(c, err)
	}
	limit, offset := pageParams(c)
	out, err := h.workflow.List(c.UserContext(), entity.OrderFilter{
		CustomerID: c.Query("customer_id"),
		Status:     status,
		From:       from,
		To:         to,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado del pedido
// @Description  Pasar a cancelado devuelve el stock reservado.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.UpdateOrderStatusRequest  true  "status, notes"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Status == "" {
		return badRequest(c, "VALIDATION", "status es requerido")
	}
	out, err := h.workflow.UpdateStatus(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.workflow.CancelOrder(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Comprobante PDF del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/pdf [get]
func (h *OrderHandler) PDF(c *fiber.Ctx) error {
	pdf, filename, err := h.workflow.Receipt(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}
