package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comic-store-api/internal/application/customers"
	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// CustomerHandler maneja clientes y niveles de membresía (protegido).
type CustomerHandler struct {
	uc *customers.UseCase
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *customers.UseCase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

// Create POST /api/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	customer, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// List GET /api/customers?search=&tier_id=&limit=20&offset=0
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.uc.List(c.UserContext(), entity.CustomerFilter{
		Search: c.Query("search"),
		TierID: c.Query("tier_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/customers/:id
func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
	customer, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(customer)
}

// Update PUT /api/customers/:id
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	customer, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(customer)
}

// UpdateTier PUT /api/customers/:id/tier (solo admin). Queda registrado en el historial.
func (h *CustomerHandler) UpdateTier(c *fiber.Ctx) error {
	var in dto.UpdateTierRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.TierID == "" {
		return badRequest(c, "VALIDATION", "tier_id es requerido")
	}
	customer, err := h.uc.UpdateTier(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(customer)
}

// History GET /api/customers/:id/tier-history
func (h *CustomerHandler) History(c *fiber.Ctx) error {
	list, err := h.uc.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// Tiers GET /api/tiers
func (h *CustomerHandler) Tiers(c *fiber.Ctx) error {
	list, err := h.uc.ListTiers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
