package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/domain"
)

// errorMapping traduce un sentinel de dominio a status HTTP y código de error.
type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: se toma la primera coincidencia con errors.Is.
var errorMappings = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE"},
	{domain.ErrOutOfStock, fiber.StatusConflict, "OUT_OF_STOCK"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDocumentNumberExhausted, fiber.StatusServiceUnavailable, "DOCUMENT_NUMBER_EXHAUSTED"},
	{domain.ErrConfigurationMissing, fiber.StatusInternalServerError, "CONFIGURATION_MISSING"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
}

// mapError devuelve status, código y mensaje para err. Lo no reconocido es INTERNAL sin detalles.
func mapError(err error) (int, string, string) {
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		code := "INSUFFICIENT_STOCK"
		if errors.Is(stockErr.Kind, domain.ErrOutOfStock) {
			code = "OUT_OF_STOCK"
		}
		return fiber.StatusConflict, code, stockErr.Error()
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, err.Error()
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL", "error interno del servidor"
}

// respondError escribe el cuerpo {code, message}. Los errores no mapeados se registran en el log.
func respondError(c *fiber.Ctx, err error) error {
	status, code, msg := mapError(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Str("code", code).Msg("error atendiendo petición")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return badRequest(c, "INVALID_BODY", "cuerpo inválido")
}

// ErrorHandler manejador global de Fiber: errores de ruteo (*fiber.Error) conservan su status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusBadRequest:
			code = "INVALID_BODY"
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}
	return respondError(c, err)
}

// ─── Parámetros de consulta ─────────────────────────────────────────────────

// pageParams lee limit/offset con los mismos topes en todos los listados.
func pageParams(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// timeParam acepta RFC3339 o fecha YYYY-MM-DD. Con endOfDay, una fecha sola cubre el día completo.
func timeParam(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339 o YYYY-MM-DD", domain.ErrInvalidInput, key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
