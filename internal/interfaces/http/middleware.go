package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/comic-store-api/pkg/metrics"
)

// RequestLogger registra cada petición en el log y en las métricas HTTP.
// La ruta se etiqueta con el patrón registrado (/api/orders/:id) para acotar la cardinalidad.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			// Resolver el error aquí para que el status registrado sea el definitivo.
			if hErr := c.App().Config().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		path := c.Route().Path
		statusLabel := strconv.Itoa(status)

		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path, statusLabel).Observe(elapsed.Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, statusLabel).Inc()

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID, c.Get(fiber.HeaderXRequestID))).
			Msg("http")
		return nil
	}
}
