package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comic-store-api/internal/application/analytics"
)

// DashboardHandler tablero de ventas.
type DashboardHandler struct {
	uc *analytics.DashboardUseCase
}

func NewDashboardHandler(uc *analytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// Summary godoc
// @Summary      Resumen de ventas
// @Description  Ventas de hoy, del período (por defecto el mes en curso) y productos con mayor ingreso. Excluye pedidos cancelados.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Inicio (RFC3339 o YYYY-MM-DD)"
// @Param        to    query  string  false  "Fin (RFC3339 o YYYY-MM-DD, incluye el día completo)"
// @Param        top   query  int     false  "Productos en el ranking (default 5, max 50)"
// @Success      200  {object}  dto.DashboardSummaryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/dashboard [get]
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	from, err := timeParam(c, "from", false)
	if err != nil {
		return respondError(c, err)
	}
	to, err := timeParam(c, "to", true)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.GetSummary(c.UserContext(), analytics.SummaryRequest{
		From: from,
		To:   to,
		Top:  c.QueryInt("top", analytics.DefaultTopProducts),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
