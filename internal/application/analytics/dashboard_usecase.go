// Package analytics contiene el tablero de ventas: totales del día, del período y ranking de productos.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

const (
	DefaultTopProducts = 5
	MaxTopProducts     = 50
)

// DashboardUseCase genera el resumen de ventas. Solo lee; delega las consultas en el repositorio.
type DashboardUseCase struct {
	repo repository.SalesReportRepository
	now  func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repo repository.SalesReportRepository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, now: time.Now}
}

// SummaryRequest período opcional. Sin From/To se usa el mes en curso hasta el final de hoy.
type SummaryRequest struct {
	From *time.Time
	To   *time.Time
	Top  int
}

// GetSummary ejecuta en paralelo las tres consultas: hoy, período y ranking del período.
func (uc *DashboardUseCase) GetSummary(ctx context.Context, req SummaryRequest) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24*time.Hour - time.Nanosecond)

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := todayEnd
	if req.From != nil {
		from = *req.From
	}
	if req.To != nil {
		to = *req.To
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from debe ser anterior a to", domain.ErrInvalidInput)
	}
	top := req.Top
	if top <= 0 {
		top = DefaultTopProducts
	}
	if top > MaxTopProducts {
		top = MaxTopProducts
	}

	type metricsResult struct {
		m   entity.SalesMetrics
		err error
	}
	type topResult struct {
		list []entity.ProductSales
		err  error
	}
	todayCh := make(chan metricsResult, 1)
	periodCh := make(chan metricsResult, 1)
	topCh := make(chan topResult, 1)

	go func() {
		m, err := uc.repo.SalesMetrics(ctx, todayStart, todayEnd)
		todayCh <- metricsResult{m, err}
	}()
	go func() {
		m, err := uc.repo.SalesMetrics(ctx, from, to)
		periodCh <- metricsResult{m, err}
	}()
	go func() {
		list, err := uc.repo.TopProducts(ctx, from, to, top)
		topCh <- topResult{list, err}
	}()

	today, period, ranking := <-todayCh, <-periodCh, <-topCh
	if today.err != nil {
		return nil, fmt.Errorf("dashboard: ventas de hoy: %w", today.err)
	}
	if period.err != nil {
		return nil, fmt.Errorf("dashboard: ventas del período: %w", period.err)
	}
	if ranking.err != nil {
		return nil, fmt.Errorf("dashboard: ranking de productos: %w", ranking.err)
	}

	products := make([]dto.TopProductDTO, 0, len(ranking.list))
	for _, ps := range ranking.list {
		products = append(products, dto.TopProductDTO{
			ProductID: ps.ProductID,
			SKU:       ps.SKU,
			Name:      ps.Name,
			Quantity:  ps.Quantity,
			Revenue:   ps.Revenue.Round(2),
			MarginPct: marginPct(ps.Revenue, ps.Cost),
		})
	}
	return &dto.DashboardSummaryDTO{
		Today:       toMetricsDTO(today.m),
		Period:      toMetricsDTO(period.m),
		From:        from,
		To:          to,
		TopProducts: products,
		DateLabel:   monthLabel(from),
	}, nil
}

func toMetricsDTO(m entity.SalesMetrics) dto.SalesMetricsDTO {
	return dto.SalesMetricsDTO{
		Orders:    m.Orders,
		Units:     m.Units,
		Revenue:   m.Revenue.Round(2),
		Cost:      m.Cost.Round(2),
		Margin:    m.Margin().Round(2),
		MarginPct: marginPct(m.Revenue, m.Cost),
	}
}

// marginPct (ingreso - costo) / ingreso * 100; cero sin ingresos.
func marginPct(revenue, cost decimal.Decimal) decimal.Decimal {
	if !revenue.IsPositive() {
		return decimal.Zero
	}
	return revenue.Sub(cost).Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
}

// monthLabel etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
