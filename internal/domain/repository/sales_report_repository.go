package repository

import (
	"context"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// SalesReportRepository consultas de solo lectura sobre pedidos para el tablero de ventas.
type SalesReportRepository interface {
	// SalesMetrics totales del rango [from, to]. Sin pedidos devuelve ceros.
	SalesMetrics(ctx context.Context, from, to time.Time) (entity.SalesMetrics, error)

	// TopProducts los limit productos con mayor ingreso en el rango, de mayor a menor.
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]entity.ProductSales, error)
}
