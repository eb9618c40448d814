package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.SalesReportRepository = (*SalesReportRepo)(nil)

// SalesReportRepo consultas agregadas sobre orders y order_lines.
type SalesReportRepo struct {
	q Querier
}

// NewSalesReportRepository construye el adaptador de reportes.
func NewSalesReportRepository(q Querier) *SalesReportRepo {
	return &SalesReportRepo{q: q}
}

// SalesMetrics usa COALESCE para devolver cero en períodos sin ventas.
func (r *SalesReportRepo) SalesMetrics(ctx context.Context, from, to time.Time) (entity.SalesMetrics, error) {
	const query = `
	SELECT
	    COUNT(DISTINCT o.id)                        AS orders,
	    COALESCE(SUM(l.quantity), 0)                AS units,
	    COALESCE(SUM(l.subtotal), 0)                AS revenue,
	    COALESCE(SUM(l.quantity * p.price_buy), 0)  AS cost
	FROM orders o
	JOIN order_lines l ON l.order_id = o.id
	JOIN products    p ON p.id       = l.product_id
	WHERE o.created_at BETWEEN $1 AND $2
	  AND o.status <> 'cancelado'`

	var m entity.SalesMetrics
	if err := r.q.QueryRow(ctx, query, from, to).Scan(&m.Orders, &m.Units, &m.Revenue, &m.Cost); err != nil {
		return entity.SalesMetrics{}, fmt.Errorf("sales report metrics: %w", err)
	}
	return m, nil
}

// TopProducts ordena por ingreso y desempata por SKU.
func (r *SalesReportRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]entity.ProductSales, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    SUM(l.quantity)               AS quantity,
	    SUM(l.subtotal)               AS revenue,
	    SUM(l.quantity * p.price_buy) AS cost
	FROM order_lines l
	JOIN orders   o ON o.id = l.order_id
	JOIN products p ON p.id = l.product_id
	WHERE o.created_at BETWEEN $1 AND $2
	  AND o.status <> 'cancelado'
	GROUP BY p.id, p.sku, p.name
	ORDER BY revenue DESC, p.sku
	LIMIT $3`

	rows, err := r.q.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("sales report top products: %w", err)
	}
	defer rows.Close()

	out := []entity.ProductSales{}
	for rows.Next() {
		var ps entity.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.SKU, &ps.Name, &ps.Quantity, &ps.Revenue, &ps.Cost); err != nil {
			return nil, fmt.Errorf("sales report top products scan: %w", err)
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales report top products rows: %w", err)
	}
	return out, nil
}
