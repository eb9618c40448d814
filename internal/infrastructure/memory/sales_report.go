package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.SalesReportRepository = (*SalesReportRepo)(nil)

// SalesReportRepo agregados de ventas calculados sobre los pedidos en memoria.
type SalesReportRepo struct{ h handle }

// SalesReport devuelve el repositorio de reportes.
func (s *Store) SalesReport() *SalesReportRepo {
	return &SalesReportRepo{h: handle{s: s}}
}

// soldLines recorre las líneas de pedidos no cancelados creados en [from, to].
func soldLines(d *data, from, to time.Time, fn func(o entity.Order, l entity.OrderLine, p entity.Product)) {
	for _, id := range d.orderSeq {
		o := d.orders[id]
		if o.Status == entity.OrderCancelado || o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		for _, l := range o.Lines {
			fn(o, l, d.products[l.ProductID])
		}
	}
}

func (r *SalesReportRepo) SalesMetrics(_ context.Context, from, to time.Time) (entity.SalesMetrics, error) {
	m := entity.SalesMetrics{Revenue: decimal.Zero, Cost: decimal.Zero}
	err := r.h.do(func(d *data) error {
		orders := map[string]struct{}{}
		soldLines(d, from, to, func(o entity.Order, l entity.OrderLine, p entity.Product) {
			orders[o.ID] = struct{}{}
			m.Units += l.Quantity
			m.Revenue = m.Revenue.Add(l.Subtotal)
			m.Cost = m.Cost.Add(p.PriceBuy.Mul(decimal.NewFromInt(int64(l.Quantity))))
		})
		m.Orders = len(orders)
		return nil
	})
	return m, err
}

func (r *SalesReportRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]entity.ProductSales, error) {
	out := []entity.ProductSales{}
	err := r.h.do(func(d *data) error {
		byProduct := map[string]*entity.ProductSales{}
		soldLines(d, from, to, func(_ entity.Order, l entity.OrderLine, p entity.Product) {
			ps, ok := byProduct[l.ProductID]
			if !ok {
				ps = &entity.ProductSales{ProductID: l.ProductID, SKU: p.SKU, Name: p.Name}
				byProduct[l.ProductID] = ps
			}
			ps.Quantity += l.Quantity
			ps.Revenue = ps.Revenue.Add(l.Subtotal)
			ps.Cost = ps.Cost.Add(p.PriceBuy.Mul(decimal.NewFromInt(int64(l.Quantity))))
		})
		for _, ps := range byProduct {
			out = append(out, *ps)
		}
		sort.Slice(out, func(i, j int) bool {
			if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
				return c > 0
			}
			return out[i].SKU < out[j].SKU
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}
