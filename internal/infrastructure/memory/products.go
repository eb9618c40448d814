package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct{ h handle }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.h.do(func(d *data) error {
		for _, other := range d.products {
			if other.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(d *data) error {
		if p, ok := d.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(d *data) error {
		for _, p := range d.products {
			if p.SKU == sku {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: la transacción ya tiene acceso exclusivo.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.h.do(func(d *data) error {
		cur, ok := d.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		stock := cur.StockActual
		cur = *p
		cur.StockActual = stock
		d.products[p.ID] = cur
		return nil
	})
}

func (r *ProductRepo) UpdateStock(_ context.Context, id string, stock int, at time.Time) error {
	return r.h.do(func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.StockActual = stock
		p.UpdatedAt = at
		d.products[id] = p
		return nil
	})
}

func (r *ProductRepo) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	return r.h.do(func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.Active = active
		p.UpdatedAt = at
		d.products[id] = p
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, f entity.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(d *data) error {
		search := strings.ToLower(f.Search)
		list := make([]*entity.Product, 0, len(d.products))
		for _, p := range d.products {
			if f.OnlyActive && !p.Active {
				continue
			}
			if f.Kind != "" && p.Kind != f.Kind {
				continue
			}
			if f.CategoryID != "" && p.CategoryID != f.CategoryID {
				continue
			}
			if f.SupplierID != "" && p.SupplierID != f.SupplierID {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
				continue
			}
			list = append(list, &p)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *ProductRepo) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(d *data) error {
		for _, p := range d.products {
			if p.Active && p.IsLowStock() {
				out = append(out, &p)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
		return nil
	})
	return out, err
}
