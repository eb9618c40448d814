package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

type SupplierRepo struct{ h handle }

func (r *SupplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	return r.h.do(func(d *data) error {
		d.suppliers[s.ID] = *s
		return nil
	})
}

func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.h.do(func(d *data) error {
		if s, ok := d.suppliers[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SupplierRepo) Update(_ context.Context, s *entity.Supplier) error {
	return r.h.do(func(d *data) error {
		if _, ok := d.suppliers[s.ID]; !ok {
			return domain.ErrNotFound
		}
		d.suppliers[s.ID] = *s
		return nil
	})
}

func (r *SupplierRepo) List(_ context.Context, limit, offset int) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.h.do(func(d *data) error {
		list := make([]*entity.Supplier, 0, len(d.suppliers))
		for _, s := range d.suppliers {
			list = append(list, &s)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		out = paginate(list, limit, offset)
		return nil
	})
	return out, err
}
