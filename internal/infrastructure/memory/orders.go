package memory

import (
	"context"
	"slices"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos en memoria.
type OrderRepo struct{ h handle }

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.h.do(func(d *data) error {
		for _, other := range d.orders {
			if other.Number == o.Number {
				return domain.ErrDocumentNumberTaken
			}
		}
		cp := *o
		cp.Lines = slices.Clone(o.Lines)
		d.orders[o.ID] = cp
		d.orderSeq = append(d.orderSeq, o.ID)
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.h.do(func(d *data) error {
		if o, ok := d.orders[id]; ok {
			o.Lines = slices.Clone(o.Lines)
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) NumberExists(_ context.Context, number string) (bool, error) {
	exists := false
	err := r.h.do(func(d *data) error {
		for _, o := range d.orders {
			if o.Number == number {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *OrderRepo) UpdateStatus(_ context.Context, id string, status entity.OrderStatus, notes string, at time.Time) error {
	return r.h.do(func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		o.Status = status
		o.Notes = notes
		o.UpdatedAt = at
		d.orders[id] = o
		return nil
	})
}

// List más recientes primero.
func (r *OrderRepo) List(_ context.Context, f entity.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	err := r.h.do(func(d *data) error {
		list := make([]*entity.Order, 0)
		for i := len(d.orderSeq) - 1; i >= 0; i-- {
			o := d.orders[d.orderSeq[i]]
			if f.CustomerID != "" && o.CustomerID != f.CustomerID {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			if f.From != nil && o.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && o.CreatedAt.After(*f.To) {
				continue
			}
			o.Lines = slices.Clone(o.Lines)
			list = append(list, &o)
		}
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}
