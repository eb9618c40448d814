package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo compras en memoria.
type PurchaseRepo struct{ h handle }

func (r *PurchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	return r.h.do(func(d *data) error {
		for _, other := range d.purchases {
			if other.Number == p.Number {
				return domain.ErrDocumentNumberTaken
			}
		}
		cp := *p
		cp.Lines = slices.Clone(p.Lines)
		d.purchases[p.ID] = cp
		d.purchaseSeq = append(d.purchaseSeq, p.ID)
		return nil
	})
}

func (r *PurchaseRepo) GetByID(_ context.Context, id string) (*entity.Purchase, error) {
	var out *entity.Purchase
	err := r.h.do(func(d *data) error {
		if p, ok := d.purchases[id]; ok {
			p.Lines = slices.Clone(p.Lines)
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.GetByID(ctx, id)
}

func (r *PurchaseRepo) NumberExists(_ context.Context, number string) (bool, error) {
	exists := false
	err := r.h.do(func(d *data) error {
		for _, p := range d.purchases {
			if p.Number == number {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

// Update persiste la cabecera; las líneas se conservan y cambian con UpdateLine.
func (r *PurchaseRepo) Update(_ context.Context, p *entity.Purchase) error {
	return r.h.do(func(d *data) error {
		cur, ok := d.purchases[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		lines := cur.Lines
		cur = *p
		cur.Lines = lines
		d.purchases[p.ID] = cur
		return nil
	})
}

func (r *PurchaseRepo) UpdateLine(_ context.Context, line *entity.PurchaseLine) error {
	return r.h.do(func(d *data) error {
		p, ok := d.purchases[line.PurchaseID]
		if !ok {
			return domain.ErrNotFound
		}
		for i := range p.Lines {
			if p.Lines[i].ID == line.ID {
				p.Lines = slices.Clone(p.Lines)
				p.Lines[i] = *line
				d.purchases[p.ID] = p
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

// List más recientes primero.
func (r *PurchaseRepo) List(_ context.Context, f entity.PurchaseFilter) ([]*entity.Purchase, error) {
	var out []*entity.Purchase
	err := r.h.do(func(d *data) error {
		list := make([]*entity.Purchase, 0)
		for i := len(d.purchaseSeq) - 1; i >= 0; i-- {
			p := d.purchases[d.purchaseSeq[i]]
			if f.SupplierID != "" && p.SupplierID != f.SupplierID {
				continue
			}
			if f.Status != "" && p.Status != f.Status {
				continue
			}
			p.Lines = slices.Clone(p.Lines)
			list = append(list, &p)
		}
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}
