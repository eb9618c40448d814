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

var (
	_ repository.CustomerRepository   = (*CustomerRepo)(nil)
	_ repository.MembershipRepository = (*MembershipRepo)(nil)
)

// CustomerRepo clientes en memoria. El email es único sin distinguir mayúsculas.
type CustomerRepo struct{ h handle }

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	return r.h.do(func(d *data) error {
		for _, other := range d.customers {
			if strings.EqualFold(other.Email, c.Email) {
				return domain.ErrDuplicate
			}
		}
		d.customers[c.ID] = *c
		return nil
	})
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.h.do(func(d *data) error {
		if c, ok := d.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) GetForUpdate(ctx context.Context, id string) (*entity.Customer, error) {
	return r.GetByID(ctx, id)
}

func (r *CustomerRepo) GetByEmail(_ context.Context, email string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.h.do(func(d *data) error {
		for _, c := range d.customers {
			if strings.EqualFold(c.Email, email) {
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	return r.h.do(func(d *data) error {
		cur, ok := d.customers[c.ID]
		if !ok {
			return domain.ErrNotFound
		}
		for id, other := range d.customers {
			if id != c.ID && strings.EqualFold(other.Email, c.Email) {
				return domain.ErrDuplicate
			}
		}
		cur.Name = c.Name
		cur.Email = c.Email
		cur.Phone = c.Phone
		cur.Address = c.Address
		cur.Active = c.Active
		cur.UpdatedAt = c.UpdatedAt
		d.customers[c.ID] = cur
		return nil
	})
}

func (r *CustomerRepo) UpdateTier(_ context.Context, id, tierID string, at time.Time) error {
	return r.h.do(func(d *data) error {
		c, ok := d.customers[id]
		if !ok {
			return domain.ErrNotFound
		}
		c.TierID = tierID
		c.UpdatedAt = at
		d.customers[id] = c
		return nil
	})
}

func (r *CustomerRepo) RecordPurchase(_ context.Context, id string, points int, at time.Time) error {
	return r.h.do(func(d *data) error {
		c, ok := d.customers[id]
		if !ok {
			return domain.ErrNotFound
		}
		c.Points += points
		c.LastPurchaseAt = &at
		c.UpdatedAt = at
		d.customers[id] = c
		return nil
	})
}

func (r *CustomerRepo) List(_ context.Context, f entity.CustomerFilter) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.h.do(func(d *data) error {
		search := strings.ToLower(f.Search)
		list := make([]*entity.Customer, 0, len(d.customers))
		for _, c := range d.customers {
			if f.TierID != "" && c.TierID != f.TierID {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(strings.ToLower(c.Email), search) {
				continue
			}
			list = append(list, &c)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

// MembershipRepo niveles e historial en memoria.
type MembershipRepo struct{ h handle }

func (r *MembershipRepo) GetTier(_ context.Context, id string) (*entity.MembershipTier, error) {
	var out *entity.MembershipTier
	err := r.h.do(func(d *data) error {
		if t, ok := d.tiers[id]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

// ListTiers ordenados por descuento ascendente.
func (r *MembershipRepo) ListTiers(_ context.Context) ([]*entity.MembershipTier, error) {
	var out []*entity.MembershipTier
	err := r.h.do(func(d *data) error {
		for _, t := range d.tiers {
			out = append(out, &t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].DiscountPct.LessThan(out[j].DiscountPct) })
		return nil
	})
	return out, err
}

func (r *MembershipRepo) AppendHistory(_ context.Context, h *entity.MembershipHistory) error {
	return r.h.do(func(d *data) error {
		d.history = append(d.history, *h)
		return nil
	})
}

// ListHistory más recientes primero.
func (r *MembershipRepo) ListHistory(_ context.Context, customerID string) ([]*entity.MembershipHistory, error) {
	var out []*entity.MembershipHistory
	err := r.h.do(func(d *data) error {
		for i := len(d.history) - 1; i >= 0; i-- {
			h := d.history[i]
			if h.CustomerID == customerID {
				out = append(out, &h)
			}
		}
		return nil
	})
	return out, err
}
