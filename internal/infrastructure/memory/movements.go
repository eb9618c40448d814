package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger en memoria (solo inserción).
type MovementRepo struct{ h handle }

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.h.do(func(d *data) error {
		d.movements = append(d.movements, *m)
		return nil
	})
}

// List devuelve los movimientos más recientes primero.
func (r *MovementRepo) List(_ context.Context, f entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.h.do(func(d *data) error {
		list := make([]*entity.InventoryMovement, 0)
		for i := len(d.movements) - 1; i >= 0; i-- {
			m := d.movements[i]
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if f.DocumentID != "" && m.DocumentID != f.DocumentID {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && m.CreatedAt.After(*f.To) {
				continue
			}
			list = append(list, &m)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *MovementRepo) ResolveType(_ context.Context, t entity.MovementType) (int, error) {
	var id int
	err := r.h.do(func(d *data) error {
		v, ok := d.movementTypes[t]
		if !ok {
			return domain.ErrConfigurationMissing
		}
		id = v
		return nil
	})
	return id, err
}
