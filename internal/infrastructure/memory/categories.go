package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

type CategoryRepo struct{ h handle }

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	return r.h.do(func(d *data) error {
		for _, other := range d.categories {
			if strings.EqualFold(other.Name, c.Name) {
				return domain.ErrDuplicate
			}
		}
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.h.do(func(d *data) error {
		if c, ok := d.categories[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	var out *entity.Category
	err := r.h.do(func(d *data) error {
		for _, c := range d.categories {
			if strings.EqualFold(c.Name, name) {
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.h.do(func(d *data) error {
		out = make([]*entity.Category, 0, len(d.categories))
		for _, c := range d.categories {
			out = append(out, &c)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}
