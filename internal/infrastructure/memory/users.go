package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo empleados en memoria.
type UserRepo struct{ h handle }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	return r.h.do(func(d *data) error {
		for _, other := range d.users {
			if strings.EqualFold(other.Email, u.Email) {
				return domain.ErrDuplicate
			}
		}
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.h.do(func(d *data) error {
		if u, ok := d.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.h.do(func(d *data) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	err := r.h.do(func(d *data) error {
		list := make([]*entity.User, 0, len(d.users))
		for _, u := range d.users {
			list = append(list, &u)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Email < list[j].Email })
		out = paginate(list, limit, offset)
		return nil
	})
	return out, err
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	return r.h.do(func(d *data) error {
		current, ok := d.users[u.ID]
		if !ok {
			return domain.ErrUserNotFound
		}
		current.Name = u.Name
		current.Role = u.Role
		current.Status = u.Status
		current.PasswordHash = u.PasswordHash
		current.UpdatedAt = u.UpdatedAt
		d.users[u.ID] = current
		return nil
	})
}
