package repository

import (
	"context"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// CategoryRepository persistencia de categorías. El nombre es único sin distinguir mayúsculas.
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByName(ctx context.Context, name string) (*entity.Category, error)
	List(ctx context.Context) ([]*entity.Category, error)
}
