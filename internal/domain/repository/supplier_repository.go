package repository

import (
	"context"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// SupplierRepository persistencia de proveedores.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	// Update reemplaza los datos de contacto y el flag Active.
	Update(ctx context.Context, supplier *entity.Supplier) error
	List(ctx context.Context, limit, offset int) ([]*entity.Supplier, error)
}
