package repository

import (
	"context"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// PurchaseRepository persistencia de órdenes de compra y sus líneas.
type PurchaseRepository interface {
	// Create inserta cabecera y líneas. domain.ErrDocumentNumberTaken si el número ya existe.
	Create(ctx context.Context, purchase *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	// Update persiste estado, fechas y notas de la cabecera.
	Update(ctx context.Context, purchase *entity.Purchase) error
	UpdateLine(ctx context.Context, line *entity.PurchaseLine) error
	List(ctx context.Context, filter entity.PurchaseFilter) ([]*entity.Purchase, error)
}
