package repository

import (
	"context"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos Get devuelven (nil, nil) cuando el registro no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update no toca StockActual: el stock solo cambia vía UpdateStock junto a un movimiento.
	Update(ctx context.Context, product *entity.Product) error
	UpdateStock(ctx context.Context, id string, stock int, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
}
