package repository

import (
	"context"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// OrderRepository persistencia de pedidos y sus líneas.
type OrderRepository interface {
	// Create inserta cabecera y líneas. domain.ErrDocumentNumberTaken si el número ya existe.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, notes string, at time.Time) error
	List(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error)
}
