package repository

import (
	"context"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// InventoryMovementRepository ledger append-only de movimientos.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error)
	// ResolveType devuelve el id de la fila de referencia del tipo; domain.ErrConfigurationMissing si no existe.
	ResolveType(ctx context.Context, t entity.MovementType) (int, error)
}
