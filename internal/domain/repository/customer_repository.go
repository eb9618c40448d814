package repository

import (
	"context"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Customer, error)
	GetByEmail(ctx context.Context, email string) (*entity.Customer, error)
	// Update persiste los datos de contacto; nivel y puntos tienen métodos propios.
	Update(ctx context.Context, customer *entity.Customer) error
	UpdateTier(ctx context.Context, id, tierID string, at time.Time) error
	RecordPurchase(ctx context.Context, id string, points int, at time.Time) error
	List(ctx context.Context, filter entity.CustomerFilter) ([]*entity.Customer, error)
}

// MembershipRepository niveles de membresía e historial de cambios.
type MembershipRepository interface {
	GetTier(ctx context.Context, id string) (*entity.MembershipTier, error)
	ListTiers(ctx context.Context) ([]*entity.MembershipTier, error)
	AppendHistory(ctx context.Context, h *entity.MembershipHistory) error
	ListHistory(ctx context.Context, customerID string) ([]*entity.MembershipHistory, error)
}
