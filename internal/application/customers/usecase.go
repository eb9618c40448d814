// Package customers gestiona clientes, niveles de membresía y el historial de cambios de nivel.
package customers

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
	"github.com/jhoicas/comic-store-api/pkg/tracing"
)

// UseCase casos de uso de clientes y membresía.
type UseCase struct {
	txRunner    repository.TxRunner
	customers   repository.CustomerRepository
	membership  repository.MembershipRepository
	events      ports.EventPublisher
	log         zerolog.Logger
	defaultTier string
	now         func() time.Time
}

// NewUseCase construye el caso de uso. defaultTier se asigna a clientes creados sin nivel.
func NewUseCase(
	txRunner repository.TxRunner,
	customers repository.CustomerRepository,
	membership repository.MembershipRepository,
	events ports.EventPublisher,
	log zerolog.Logger,
	defaultTier string,
) *UseCase {
	if events == nil {
		events = ports.NoopPublisher{}
	}
	return &UseCase{
		txRunner:    txRunner,
		customers:   customers,
		membership:  membership,
		events:      events,
		log:         log,
		defaultTier: defaultTier,
		now:         time.Now,
	}
}

// Create crea un cliente. El email es único.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || !validEmail(email) {
		return nil, domain.ErrInvalidInput
	}
	tierID := strings.TrimSpace(in.TierID)
	if tierID == "" {
		tierID = uc.defaultTier
	}
	tier, err := uc.membership.GetTier(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		if in.TierID == "" {
			return nil, fmt.Errorf("%w: nivel por defecto %q", domain.ErrConfigurationMissing, tierID)
		}
		return nil, fmt.Errorf("%w: nivel %s", domain.ErrNotFound, tierID)
	}
	existing, err := uc.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := uc.now()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		TierID:    tier.ID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// Get devuelve un cliente.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	c, err := uc.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return toCustomerResponse(c), nil
}

// List lista clientes por nombre o email y nivel.
func (uc *UseCase) List(ctx context.Context, filter entity.CustomerFilter) ([]*dto.CustomerResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	list, err := uc.customers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// Update modifica los datos de contacto.
func (uc *UseCase) Update(ctx context.Context, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		c.Name = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !validEmail(email) {
			return nil, domain.ErrInvalidInput
		}
		if email != c.Email {
			other, err := uc.customers.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != c.ID {
				return nil, domain.ErrDuplicate
			}
		}
		c.Email = email
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	c.UpdatedAt = uc.now()
	if err := uc.customers.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// UpdateTier cambia el nivel de membresía y registra el cambio en el historial.
// Si el nivel no cambia no se escribe nada.
func (uc *UseCase) UpdateTier(ctx context.Context, actorID, customerID string, in dto.UpdateTierRequest) (*dto.CustomerResponse, error) {
	ctx, span := tracing.Start(ctx, "customers.UpdateTier")
	defer span.End()

	tierID := strings.TrimSpace(in.TierID)
	if actorID == "" || customerID == "" || tierID == "" {
		return nil, domain.ErrInvalidInput
	}

	var (
		customer *entity.Customer
		entry    *entity.MembershipHistory
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		tier, err := repos.Membership.GetTier(ctx, tierID)
		if err != nil {
			return err
		}
		if tier == nil {
			return fmt.Errorf("%w: nivel %s", domain.ErrNotFound, tierID)
		}
		customer, err = repos.Customers.GetForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		if customer.TierID == tier.ID {
			return nil
		}
		now := uc.now()
		entry = &entity.MembershipHistory{
			ID:         uuid.New().String(),
			CustomerID: customer.ID,
			TierBefore: customer.TierID,
			TierAfter:  tier.ID,
			Reason:     strings.TrimSpace(in.Reason),
			ChangedBy:  actorID,
			CreatedAt:  now,
		}
		if err := repos.Membership.AppendHistory(ctx, entry); err != nil {
			return err
		}
		if err := repos.Customers.UpdateTier(ctx, customer.ID, tier.ID, now); err != nil {
			return err
		}
		customer.TierID = tier.ID
		customer.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		if pErr := uc.events.Publish(ctx, ports.Event{
			Type:       ports.EventMembershipTierChange,
			Key:        customer.ID,
			OccurredAt: entry.CreatedAt,
			Payload:    toHistoryResponse(entry),
		}); pErr != nil {
			uc.log.Warn().Err(pErr).Str("customer", customer.ID).Msg("no se pudo publicar evento")
		}
		uc.log.Info().Str("customer", customer.ID).Str("from", entry.TierBefore).Str("to", entry.TierAfter).Msg("nivel de membresía actualizado")
	}
	return toCustomerResponse(customer), nil
}

// ListTiers devuelve los niveles disponibles.
func (uc *UseCase) ListTiers(ctx context.Context) ([]dto.TierResponse, error) {
	tiers, err := uc.membership.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, dto.TierResponse{
			ID:                t.ID,
			Name:              t.Name,
			DiscountPct:       t.DiscountPct,
			PointsPerPurchase: t.PointsPerPurchase,
		})
	}
	return out, nil
}

// History devuelve los cambios de nivel de un cliente, más recientes primero.
func (uc *UseCase) History(ctx context.Context, customerID string) ([]dto.TierHistoryResponse, error) {
	c, err := uc.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.membership.ListHistory(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TierHistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, toHistoryResponse(h))
	}
	return out, nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		TierID:         c.TierID,
		Points:         c.Points,
		LastPurchaseAt: c.LastPurchaseAt,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toHistoryResponse(h *entity.MembershipHistory) dto.TierHistoryResponse {
	return dto.TierHistoryResponse{
		ID:         h.ID,
		TierBefore: h.TierBefore,
		TierAfter:  h.TierAfter,
		Reason:     h.Reason,
		ChangedBy:  h.ChangedBy,
		CreatedAt:  h.CreatedAt,
	}
}
