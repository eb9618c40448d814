package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var (
	_ repository.CustomerRepository   = (*CustomerRepo)(nil)
	_ repository.MembershipRepository = (*MembershipRepo)(nil)
)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, name, email, phone, address, tier_id, points, last_purchase_at, active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	var phone, address *string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &phone, &address, &c.TierID, &c.Points,
		&c.LastPurchaseAt, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Phone = deref(phone)
	c.Address = deref(address)
	return &c, nil
}

// Create persiste un nuevo cliente. El email es único sin distinguir mayúsculas.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, phone, address, tier_id, points, last_purchase_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Email, nullIfEmpty(c.Phone), nullIfEmpty(c.Address), c.TierID, c.Points,
		c.LastPurchaseAt, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return writeError("insert customer", err)
	}
	return nil
}

func (r *CustomerRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	return r.getOne(ctx, "get customer", `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del cliente (cambio de nivel, puntos).
func (r *CustomerRepo) GetForUpdate(ctx context.Context, id string) (*entity.Customer, error) {
	return r.getOne(ctx, "lock customer", `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id)
}

// GetByEmail busca por email sin distinguir mayúsculas.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	return r.getOne(ctx, "get customer by email", `SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower($1)`, email)
}

// Update persiste datos de contacto y estado activo.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE customers SET name = $2, email = $3, phone = $4, address = $5, active = $6, updated_at = $7
		WHERE id = $1`,
		c.ID, c.Name, c.Email, nullIfEmpty(c.Phone), nullIfEmpty(c.Address), c.Active, c.UpdatedAt,
	)
	if err != nil {
		return writeError("update customer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateTier cambia el nivel. El historial lo registra MembershipRepo en la misma transacción.
func (r *CustomerRepo) UpdateTier(ctx context.Context, id, tierID string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE customers SET tier_id = $2, updated_at = $3 WHERE id = $1`, id, tierID, at)
	if err != nil {
		return writeError("update customer tier", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordPurchase suma puntos y marca la fecha de la última compra.
func (r *CustomerRepo) RecordPurchase(ctx context.Context, id string, points int, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE customers SET points = points + $2, last_purchase_at = $3, updated_at = $3
		WHERE id = $1`, id, points, at)
	if err != nil {
		return fmt.Errorf("record customer purchase: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista clientes por nombre con búsqueda y filtro de nivel.
func (r *CustomerRepo) List(ctx context.Context, filter entity.CustomerFilter) ([]*entity.Customer, error) {
	var w whereBuilder
	if filter.Search != "" {
		w.add("(lower(name) LIKE $%[1]d OR lower(email) LIKE $%[1]d)", likePattern(filter.Search))
	}
	if filter.TierID != "" {
		w.add("tier_id = $%d", filter.TierID)
	}
	query := `SELECT ` + customerColumns + ` FROM customers` + w.where() + ` ORDER BY name, id`
	query += w.page(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// MembershipRepo niveles de membresía e historial (append-only).
type MembershipRepo struct {
	q Querier
}

// NewMembershipRepository construye el adaptador de membresías.
func NewMembershipRepository(q Querier) *MembershipRepo {
	return &MembershipRepo{q: q}
}

// GetTier obtiene un nivel por ID.
func (r *MembershipRepo) GetTier(ctx context.Context, id string) (*entity.MembershipTier, error) {
	var t entity.MembershipTier
	err := r.q.QueryRow(ctx,
		`SELECT id, name, discount_pct, points_per_purchase FROM membership_tiers WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.DiscountPct, &t.PointsPerPurchase)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tier: %w", err)
	}
	return &t, nil
}

// ListTiers lista los niveles de menor a mayor descuento.
func (r *MembershipRepo) ListTiers(ctx context.Context) ([]*entity.MembershipTier, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, name, discount_pct, points_per_purchase FROM membership_tiers ORDER BY discount_pct, id`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.MembershipTier, 0)
	for rows.Next() {
		var t entity.MembershipTier
		if err := rows.Scan(&t.ID, &t.Name, &t.DiscountPct, &t.PointsPerPurchase); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// AppendHistory agrega una entrada al historial de niveles.
func (r *MembershipRepo) AppendHistory(ctx context.Context, h *entity.MembershipHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO membership_history (id, customer_id, tier_before, tier_after, reason, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.CustomerID, h.TierBefore, h.TierAfter, nullIfEmpty(h.Reason), nullIfEmpty(h.ChangedBy), h.CreatedAt,
	)
	if err != nil {
		return writeError("insert membership history", err)
	}
	return nil
}

// ListHistory devuelve el historial del cliente, más reciente primero.
func (r *MembershipRepo) ListHistory(ctx context.Context, customerID string) ([]*entity.MembershipHistory, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, customer_id, tier_before, tier_after, reason, changed_by, created_at
		FROM membership_history WHERE customer_id = $1 ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list membership history: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.MembershipHistory, 0)
	for rows.Next() {
		var h entity.MembershipHistory
		var reason, changedBy *string
		if err := rows.Scan(&h.ID, &h.CustomerID, &h.TierBefore, &h.TierAfter, &reason, &changedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership history: %w", err)
		}
		h.Reason = deref(reason)
		h.ChangedBy = deref(changedBy)
		list = append(list, &h)
	}
	return list, rows.Err()
}
