package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario. Los movimientos no se modifican ni se borran.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (id, product_id, movement_type_id, quantity, stock_before, stock_after,
			actor_id, reason, document_id, document_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.MovementTypeID, m.Quantity, m.StockBefore, m.StockAfter,
		nullIfEmpty(m.ActorID), nullIfEmpty(m.Reason), nullIfEmpty(m.DocumentID),
		nullIfEmpty(string(m.DocumentType)), m.CreatedAt,
	)
	if err != nil {
		return writeError("create inventory movement", err)
	}
	return nil
}

// List lista movimientos (más recientes primero) con filtros opcionales.
func (r *InventoryMovementRepo) List(ctx context.Context, filter entity.MovementFilter) ([]*entity.InventoryMovement, error) {
	var w whereBuilder
	if filter.ProductID != "" {
		w.add("m.product_id = $%d", filter.ProductID)
	}
	if filter.Type != "" {
		w.add("t.code = $%d", string(filter.Type))
	}
	if filter.DocumentID != "" {
		w.add("m.document_id = $%d", filter.DocumentID)
	}
	if filter.From != nil {
		w.add("m.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("m.created_at <= $%d", *filter.To)
	}
	query := `
		SELECT m.id, m.product_id, m.movement_type_id, t.code, m.quantity, m.stock_before, m.stock_after,
			m.actor_id, m.reason, m.document_id, m.document_type, m.created_at
		FROM inventory_movements m
		JOIN movement_types t ON t.id = m.movement_type_id` + w.where() + `
		ORDER BY m.created_at DESC, m.id`
	query += w.page(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryMovement, 0)
	for rows.Next() {
		var m entity.InventoryMovement
		var code string
		var actorID, reason, documentID, documentType *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.MovementTypeID, &code, &m.Quantity, &m.StockBefore, &m.StockAfter,
			&actorID, &reason, &documentID, &documentType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = entity.MovementType(code)
		m.ActorID = deref(actorID)
		m.Reason = deref(reason)
		m.DocumentID = deref(documentID)
		m.DocumentType = entity.DocumentType(deref(documentType))
		list = append(list, &m)
	}
	return list, rows.Err()
}

// ResolveType busca la fila de referencia del tipo de movimiento.
func (r *InventoryMovementRepo) ResolveType(ctx context.Context, t entity.MovementType) (int, error) {
	var id int
	err := r.q.QueryRow(ctx, `SELECT id FROM movement_types WHERE code = $1`, string(t)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrConfigurationMissing, t)
		}
		return 0, fmt.Errorf("resolve movement type: %w", err)
	}
	return id, nil
}
