package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo órdenes de compra sobre PostgreSQL.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador de compras.
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

const purchaseColumns = `id, number, supplier_id, employee_id, status, subtotal, tax, total,
	expected_at, received_at, notes, created_at, updated_at`

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	var employeeID, notes *string
	var status string
	if err := row.Scan(&p.ID, &p.Number, &p.SupplierID, &employeeID, &status, &p.Subtotal, &p.Tax, &p.Total,
		&p.ExpectedAt, &p.ReceivedAt, &notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.EmployeeID = deref(employeeID)
	p.Notes = deref(notes)
	p.Status = entity.PurchaseStatus(status)
	return &p, nil
}

// Create inserta cabecera y líneas. Una colisión del número devuelve domain.ErrDocumentNumberTaken.
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	query := `
		INSERT INTO purchases (id, number, supplier_id, employee_id, status, subtotal, tax, total,
			expected_at, received_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Number, p.SupplierID, nullIfEmpty(p.EmployeeID), string(p.Status), p.Subtotal, p.Tax, p.Total,
		p.ExpectedAt, p.ReceivedAt, nullIfEmpty(p.Notes), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDocumentNumberViolation(err) {
			return domain.ErrDocumentNumberTaken
		}
		return writeError("insert purchase", err)
	}
	lineQuery := `
		INSERT INTO purchase_lines (id, purchase_id, position, product_id, quantity_ordered, quantity_received,
			unit_price, subtotal, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, l := range p.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, p.ID, i, l.ProductID, l.QuantityOrdered, l.QuantityReceived, l.UnitPrice, l.Subtotal, string(l.Status),
		); err != nil {
			return writeError("insert purchase line", err)
		}
	}
	return nil
}

func (r *PurchaseRepo) get(ctx context.Context, op, query, id string) (*entity.Purchase, error) {
	p, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Lines, err = r.lines(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID obtiene la compra con sus líneas.
func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, "get purchase", `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; las líneas solo se modifican con la cabecera bloqueada.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, "lock purchase", `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseRepo) lines(ctx context.Context, purchaseID string) ([]entity.PurchaseLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_id, product_id, quantity_ordered, quantity_received, unit_price, subtotal, status
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY position`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list purchase lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.PurchaseLine
	for rows.Next() {
		var l entity.PurchaseLine
		var status string
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.ProductID, &l.QuantityOrdered, &l.QuantityReceived,
			&l.UnitPrice, &l.Subtotal, &status); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		l.Status = entity.PurchaseLineStatus(status)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// NumberExists indica si el número ya fue asignado.
func (r *PurchaseRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM purchases WHERE number = $1)`, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("purchase number exists: %w", err)
	}
	return exists, nil
}

// Update persiste estado, fechas y notas de la cabecera.
func (r *PurchaseRepo) Update(ctx context.Context, p *entity.Purchase) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchases SET status = $2, expected_at = $3, received_at = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, string(p.Status), p.ExpectedAt, p.ReceivedAt, nullIfEmpty(p.Notes), p.UpdatedAt,
	)
	if err != nil {
		return writeError("update purchase", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateLine persiste cantidad recibida y estado de una línea de la compra.
func (r *PurchaseRepo) UpdateLine(ctx context.Context, l *entity.PurchaseLine) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_lines SET quantity_received = $3, status = $4
		WHERE id = $1 AND purchase_id = $2`,
		l.ID, l.PurchaseID, l.QuantityReceived, string(l.Status),
	)
	if err != nil {
		return writeError("update purchase line", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista cabeceras de compras (sin líneas), más recientes primero.
func (r *PurchaseRepo) List(ctx context.Context, filter entity.PurchaseFilter) ([]*entity.Purchase, error) {
	var w whereBuilder
	if filter.SupplierID != "" {
		w.add("supplier_id = $%d", filter.SupplierID)
	}
	if filter.Status != "" {
		w.add("status = $%d", string(filter.Status))
	}
	query := `SELECT ` + purchaseColumns + ` FROM purchases` + w.where() + ` ORDER BY created_at DESC, number DESC`
	query += w.page(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
