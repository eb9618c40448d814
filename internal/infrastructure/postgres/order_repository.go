package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos.
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, number, customer_id, employee_id, status, subtotal, discount, tax, total, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var employeeID, notes *string
	var status string
	if err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &employeeID, &status,
		&o.Subtotal, &o.Discount, &o.Tax, &o.Total, &notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.EmployeeID = deref(employeeID)
	o.Notes = deref(notes)
	o.Status = entity.OrderStatus(status)
	return &o, nil
}

// Create inserta la cabecera y las líneas. Una colisión del número devuelve domain.ErrDocumentNumberTaken.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (id, number, customer_id, employee_id, status, subtotal, discount, tax, total, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Number, o.CustomerID, nullIfEmpty(o.EmployeeID), string(o.Status),
		o.Subtotal, o.Discount, o.Tax, o.Total, nullIfEmpty(o.Notes), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isDocumentNumberViolation(err) {
			return domain.ErrDocumentNumberTaken
		}
		return writeError("insert order", err)
	}
	lineQuery := `
		INSERT INTO order_lines (id, order_id, position, product_id, quantity, unit_price, unit_discount, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, l := range o.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice, l.UnitDiscount, l.Subtotal,
		); err != nil {
			return writeError("insert order line", err)
		}
	}
	return nil
}

func (r *OrderRepo) get(ctx context.Context, op, query, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID obtiene el pedido con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, "get order", `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera del pedido hasta el fin de la transacción.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, "lock order", `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) lines(ctx context.Context, orderID string) ([]entity.OrderLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, unit_discount, subtotal
		FROM order_lines WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.UnitDiscount, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// NumberExists indica si el número ya fue asignado.
func (r *OrderRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE number = $1)`, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("order number exists: %w", err)
	}
	return exists, nil
}

// UpdateStatus persiste estado y notas.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus, notes string, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE orders SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`,
		id, string(status), nullIfEmpty(notes), at,
	)
	if err != nil {
		return writeError("update order status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista cabeceras de pedidos (sin líneas), más recientes primero.
func (r *OrderRepo) List(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error) {
	var w whereBuilder
	if filter.CustomerID != "" {
		w.add("customer_id = $%d", filter.CustomerID)
	}
	if filter.Status != "" {
		w.add("status = $%d", string(filter.Status))
	}
	if filter.From != nil {
		w.add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at <= $%d", *filter.To)
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + w.where() + ` ORDER BY created_at DESC, number DESC`
	query += w.page(filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}
