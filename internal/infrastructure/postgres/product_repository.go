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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, description, kind, attributes, category_id, supplier_id,
	price_buy, price_sell, stock_actual, stock_minimo, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var description, categoryID, supplierID *string
	var attributes []byte
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &description, &p.Kind, &attributes, &categoryID, &supplierID,
		&p.PriceBuy, &p.PriceSell, &p.StockActual, &p.StockMinimo, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = deref(description)
	p.Attributes = attributes
	p.CategoryID = deref(categoryID)
	p.SupplierID = deref(supplierID)
	return &p, nil
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, kind, attributes, category_id, supplier_id,
			price_buy, price_sell, stock_actual, stock_minimo, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, nullIfEmpty(p.Description), p.Kind, nullJSON(p.Attributes),
		nullIfEmpty(p.CategoryID), nullIfEmpty(p.SupplierID), p.PriceBuy, p.PriceSell,
		p.StockActual, p.StockMinimo, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return writeError("insert product", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, op, query string, arg any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by sku", `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

// GetForUpdate lee el producto con bloqueo de fila (SELECT ... FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "lock product", `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// Update actualiza los datos del catálogo. El stock se maneja vía movimientos.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET sku = $2, name = $3, description = $4, kind = $5, attributes = $6,
			category_id = $7, supplier_id = $8, price_buy = $9, price_sell = $10, stock_minimo = $11,
			active = $12, updated_at = $13
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, nullIfEmpty(p.Description), p.Kind, nullJSON(p.Attributes),
		nullIfEmpty(p.CategoryID), nullIfEmpty(p.SupplierID), p.PriceBuy, p.PriceSell,
		p.StockMinimo, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return writeError("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock fija el stock. Solo lo invoca el ledger, junto al movimiento.
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, stock int, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock_actual = $2, updated_at = $3 WHERE id = $1`,
		id, stock, at,
	)
	if err != nil {
		return writeError("update product stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetActive activa o desactiva el producto (borrado lógico).
func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET active = $2, updated_at = $3 WHERE id = $1`,
		id, active, at,
	)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos con filtros y paginación, ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	var w whereBuilder
	if filter.Search != "" {
		w.add("(lower(name) LIKE $%[1]d OR lower(sku) LIKE $%[1]d)", likePattern(filter.Search))
	}
	if filter.Kind != "" {
		w.add("kind = $%d", filter.Kind)
	}
	if filter.CategoryID != "" {
		w.add("category_id = $%d", filter.CategoryID)
	}
	if filter.SupplierID != "" {
		w.add("supplier_id = $%d", filter.SupplierID)
	}
	if filter.OnlyActive {
		w.add("active = $%d", true)
	}
	query := `SELECT ` + productColumns + ` FROM products` + w.where() + ` ORDER BY name, id`
	query += w.page(filter.Limit, filter.Offset)
	return r.list(ctx, "list products", query, w.args...)
}

// ListLowStock devuelve los productos activos con stock por debajo del mínimo.
func (r *ProductRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE active AND stock_actual < stock_minimo ORDER BY sku`
	return r.list(ctx, "list low stock", query)
}

func (r *ProductRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
