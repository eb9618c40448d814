package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner con el pool. timeout acota cada transacción.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TxRunner{pool: pool, timeout: timeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// La transacción no se corta si el cliente HTTP se desconecta: solo el timeout la cancela.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, ReposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReposFor construye todos los repositorios sobre q (pool o tx).
func ReposFor(q Querier) repository.Repos {
	return repository.Repos{
		Products:   NewProductRepository(q),
		Movements:  NewInventoryMovementRepository(q),
		Orders:     NewOrderRepository(q),
		Purchases:  NewPurchaseRepository(q),
		Customers:  NewCustomerRepository(q),
		Membership: NewMembershipRepository(q),
		Suppliers:  NewSupplierRepository(q),
		Categories: NewCategoryRepository(q),
	}
}
