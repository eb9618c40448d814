package repository

import "context"

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Products   ProductRepository
	Movements  InventoryMovementRepository
	Orders     OrderRepository
	Purchases  PurchaseRepository
	Customers  CustomerRepository
	Membership MembershipRepository
	Suppliers  SupplierRepository
	Categories CategoryRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
