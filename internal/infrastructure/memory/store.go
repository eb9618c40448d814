// Package memory implementa los repositorios en memoria con la misma semántica transaccional
// que PostgreSQL: las transacciones se serializan y un error restaura la foto previa.
// Se usa con DB_DRIVER=memory y en las pruebas de los casos de uso.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type data struct {
	products      map[string]entity.Product
	movementTypes map[entity.MovementType]int
	movements     []entity.InventoryMovement
	orders        map[string]entity.Order
	orderSeq      []string
	purchases     map[string]entity.Purchase
	purchaseSeq   []string
	customers     map[string]entity.Customer
	tiers         map[string]entity.MembershipTier
	history       []entity.MembershipHistory
	suppliers     map[string]entity.Supplier
	categories    map[string]entity.Category
	users         map[string]entity.User
}

func newData() *data {
	return &data{
		products:      map[string]entity.Product{},
		movementTypes: map[entity.MovementType]int{},
		orders:        map[string]entity.Order{},
		purchases:     map[string]entity.Purchase{},
		customers:     map[string]entity.Customer{},
		tiers:         map[string]entity.MembershipTier{},
		suppliers:     map[string]entity.Supplier{},
		categories:    map[string]entity.Category{},
		users:         map[string]entity.User{},
	}
}

// clone copia profunda usada como punto de restauración de la transacción.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.movementTypes {
		c.movementTypes[k] = v
	}
	c.movements = slices.Clone(d.movements)
	for k, v := range d.orders {
		v.Lines = slices.Clone(v.Lines)
		c.orders[k] = v
	}
	c.orderSeq = slices.Clone(d.orderSeq)
	for k, v := range d.purchases {
		v.Lines = slices.Clone(v.Lines)
		c.purchases[k] = v
	}
	c.purchaseSeq = slices.Clone(d.purchaseSeq)
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.tiers {
		c.tiers[k] = v
	}
	c.history = slices.Clone(d.history)
	for k, v := range d.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range d.categories {
		c.categories[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

// Store contenedor en memoria. Implementa repository.TxRunner.
type Store struct {
	mu sync.Mutex
	d  *data
}

// NewEmptyStore crea un almacén sin datos de referencia.
func NewEmptyStore() *Store {
	return &Store{d: newData()}
}

// NewStore crea un almacén con los tipos de movimiento y niveles de membresía de referencia.
func NewStore() *Store {
	s := NewEmptyStore()
	s.d.movementTypes[entity.MovementEntrada] = 1
	s.d.movementTypes[entity.MovementSalida] = 2
	s.d.movementTypes[entity.MovementAjuste] = 3
	for _, t := range DefaultTiers() {
		s.d.tiers[t.ID] = t
	}
	return s
}

// DefaultTiers niveles sembrados por defecto (los mismos que la migración SQL).
func DefaultTiers() []entity.MembershipTier {
	return []entity.MembershipTier{
		{ID: "basico", Name: "Básico", DiscountPct: decimal.Zero, PointsPerPurchase: 1},
		{ID: "plata", Name: "Plata", DiscountPct: decimal.NewFromInt(5), PointsPerPurchase: 2},
		{ID: "oro", Name: "Oro", DiscountPct: decimal.NewFromInt(10), PointsPerPurchase: 3},
		{ID: "platino", Name: "Platino", DiscountPct: decimal.NewFromInt(15), PointsPerPurchase: 5},
	}
}

// RemoveMovementType elimina una fila de referencia (simula una instalación incompleta).
func (s *Store) RemoveMovementType(t entity.MovementType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.d.movementTypes, t)
}

// Run ejecuta fn con acceso exclusivo al almacén. Si fn falla, se restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.d = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// Repos devuelve los repositorios fuera de transacción (cada operación toma el lock).
func (s *Store) Repos() repository.Repos {
	return s.repos(false)
}

// Users devuelve el repositorio de empleados.
func (s *Store) Users() *UserRepo {
	return &UserRepo{h: handle{s: s}}
}

func (s *Store) repos(locked bool) repository.Repos {
	h := handle{s: s, locked: locked}
	return repository.Repos{
		Products:   &ProductRepo{h: h},
		Movements:  &MovementRepo{h: h},
		Orders:     &OrderRepo{h: h},
		Purchases:  &PurchaseRepo{h: h},
		Customers:  &CustomerRepo{h: h},
		Membership: &MembershipRepo{h: h},
		Suppliers:  &SupplierRepo{h: h},
		Categories: &CategoryRepo{h: h},
	}
}

// handle da acceso a los datos; fuera de transacción toma el lock por operación.
type handle struct {
	s      *Store
	locked bool
}

func (h handle) do(fn func(d *data) error) error {
	if !h.locked {
		h.s.mu.Lock()
		defer h.s.mu.Unlock()
	}
	return fn(h.s.d)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
