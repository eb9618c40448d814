package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

func seedProduct(t *testing.T, s *Store, id, sku string, stock int) {
	t.Helper()
	err := s.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: sku, Name: "Producto " + sku, Kind: entity.ProductKindComic,
		PriceSell: decimal.NewFromInt(10), StockActual: stock, StockMinimo: 5, Active: true,
	})
	require.NoError(t, err)
}

// ─── Transacciones ──────────────────────────────────────────────────────────

func TestStore_Run_RollbackRestauraEstado(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 10)
	boom := errors.New("boom")

	err := s.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Products.UpdateStock(ctx, "p1", 3, time.Now()))
		require.NoError(t, r.Movements.Create(ctx, &entity.InventoryMovement{ID: "m1", ProductID: "p1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Repos().Products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockActual)
	movs, err := s.Repos().Movements.List(context.Background(), entity.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestStore_Run_CommitPersiste(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 10)

	err := s.Run(context.Background(), func(ctx context.Context, r repository.Repos) error {
		return r.Products.UpdateStock(ctx, "p1", 7, time.Now())
	})
	require.NoError(t, err)

	p, _ := s.Repos().Products.GetByID(context.Background(), "p1")
	assert.Equal(t, 7, p.StockActual)
}

func TestStore_Run_ContextoCanceladoDescarta(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 10)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		cancel()
		return r.Products.UpdateStock(ctx, "p1", 1, time.Now())
	})
	require.ErrorIs(t, err, context.Canceled)

	p, _ := s.Repos().Products.GetByID(context.Background(), "p1")
	assert.Equal(t, 10, p.StockActual)
}

// ─── Repositorios ───────────────────────────────────────────────────────────

func TestProductRepo_SKUDuplicado(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 1)
	err := s.Repos().Products.Create(context.Background(), &entity.Product{ID: "p2", SKU: "SKU-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductRepo_UpdateNoTocaStock(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 8)
	p, _ := s.Repos().Products.GetByID(context.Background(), "p1")
	p.Name = "Renombrado"
	p.StockActual = 999
	require.NoError(t, s.Repos().Products.Update(context.Background(), p))

	got, _ := s.Repos().Products.GetByID(context.Background(), "p1")
	assert.Equal(t, "Renombrado", got.Name)
	assert.Equal(t, 8, got.StockActual)
}

func TestProductRepo_GetDevuelveCopia(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 8)
	p, _ := s.Repos().Products.GetByID(context.Background(), "p1")
	p.StockActual = 0

	got, _ := s.Repos().Products.GetByID(context.Background(), "p1")
	assert.Equal(t, 8, got.StockActual)
}

func TestProductRepo_NoExiste(t *testing.T) {
	s := NewStore()
	p, err := s.Repos().Products.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepo_ListLowStock(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "p1", "SKU-1", 2)
	seedProduct(t, s, "p2", "SKU-2", 50)
	low, err := s.Repos().Products.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "p1", low[0].ID)
}

func TestMovementRepo_ResolveType(t *testing.T) {
	s := NewStore()
	id, err := s.Repos().Movements.ResolveType(context.Background(), entity.MovementSalida)
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	s.RemoveMovementType(entity.MovementSalida)
	_, err = s.Repos().Movements.ResolveType(context.Background(), entity.MovementSalida)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestOrderRepo_NumeroDuplicado(t *testing.T) {
	s := NewStore()
	repo := s.Repos().Orders
	require.NoError(t, repo.Create(context.Background(), &entity.Order{ID: "o1", Number: "PED-20240101-AAAAA"}))
	err := repo.Create(context.Background(), &entity.Order{ID: "o2", Number: "PED-20240101-AAAAA"})
	assert.ErrorIs(t, err, domain.ErrDocumentNumberTaken)

	exists, err := repo.NumberExists(context.Background(), "PED-20240101-AAAAA")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrderRepo_ListRecientesPrimero(t *testing.T) {
	s := NewStore()
	repo := s.Repos().Orders
	for _, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, repo.Create(context.Background(), &entity.Order{ID: id, Number: id, Status: entity.OrderPendiente}))
	}
	list, err := repo.List(context.Background(), entity.OrderFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o3", list[0].ID)
	assert.Equal(t, "o2", list[1].ID)
}

func TestPurchaseRepo_UpdateLine(t *testing.T) {
	s := NewStore()
	repo := s.Repos().Purchases
	require.NoError(t, repo.Create(context.Background(), &entity.Purchase{
		ID: "c1", Number: "COMP-1",
		Lines: []entity.PurchaseLine{{ID: "l1", PurchaseID: "c1", QuantityOrdered: 10}},
	}))
	require.NoError(t, repo.UpdateLine(context.Background(), &entity.PurchaseLine{
		ID: "l1", PurchaseID: "c1", QuantityOrdered: 10, QuantityReceived: 4, Status: entity.LineParcial,
	}))

	p, _ := repo.GetByID(context.Background(), "c1")
	assert.Equal(t, 4, p.Lines[0].QuantityReceived)

	err := repo.UpdateLine(context.Background(), &entity.PurchaseLine{ID: "otra", PurchaseID: "c1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerRepo_EmailUnico(t *testing.T) {
	s := NewStore()
	repo := s.Repos().Customers
	require.NoError(t, repo.Create(context.Background(), &entity.Customer{ID: "c1", Email: "ana@example.com"}))
	err := repo.Create(context.Background(), &entity.Customer{ID: "c2", Email: "ANA@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCustomerRepo_RecordPurchase(t *testing.T) {
	s := NewStore()
	repo := s.Repos().Customers
	require.NoError(t, repo.Create(context.Background(), &entity.Customer{ID: "c1", Email: "a@b.c", Points: 4}))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordPurchase(context.Background(), "c1", 3, at))

	c, _ := repo.GetByID(context.Background(), "c1")
	assert.Equal(t, 7, c.Points)
	require.NotNil(t, c.LastPurchaseAt)
	assert.True(t, at.Equal(*c.LastPurchaseAt))
}

func TestMembershipRepo_ListTiersOrdenados(t *testing.T) {
	s := NewStore()
	tiers, err := s.Repos().Membership.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, tiers, 4)
	assert.Equal(t, "basico", tiers[0].ID)
	assert.Equal(t, "platino", tiers[3].ID)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, paginate(items, 2, 2))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, 0, 0))
	assert.Empty(t, paginate(items, 10, 9))
}
