package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/memory"
)

func newProductUseCase() (*usecase.ProductUseCase, *memory.Store) {
	store := memory.NewStore()
	ledger := appinventory.NewLedger(store, store.Repos().Movements, ports.NoopPublisher{}, zerolog.Nop())
	return usecase.NewProductUseCase(store, store.Repos().Products, ledger), store
}

func TestProductCreate_InventarioInicial(t *testing.T) {
	uc, store := newProductUseCase()
	p, err := uc.Create(context.Background(), "emp-1", dto.CreateProductRequest{
		SKU: "SPAWN-001", Name: "Spawn #1", Kind: "comic",
		PriceBuy: decimal.NewFromInt(40), PriceSell: decimal.NewFromInt(75), InitialStock: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, p.StockActual)
	assert.Equal(t, entity.DefaultStockMinimo, p.StockMinimo)

	movs, err := store.Repos().Movements.List(context.Background(), entity.MovementFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementEntrada, movs[0].Type)
	assert.Equal(t, "Inventario inicial", movs[0].Reason)
	assert.Equal(t, 0, movs[0].StockBefore)
	assert.Equal(t, 12, movs[0].StockAfter)
}

func TestProductCreate_SinStockNoRegistraMovimiento(t *testing.T) {
	uc, store := newProductUseCase()
	p, err := uc.Create(context.Background(), "emp-1", dto.CreateProductRequest{SKU: "FIG-1", Name: "Figura", Kind: "figura"})
	require.NoError(t, err)
	movs, _ := store.Repos().Movements.List(context.Background(), entity.MovementFilter{ProductID: p.ID})
	assert.Empty(t, movs)
}

func TestProductCreate_Errores(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()
	_, err := uc.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "X-1", Name: "X"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "X-1", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "X-2", Name: "Otro", Kind: "poster"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "X-3", Name: "Otro", InitialStock: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUpdate_NoTocaStock(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()
	p, err := uc.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "X-1", Name: "X", InitialStock: 4})
	require.NoError(t, err)

	price := decimal.NewFromInt(99)
	minimo := 2
	updated, err := uc.Update(ctx, p.ID, dto.UpdateProductRequest{PriceSell: &price, StockMinimo: &minimo})
	require.NoError(t, err)
	assert.True(t, updated.PriceSell.Equal(price))
	assert.Equal(t, 2, updated.StockMinimo)
	assert.Equal(t, 4, updated.StockActual)
}

func TestProductDelete_Desactiva(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()
	p, err := uc.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "X-1", Name: "X"})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, p.ID))
	got, err := uc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	list, err := uc.List(ctx, entity.ProductFilter{OnlyActive: true})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	assert.ErrorIs(t, uc.Delete(ctx, "nope"), domain.ErrNotFound)
}
