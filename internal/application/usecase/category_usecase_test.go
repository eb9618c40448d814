package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/memory"
)

func TestCategoryCreate_NombreUnico(t *testing.T) {
	uc := usecase.NewCategoryUseCase(memory.NewStore().Repos().Categories)
	ctx := context.Background()

	manga, err := uc.Create(ctx, dto.CreateCategoryRequest{Name: " Manga ", Description: "Tomos japoneses"})
	require.NoError(t, err)
	assert.Equal(t, "Manga", manga.Name)

	_, err = uc.Create(ctx, dto.CreateCategoryRequest{Name: "manga"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateCategoryRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateCategoryRequest{Name: "Figuras"})
	require.NoError(t, err)
	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Figuras", list[0].Name)

	got, err := uc.GetByID(ctx, manga.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomos japoneses", got.Description)
	_, err = uc.GetByID(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProduct_CategoriaDebeExistir(t *testing.T) {
	products, store := newProductUseCase()
	categories := usecase.NewCategoryUseCase(store.Repos().Categories)
	ctx := context.Background()

	_, err := products.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "M-1", Name: "One Piece 1", CategoryID: "fantasma"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	manga, err := categories.Create(ctx, dto.CreateCategoryRequest{Name: "Manga"})
	require.NoError(t, err)
	p, err := products.Create(ctx, "emp-1", dto.CreateProductRequest{SKU: "M-1", Name: "One Piece 1", CategoryID: manga.ID})
	require.NoError(t, err)
	assert.Equal(t, manga.ID, p.CategoryID)

	missing := "fantasma"
	_, err = products.Update(ctx, p.ID, dto.UpdateProductRequest{CategoryID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, manga.ID, got.CategoryID)

	none := ""
	cleared, err := products.Update(ctx, p.ID, dto.UpdateProductRequest{CategoryID: &none})
	require.NoError(t, err)
	assert.Empty(t, cleared.CategoryID)
}
