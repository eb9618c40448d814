package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/memory"
)

// ─── Lectura del CSV ──────────────────────────────────────────────────────────

func TestReadCatalog_FilasValidasYErrores(t *testing.T) {
	in := strings.Join([]string{
		"SKU,Name,Kind,Price_Buy,Price_Sell,Stock_Minimo,Initial_Stock,Supplier",
		"C-001,Batman Año Uno,comic,10.50,19.90,3,12,Panini",
		"F-002,Figura Goku,figura,\"40,00\",\"79,90\",,4,Bandai",
		",Sin SKU,comic,1,2,,,",
		"C-003,Precio roto,comic,abc,2,,,",
	}, "\n")

	rows, errs, err := readCatalog(strings.NewReader(in), ',', false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, errs, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "C-001", rows[0].Product.SKU)
	assert.Equal(t, "Batman Año Uno", rows[0].Product.Name)
	assert.Equal(t, "19.9", rows[0].Product.PriceSell.String())
	require.NotNil(t, rows[0].Product.StockMinimo)
	assert.Equal(t, 3, *rows[0].Product.StockMinimo)
	assert.Equal(t, 12, rows[0].Product.InitialStock)
	assert.Equal(t, "Panini", rows[0].Supplier)

	assert.Equal(t, "79.9", rows[1].Product.PriceSell.String())
	assert.Nil(t, rows[1].Product.StockMinimo)
}

func TestReadCatalog_Latin1YSeparadorPuntoYComa(t *testing.T) {
	utf8 := "sku;name\nC-010;Mafalda Edición Aniversario\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8)
	require.NoError(t, err)

	rows, errs, err := readCatalog(bytes.NewBufferString(latin1), ';', true)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mafalda Edición Aniversario", rows[0].Product.Name)
}

func TestReadCatalog_FaltaColumnaObligatoria(t *testing.T) {
	_, _, err := readCatalog(strings.NewReader("sku,price_sell\nX,1\n"), ',', false)
	assert.Error(t, err)
}

// ─── Importación ──────────────────────────────────────────────────────────────

func newImporter(store *memory.Store) *importer {
	repos := store.Repos()
	ledger := appinventory.NewLedger(store, repos.Movements, nil, zerolog.Nop())
	return &importer{
		products:   usecase.NewProductUseCase(store, repos.Products, ledger),
		suppliers:  usecase.NewSupplierUseCase(repos.Suppliers),
		categories: usecase.NewCategoryUseCase(repos.Categories),
		repo:       repos.Suppliers,
		actor:      "seed",
	}
}

func TestImporter_CreaProveedoresYRegistraStockInicial(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	in := strings.Join([]string{
		"sku,name,kind,price_sell,initial_stock,supplier,category",
		"C-100,Watchmen,comic,30,5,Distribuidora Norte,Novela gráfica",
		"C-101,V de Vendetta,comic,28,0,distribuidora norte,novela gráfica",
		"X-1,Tipo inválido,poster,1,0,,",
	}, "\n")
	rows, errs, err := readCatalog(strings.NewReader(in), ',', false)
	require.NoError(t, err)
	require.Empty(t, errs)

	imp := newImporter(store)
	res, err := imp.run(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.created)
	assert.Equal(t, 1, res.failed)
	assert.Equal(t, 1, res.newSuppliers)
	assert.Equal(t, 1, res.newCategories)

	p, err := store.Repos().Products.GetBySKU(ctx, "C-100")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 5, p.StockActual)
	assert.NotEmpty(t, p.SupplierID)

	other, err := store.Repos().Products.GetBySKU(ctx, "C-101")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, p.SupplierID, other.SupplierID)
	assert.NotEmpty(t, p.CategoryID)
	assert.Equal(t, p.CategoryID, other.CategoryID)
}

func TestImporter_OmiteSKUExistentes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rows, _, err := readCatalog(strings.NewReader("sku,name,initial_stock\nC-200,Maus,2\n"), ',', false)
	require.NoError(t, err)

	_, err = newImporter(store).run(ctx, rows)
	require.NoError(t, err)

	res, err := newImporter(store).run(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 0, res.created)
	assert.Equal(t, 1, res.skipped)

	p, err := store.Repos().Products.GetBySKU(ctx, "C-200")
	require.NoError(t, err)
	assert.Equal(t, 2, p.StockActual)
}
