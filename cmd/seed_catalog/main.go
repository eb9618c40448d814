// seed_catalog carga el catálogo inicial (proveedores y productos) desde un CSV del distribuidor.
//
// Uso: go run ./cmd/seed_catalog [-sep ';'] [-latin1] [-actor <id>] catalogo.csv
//
// Usa la misma configuración que la API (DB_*, DATABASE_URL). El stock inicial se registra
// como entrada de inventario, igual que al crear el producto por la API.
// Proveedores y categorías se buscan por nombre y se crean si no existen.
// Los SKU ya existentes se omiten.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/postgres"
	"github.com/jhoicas/comic-store-api/pkg/config"
	"github.com/jhoicas/comic-store-api/pkg/logger"
)

func main() {
	sep := flag.String("sep", ",", "separador de columnas")
	latin1 := flag.Bool("latin1", false, "el archivo está en ISO-8859-1")
	actor := flag.String("actor", "seed", "empleado que figura en los movimientos de stock inicial")
	flag.Parse()
	if flag.NArg() != 1 || len([]rune(*sep)) != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog [-sep ','] [-latin1] [-actor id] catalogo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed_catalog"})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	rows, rowErrs, err := readCatalog(f, []rune(*sep)[0], *latin1)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}
	for _, e := range rowErrs {
		log.Warn().Err(e).Msg("fila descartada")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
	}

	txRunner := postgres.NewTxRunner(pool, cfg.DB.TxTimeout)
	repos := postgres.ReposFor(pool)
	ledger := appinventory.NewLedger(txRunner, repos.Movements, nil, log.Component("inventory"))
	imp := &importer{
		products:   usecase.NewProductUseCase(txRunner, repos.Products, ledger),
		suppliers:  usecase.NewSupplierUseCase(repos.Suppliers),
		categories: usecase.NewCategoryUseCase(repos.Categories),
		repo:       repos.Suppliers,
		actor:      *actor,
	}
	res, err := imp.run(ctx, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("importar catálogo")
	}
	log.Info().
		Int("creados", res.created).
		Int("omitidos", res.skipped).
		Int("fallidos", res.failed+len(rowErrs)).
		Int("proveedores_nuevos", res.newSuppliers).
		Int("categorias_nuevas", res.newCategories).
		Msg("catálogo importado")
}

type importResult struct {
	created, skipped, failed, newSuppliers, newCategories int
}

type importer struct {
	products   *usecase.ProductUseCase
	suppliers  *usecase.SupplierUseCase
	categories *usecase.CategoryUseCase
	repo       repository.SupplierRepository
	actor      string

	supplierIDs map[string]string // nombre en minúsculas -> id
	categoryIDs map[string]string
}

func (imp *importer) run(ctx context.Context, rows []catalogRow) (importResult, error) {
	var res importResult
	if err := imp.loadSuppliers(ctx); err != nil {
		return res, err
	}
	if err := imp.loadCategories(ctx); err != nil {
		return res, err
	}
	for _, row := range rows {
		in := row.Product
		if row.Supplier != "" {
			id, created, err := imp.supplierID(ctx, row.Supplier)
			if err != nil {
				return res, fmt.Errorf("línea %d: proveedor %q: %w", row.Line, row.Supplier, err)
			}
			if created {
				res.newSuppliers++
			}
			in.SupplierID = id
		}
		if row.Category != "" {
			id, created, err := imp.categoryID(ctx, row.Category)
			if err != nil {
				return res, fmt.Errorf("línea %d: categoría %q: %w", row.Line, row.Category, err)
			}
			if created {
				res.newCategories++
			}
			in.CategoryID = id
		}
		_, err := imp.products.Create(ctx, imp.actor, in)
		switch {
		case err == nil:
			res.created++
		case errors.Is(err, domain.ErrDuplicate):
			res.skipped++
		case errors.Is(err, domain.ErrInvalidInput):
			res.failed++
		default:
			return res, fmt.Errorf("línea %d: sku %s: %w", row.Line, in.SKU, err)
		}
	}
	return res, nil
}

func (imp *importer) loadSuppliers(ctx context.Context) error {
	imp.supplierIDs = map[string]string{}
	const page = 100
	for offset := 0; ; offset += page {
		list, err := imp.repo.List(ctx, page, offset)
		if err != nil {
			return fmt.Errorf("listar proveedores: %w", err)
		}
		for _, s := range list {
			imp.supplierIDs[strings.ToLower(s.Name)] = s.ID
		}
		if len(list) < page {
			return nil
		}
	}
}

func (imp *importer) supplierID(ctx context.Context, name string) (string, bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := imp.supplierIDs[key]; ok {
		return id, false, nil
	}
	s, err := imp.suppliers.Create(ctx, dto.CreateSupplierRequest{Name: name})
	if err != nil {
		return "", false, err
	}
	imp.supplierIDs[key] = s.ID
	return s.ID, true, nil
}

func (imp *importer) loadCategories(ctx context.Context) error {
	imp.categoryIDs = map[string]string{}
	list, err := imp.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("listar categorías: %w", err)
	}
	for _, c := range list {
		imp.categoryIDs[strings.ToLower(c.Name)] = c.ID
	}
	return nil
}

func (imp *importer) categoryID(ctx context.Context, name string) (string, bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := imp.categoryIDs[key]; ok {
		return id, false, nil
	}
	c, err := imp.categories.Create(ctx, dto.CreateCategoryRequest{Name: name})
	if err != nil {
		return "", false, err
	}
	imp.categoryIDs[key] = c.ID
	return c.ID, true, nil
}
