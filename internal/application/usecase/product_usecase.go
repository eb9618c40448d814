package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock solo cambia vía movimientos del ledger.
type ProductUseCase struct {
	txRunner repository.TxRunner
	repo     repository.ProductRepository
	ledger   *appinventory.Ledger
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner repository.TxRunner, repo repository.ProductRepository, ledger *appinventory.Ledger) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repo: repo, ledger: ledger, now: time.Now}
}

// Create crea un producto. Con InitialStock > 0 registra la entrada "Inventario inicial"
// en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" || in.InitialStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = entity.ProductKindOtro
	}
	if !entity.ValidKind(kind) || in.PriceBuy.IsNegative() || in.PriceSell.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	minimo := entity.DefaultStockMinimo
	if in.StockMinimo != nil {
		if *in.StockMinimo < 0 {
			return nil, domain.ErrInvalidInput
		}
		minimo = *in.StockMinimo
	}

	now := uc.now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		SKU:         sku,
		Name:        name,
		Description: in.Description,
		Kind:        kind,
		Attributes:  in.Attributes,
		CategoryID:  strings.TrimSpace(in.CategoryID),
		SupplierID:  in.SupplierID,
		PriceBuy:    in.PriceBuy,
		PriceSell:   in.PriceSell,
		StockMinimo: minimo,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		existing, err := repos.Products.GetBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if err := checkCategory(ctx, repos, product.CategoryID); err != nil {
			return err
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		_, updated, err := uc.ledger.ApplyInTx(ctx, repos, appinventory.MovementInput{
			ProductID: product.ID,
			Type:      entity.MovementEntrada,
			Quantity:  in.InitialStock,
			ActorID:   actorID,
			Reason:    "Inventario inicial",
		})
		if err != nil {
			return err
		}
		product = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. No permite modificar el stock (se maneja vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		product, err = repos.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if err := applyProductUpdate(product, in); err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := checkCategory(ctx, repos, product.CategoryID); err != nil {
				return err
			}
		}
		product.UpdatedAt = uc.now()
		return repos.Products.Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

func applyProductUpdate(product *entity.Product, in dto.UpdateProductRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.ErrInvalidInput
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Kind != nil {
		kind := strings.ToLower(strings.TrimSpace(*in.Kind))
		if !entity.ValidKind(kind) {
			return domain.ErrInvalidInput
		}
		product.Kind = kind
	}
	if len(in.Attributes) > 0 {
		product.Attributes = in.Attributes
	}
	if in.CategoryID != nil {
		product.CategoryID = strings.TrimSpace(*in.CategoryID)
	}
	if in.SupplierID != nil {
		product.SupplierID = *in.SupplierID
	}
	if in.PriceBuy != nil {
		if in.PriceBuy.IsNegative() {
			return domain.ErrInvalidInput
		}
		product.PriceBuy = *in.PriceBuy
	}
	if in.PriceSell != nil {
		if in.PriceSell.IsNegative() {
			return domain.ErrInvalidInput
		}
		product.PriceSell = *in.PriceSell
	}
	if in.StockMinimo != nil {
		if *in.StockMinimo < 0 {
			return domain.ErrInvalidInput
		}
		product.StockMinimo = *in.StockMinimo
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	return nil
}

// checkCategory exige que la categoría exista. Vacío deja el producto sin categoría.
func checkCategory(ctx context.Context, repos repository.Repos, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	c, err := repos.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: la categoría %s no existe", domain.ErrInvalidInput, categoryID)
	}
	return nil
}

// List lista productos con búsqueda por nombre o SKU y paginación.
func (uc *ProductUseCase) List(ctx context.Context, filter entity.ProductFilter) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// Delete desactiva el producto. Los movimientos y pedidos históricos lo siguen referenciando.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	return uc.repo.SetActive(ctx, id, false, uc.now())
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Kind:        p.Kind,
		Attributes:  p.Attributes,
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		PriceBuy:    p.PriceBuy,
		PriceSell:   p.PriceSell,
		StockActual: p.StockActual,
		StockMinimo: p.StockMinimo,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
