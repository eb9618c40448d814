package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comic-store-api/internal/application/dto"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
)

// ReplenishmentUseCase alertas de stock bajo y lista de reposición para compras.
type ReplenishmentUseCase struct {
	products repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(products repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{products: products}
}

// LowStock devuelve los productos activos con stock_actual < stock_minimo.
func (uc *ReplenishmentUseCase) LowStock(ctx context.Context) ([]dto.LowStockDTO, error) {
	list, err := uc.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockDTO, 0, len(list))
	for _, p := range list {
		out = append(out, dto.LowStockDTO{
			ProductID:   p.ID,
			SKU:         p.SKU,
			ProductName: p.Name,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
			Deficit:     p.StockMinimo - p.StockActual,
		})
	}
	return out, nil
}

// GenerateReplenishmentList devuelve los productos bajo mínimo con la cantidad sugerida
// de compra y un ranking de prioridad.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	rawItems, err := uc.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(rawItems) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	hundred := decimal.NewFromInt(100)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(rawItems))
	for _, item := range rawItems {
		// Stock ideal = mínimo * 1.5, redondeado hacia arriba
		idealStock := int(decimal.NewFromInt(int64(item.StockMinimo)).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart())
		suggestedQty := idealStock - item.StockActual
		if suggestedQty < 0 {
			suggestedQty = 0
		}

		var grossMarginPct decimal.Decimal
		if item.PriceSell.GreaterThan(decimal.Zero) {
			grossMarginPct = item.PriceSell.Sub(item.PriceBuy).Div(item.PriceSell).Mul(hundred).Round(2)
		}

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          item.ID,
			SKU:                item.SKU,
			ProductName:        item.Name,
			SupplierID:         item.SupplierID,
			CurrentStock:       item.StockActual,
			StockMinimo:        item.StockMinimo,
			IdealStock:         idealStock,
			SuggestedOrderQty:  suggestedQty,
			UnitCost:           item.PriceBuy,
			EstimatedOrderCost: item.PriceBuy.Mul(decimal.NewFromInt(int64(suggestedQty))),
			GrossMarginPct:     grossMarginPct,
		})
	}

	// Primero agotados, luego mayor déficit relativo al mínimo, luego mayor margen.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if (a.CurrentStock == 0) != (b.CurrentStock == 0) {
			return a.CurrentStock == 0
		}
		ra := deficitRatio(a.CurrentStock, a.StockMinimo)
		rb := deficitRatio(b.CurrentStock, b.StockMinimo)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.GrossMarginPct.GreaterThan(b.GrossMarginPct)
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func deficitRatio(stock, minimum int) decimal.Decimal {
	if minimum <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minimum - stock)).Div(decimal.NewFromInt(int64(minimum)))
}
