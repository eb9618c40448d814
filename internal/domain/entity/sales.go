package entity

import "github.com/shopspring/decimal"

// SalesMetrics agregado de ventas de un período. Excluye pedidos cancelados.
// Cost usa el precio de compra vigente del producto.
type SalesMetrics struct {
	Orders  int
	Units   int
	Revenue decimal.Decimal // suma de subtotales de línea (sin impuesto)
	Cost    decimal.Decimal
}

// Margin ingresos menos costo.
func (m SalesMetrics) Margin() decimal.Decimal {
	return m.Revenue.Sub(m.Cost)
}

// ProductSales ventas de un producto en el período.
type ProductSales struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
}
