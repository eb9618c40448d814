// Package pricing calcula subtotales, descuentos de membresía, impuesto y totales
// de pedidos y compras con aritmética decimal.
package pricing

import "github.com/shopspring/decimal"

// TaxRate IVA fijo aplicado sobre el subtotal.
var TaxRate = decimal.RequireFromString("0.16")

var hundred = decimal.NewFromInt(100)

// Line entrada de cálculo: producto, cantidad y precio unitario vigente.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PricedLine línea con descuento unitario y subtotal calculados.
type PricedLine struct {
	ProductID    string
	Quantity     int
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	Subtotal     decimal.Decimal
}

// Quote resultado del cálculo. Total = Subtotal + Tax; Discount es informativo
// (el descuento ya viene aplicado en cada línea) y no se resta de nuevo.
type Quote struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// PriceOrder aplica el porcentaje de descuento del nivel del cliente a cada línea.
// El subtotal de línea usa el descuento unitario sin redondear; solo los montos guardados
// (descuento unitario y subtotal de línea) se redondean a 2 decimales. Subtotal es la suma
// exacta de los subtotales de línea guardados.
func PriceOrder(discountPct decimal.Decimal, lines []Line) Quote {
	q := Quote{Lines: make([]PricedLine, 0, len(lines))}
	subtotal := decimal.Zero
	for _, l := range lines {
		unitDiscount := l.UnitPrice.Mul(discountPct).Div(hundred)
		lineSubtotal := l.UnitPrice.Sub(unitDiscount).Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		q.Lines = append(q.Lines, PricedLine{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			UnitDiscount: unitDiscount.Round(2),
			Subtotal:     lineSubtotal,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}
	q.Subtotal = subtotal
	q.Discount = subtotal.Mul(discountPct).Div(hundred).Round(2)
	q.Tax = Tax(subtotal)
	q.Total = subtotal.Add(q.Tax)
	return q
}

// PricePurchase calcula una compra a proveedor (sin descuento).
func PricePurchase(lines []Line) Quote {
	return PriceOrder(decimal.Zero, lines)
}

// Tax calcula el impuesto de un subtotal.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}
