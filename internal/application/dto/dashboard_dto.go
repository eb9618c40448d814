package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesMetricsDTO totales de ventas de un período.
type SalesMetricsDTO struct {
	Orders    int             `json:"orders"`
	Units     int             `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"` // subtotales sin impuesto
	Cost      decimal.Decimal `json:"cost"`
	Margin    decimal.Decimal `json:"margin"`
	MarginPct decimal.Decimal `json:"margin_pct"`
}

// TopProductDTO producto del ranking por ingreso.
type TopProductDTO struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
	MarginPct decimal.Decimal `json:"margin_pct"`
}

// DashboardSummaryDTO resumen de ventas del día y del período (por defecto, el mes en curso).
type DashboardSummaryDTO struct {
	Today       SalesMetricsDTO `json:"today"`
	Period      SalesMetricsDTO `json:"period"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	TopProducts []TopProductDTO `json:"top_products"`
	DateLabel   string          `json:"date_label"` // ej. "Octubre 2026"
}
