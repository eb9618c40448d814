package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// En ajuste, quantity es el nuevo stock absoluto.
type RegisterMovementRequest struct {
	ProductID string `json:"product_id"`
	Type      string `json:"type"` // entrada | salida | ajuste
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
type AdjustmentRequest struct {
	ProductID string `json:"product_id"`
	NewStock  int    `json:"new_stock"`
	Reason    string `json:"reason"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	StockBefore  int       `json:"stock_before"`
	StockAfter   int       `json:"stock_after"`
	ActorID      string    `json:"actor_id"`
	Reason       string    `json:"reason"`
	DocumentID   string    `json:"document_id,omitempty"`
	DocumentType string    `json:"document_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LowStockDTO producto con stock por debajo del mínimo.
type LowStockDTO struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
	Deficit     int    `json:"deficit"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto bajo mínimo.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	SupplierID         string          `json:"supplier_id,omitempty"`
	CurrentStock       int             `json:"current_stock"`
	StockMinimo        int             `json:"stock_minimo"`
	IdealStock         int             `json:"ideal_stock"`          // ceil(StockMinimo * 1.5)
	SuggestedOrderQty  int             `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // precio de compra
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	GrossMarginPct     decimal.Decimal `json:"gross_margin_pct"`
	Priority           int             `json:"priority"` // 1 = más urgente
}
