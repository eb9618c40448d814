package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. InitialStock > 0 registra una entrada en el ledger.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description"`
	Kind         string          `json:"kind" validate:"omitempty,oneof=comic figura otro"`
	Attributes   json.RawMessage `json:"attributes"`
	CategoryID   string          `json:"category_id"`
	SupplierID   string          `json:"supplier_id"`
	PriceBuy     decimal.Decimal `json:"price_buy"`
	PriceSell    decimal.Decimal `json:"price_sell"`
	StockMinimo  *int            `json:"stock_minimo"`
	InitialStock int             `json:"initial_stock" validate:"min=0"`
}

// UpdateProductRequest campos mutables de un producto. El stock no se modifica aquí.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Kind        *string          `json:"kind"`
	Attributes  json.RawMessage  `json:"attributes"`
	CategoryID  *string          `json:"category_id"`
	SupplierID  *string          `json:"supplier_id"`
	PriceBuy    *decimal.Decimal `json:"price_buy"`
	PriceSell   *decimal.Decimal `json:"price_sell"`
	StockMinimo *int             `json:"stock_minimo"`
	Active      *bool            `json:"active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	PriceBuy    decimal.Decimal `json:"price_buy"`
	PriceSell   decimal.Decimal `json:"price_sell"`
	StockActual int             `json:"stock_actual"`
	StockMinimo int             `json:"stock_minimo"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
