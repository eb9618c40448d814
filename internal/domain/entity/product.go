package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de producto del catálogo.
const (
	ProductKindComic  = "comic"
	ProductKindFigura = "figura"
	ProductKindOtro   = "otro"
)

// DefaultStockMinimo umbral de reorden cuando no se indica uno.
const DefaultStockMinimo = 5

// Product representa un artículo del catálogo (cómic, figura coleccionable u otro).
// StockActual es el único total mutable y solo cambia junto con un InventoryMovement.
type Product struct {
	ID          string
	SKU         string // único
	Name        string
	Description string
	Kind        string
	Attributes  json.RawMessage // datos propios del tipo: editorial, número, escala, material...
	CategoryID  string
	SupplierID  string
	PriceBuy    decimal.Decimal
	PriceSell   decimal.Decimal
	StockActual int
	StockMinimo int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock indica si el stock está por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.StockActual < p.StockMinimo
}

// ValidKind valida el tipo de producto.
func ValidKind(k string) bool {
	switch k {
	case ProductKindComic, ProductKindFigura, ProductKindOtro:
		return true
	}
	return false
}

// ProductFilter filtros de listado de productos.
type ProductFilter struct {
	Search     string // nombre o SKU
	Kind       string
	CategoryID string
	SupplierID string
	OnlyActive bool
	Limit      int
	Offset     int
}
