package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Lines      []OrderLineRequest `json:"lines"`
	Notes      string             `json:"notes,omitempty"`
}

// OrderLineRequest producto y cantidad solicitada; el precio se toma del catálogo.
type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateOrderStatusRequest body para PATCH /api/orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// OrderResponse pedido con líneas y totales.
type OrderResponse struct {
	ID         string              `json:"id"`
	Number     string              `json:"number"`
	CustomerID string              `json:"customer_id"`
	EmployeeID string              `json:"employee_id"`
	Status     string              `json:"status"`
	Subtotal   decimal.Decimal     `json:"subtotal"`
	Discount   decimal.Decimal     `json:"discount"`
	Tax        decimal.Decimal     `json:"tax"`
	Total      decimal.Decimal     `json:"total"`
	Notes      string              `json:"notes,omitempty"`
	Lines      []OrderLineResponse `json:"lines,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// OrderLineResponse línea de pedido con precios congelados.
type OrderLineResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// OrderListResponse lista paginada de pedidos (sin líneas).
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
