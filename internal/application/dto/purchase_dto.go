package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest body para POST /api/purchases.
type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id"`
	ExpectedAt *time.Time            `json:"expected_at,omitempty"`
	Notes      string                `json:"notes,omitempty"`
	Lines      []PurchaseLineRequest `json:"lines"`
}

// PurchaseLineRequest línea de compra con el precio pactado con el proveedor.
type PurchaseLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ReceivePurchaseRequest body para POST /api/purchases/:id/receive.
type ReceivePurchaseRequest struct {
	ReceivedAt *time.Time           `json:"received_at,omitempty"`
	Lines      []ReceiptLineRequest `json:"lines"`
}

// ReceiptLineRequest cantidad recibida en esta entrega para una línea.
type ReceiptLineRequest struct {
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}

// UpdatePurchaseRequest campos editables de la cabecera.
type UpdatePurchaseRequest struct {
	ExpectedAt *time.Time `json:"expected_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// PurchaseResponse compra con líneas y totales.
type PurchaseResponse struct {
	ID         string                 `json:"id"`
	Number     string                 `json:"number"`
	SupplierID string                 `json:"supplier_id"`
	EmployeeID string                 `json:"employee_id"`
	Status     string                 `json:"status"`
	Subtotal   decimal.Decimal        `json:"subtotal"`
	Tax        decimal.Decimal        `json:"tax"`
	Total      decimal.Decimal        `json:"total"`
	ExpectedAt *time.Time             `json:"expected_at,omitempty"`
	ReceivedAt *time.Time             `json:"received_at,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Lines      []PurchaseLineResponse `json:"lines,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// PurchaseLineResponse línea de compra con lo recibido hasta ahora.
type PurchaseLineResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	QuantityOrdered  int             `json:"quantity_ordered"`
	QuantityReceived int             `json:"quantity_received"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Status           string          `json:"status"`
}

// PurchaseListResponse lista paginada de compras (sin líneas).
type PurchaseListResponse struct {
	Items []PurchaseResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
