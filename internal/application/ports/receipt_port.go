package ports

import (
	"context"

	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// OrderReceipt datos necesarios para el comprobante impreso de un pedido.
type OrderReceipt struct {
	Order        *entity.Order
	Customer     *entity.Customer
	ProductNames map[string]string // product_id -> nombre
}

// ReceiptRenderer genera la representación PDF de un pedido.
type ReceiptRenderer interface {
	RenderOrderReceipt(ctx context.Context, receipt OrderReceipt) ([]byte, error)
}
