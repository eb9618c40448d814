package inventory

import "github.com/jhoicas/comic-store-api/internal/domain"

// StockRequest cantidad solicitada de un producto.
type StockRequest struct {
	ProductID string
	Quantity  int
}

// CheckAvailability valida las solicitudes, en orden, contra una foto del stock por producto.
// Las cantidades de un mismo producto en varias líneas se acumulan. Devuelve el primer
// faltante como *domain.StockError (errors.Is(err, domain.ErrOutOfStock)).
func CheckAvailability(snapshot map[string]int, requests []StockRequest) error {
	requested := make(map[string]int, len(requests))
	for _, r := range requests {
		if r.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		available, ok := snapshot[r.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		requested[r.ProductID] += r.Quantity
		if requested[r.ProductID] > available {
			return domain.NewOutOfStock(r.ProductID, available, requested[r.ProductID])
		}
	}
	return nil
}
