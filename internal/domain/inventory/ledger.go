package inventory

import (
	"github.com/jhoicas/comic-store-api/internal/domain"
	"github.com/jhoicas/comic-store-api/internal/domain/entity"
)

// NextStock aplica la semántica del tipo de movimiento sobre el stock actual (servicio de dominio).
//
//	entrada: after = before + qty
//	salida:  after = before - qty (falla si qty > before)
//	ajuste:  after = qty (valor absoluto)
func NextStock(productID string, before int, t entity.MovementType, qty int) (int, error) {
	switch t {
	case entity.MovementEntrada:
		if qty <= 0 {
			return before, domain.ErrInvalidQuantity
		}
		return before + qty, nil
	case entity.MovementSalida:
		if qty <= 0 {
			return before, domain.ErrInvalidQuantity
		}
		if qty > before {
			return before, domain.NewInsufficientStock(productID, before, qty)
		}
		return before - qty, nil
	case entity.MovementAjuste:
		if qty < 0 {
			return before, domain.ErrInvalidQuantity
		}
		return qty, nil
	}
	return before, domain.ErrInvalidInput
}
