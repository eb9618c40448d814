package entity

import "time"

// MovementType tipo de movimiento del ledger de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementEntrada MovementType = "entrada"
	MovementSalida  MovementType = "salida"
	MovementAjuste  MovementType = "ajuste" // fija el stock absoluto
)

// Valid indica si el tipo pertenece al catálogo.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntrada, MovementSalida, MovementAjuste:
		return true
	}
	return false
}

// DocumentType tipo de documento origen de un movimiento.
type DocumentType string

const (
	DocumentPedido DocumentType = "pedido"
	DocumentCompra DocumentType = "compra"
	DocumentAjuste DocumentType = "ajuste"
)

// InventoryMovement registro inmutable del ledger. StockAfter coincide con el stock
// del producto al momento de escribir el movimiento.
type InventoryMovement struct {
	ID             string
	ProductID      string
	MovementTypeID int
	Type           MovementType
	Quantity       int // en ajuste es el nuevo valor absoluto
	StockBefore    int
	StockAfter     int
	ActorID        string
	Reason         string
	DocumentID     string
	DocumentType   DocumentType
	CreatedAt      time.Time
}

// MovementFilter filtros para listar movimientos.
type MovementFilter struct {
	ProductID  string
	Type       MovementType
	DocumentID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
