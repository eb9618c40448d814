package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus estado de una orden de compra.
type PurchaseStatus string

// Estados de compra. entregado y cancelado son terminales.
const (
	PurchasePendiente PurchaseStatus = "pendiente"
	PurchaseProcesado PurchaseStatus = "procesado"
	PurchaseEntregado PurchaseStatus = "entregado"
	PurchaseCancelado PurchaseStatus = "cancelado"
)

var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchasePendiente: {PurchaseProcesado, PurchaseEntregado, PurchaseCancelado},
	PurchaseProcesado: {PurchaseProcesado, PurchaseEntregado, PurchaseCancelado},
}

// Valid indica si el estado está registrado.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePendiente, PurchaseProcesado, PurchaseEntregado, PurchaseCancelado:
		return true
	}
	return false
}

// IsTerminal indica si la compra ya no admite cambios.
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseEntregado || s == PurchaseCancelado
}

// CanTransitionTo consulta la tabla de transiciones (procesado -> procesado es una recepción parcial más).
func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, allowed := range purchaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PurchaseLineStatus estado de una línea de compra.
type PurchaseLineStatus string

const (
	LinePendiente PurchaseLineStatus = "pendiente"
	LineParcial   PurchaseLineStatus = "parcial"
	LineCompleto  PurchaseLineStatus = "completo"
	LineCancelado PurchaseLineStatus = "cancelado"
)

// Purchase orden de compra a un proveedor.
type Purchase struct {
	ID         string
	Number     string // COMP-YYYYMMDD-XXXXX
	SupplierID string
	EmployeeID string
	Status     PurchaseStatus
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	ExpectedAt *time.Time
	ReceivedAt *time.Time
	Notes      string
	Lines      []PurchaseLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AllLinesComplete indica si todas las líneas se recibieron por completo.
func (p *Purchase) AllLinesComplete() bool {
	if len(p.Lines) == 0 {
		return false
	}
	for _, l := range p.Lines {
		if l.Status != LineCompleto {
			return false
		}
	}
	return true
}

// PurchaseLine línea de compra. QuantityReceived nunca supera QuantityOrdered.
type PurchaseLine struct {
	ID               string
	PurchaseID       string
	ProductID        string
	QuantityOrdered  int
	QuantityReceived int
	UnitPrice        decimal.Decimal
	Subtotal         decimal.Decimal
	Status           PurchaseLineStatus
}

// Remaining cantidad pendiente por recibir.
func (l *PurchaseLine) Remaining() int {
	return l.QuantityOrdered - l.QuantityReceived
}

// PurchaseFilter filtros de listado de compras.
type PurchaseFilter struct {
	SupplierID string
	Status     PurchaseStatus
	Limit      int
	Offset     int
}
