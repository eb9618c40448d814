package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado de un pedido.
type OrderStatus string

// Estados de pedido. entregado y cancelado son terminales.
const (
	OrderPendiente OrderStatus = "pendiente"
	OrderProcesado OrderStatus = "procesado"
	OrderEnviado   OrderStatus = "enviado"
	OrderEntregado OrderStatus = "entregado"
	OrderCancelado OrderStatus = "cancelado"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPendiente: {OrderProcesado, OrderEnviado, OrderEntregado, OrderCancelado},
	OrderProcesado: {OrderEnviado, OrderEntregado, OrderCancelado},
	OrderEnviado:   {OrderEntregado, OrderCancelado},
}

// Valid indica si el estado está registrado.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendiente, OrderProcesado, OrderEnviado, OrderEntregado, OrderCancelado:
		return true
	}
	return false
}

// IsTerminal indica si el pedido ya no admite cambios.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderEntregado || s == OrderCancelado
}

// CanTransitionTo consulta la tabla de transiciones.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order cabecera de un pedido de venta.
// Discount es una cifra informativa: el descuento ya está aplicado por línea en Subtotal.
type Order struct {
	ID         string
	Number     string // PED-YYYYMMDD-XXXXX
	CustomerID string
	EmployeeID string
	Status     OrderStatus
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	Notes      string
	Lines      []OrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderLine línea de pedido con precio y descuento congelados al momento de la venta.
type OrderLine struct {
	ID           string
	OrderID      string
	ProductID    string
	Quantity     int
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	Subtotal     decimal.Decimal
}

// OrderFilter filtros de listado de pedidos.
type OrderFilter struct {
	CustomerID string
	Status     OrderStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
