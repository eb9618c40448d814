package ports

import (
	"context"
	"time"
)

// Tipos de evento de dominio publicados tras el commit.
const (
	EventOrderCreated         = "order.created"
	EventOrderCancelled       = "order.cancelled"
	EventOrderStatusChanged   = "order.status_changed"
	EventPurchaseCreated      = "purchase.created"
	EventPurchaseReceived     = "purchase.received"
	EventPurchaseCancelled    = "purchase.cancelled"
	EventStockLow             = "stock.low"
	EventInventoryAdjusted    = "inventory.adjusted"
	EventMembershipTierChange = "membership.tier_changed"
)

// Event evento de dominio serializable.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"` // clave de partición (id del agregado)
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// EventPublisher puerto de salida para eventos de dominio (Kafka, log, noop).
// Los workflows publican después del commit; un fallo de publicación no revierte la operación.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher descarta los eventos.
type NoopPublisher struct{}

// Publish no hace nada.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }
