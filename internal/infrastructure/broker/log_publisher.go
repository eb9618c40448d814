package broker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/comic-store-api/internal/application/ports"
)

// LogPublisher registra los eventos en el log cuando no hay brokers configurados.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher construye el publicador de desarrollo.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish escribe el evento en el log.
func (p *LogPublisher) Publish(_ context.Context, event ports.Event) error {
	p.log.Info().Str("type", event.Type).Str("key", event.Key).Interface("payload", event.Payload).Msg("evento de dominio")
	return nil
}
