// Package broker publica los eventos de dominio en Kafka.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/comic-store-api/internal/application/ports"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// messageWriter es el subconjunto de *kafka.Writer que usa el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implementa ports.EventPublisher sobre segmentio/kafka-go.
type KafkaPublisher struct {
	writer messageWriter
	log    zerolog.Logger
}

// NewKafkaPublisher crea el writer para el tópico de eventos.
func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &KafkaPublisher{writer: writer, log: log}
}

// Publish serializa el evento como JSON y lo escribe con la clave del agregado
// (mismo agregado, misma partición).
func (p *KafkaPublisher) Publish(ctx context.Context, event ports.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("escribir en kafka: %w", err)
	}
	p.log.Debug().Str("type", event.Type).Str("key", event.Key).Msg("evento publicado")
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
