package ports

import "context"

// IdempotencyStore recuerda el resultado de operaciones identificadas por una clave del cliente.
type IdempotencyStore interface {
	// Reserve marca la clave como en curso. Si ya existe devuelve el id guardado (vacío si sigue en curso)
	// y reserved=false.
	Reserve(ctx context.Context, key string) (existingID string, reserved bool, err error)
	// Complete asocia la clave con el id del recurso creado.
	Complete(ctx context.Context, key, resourceID string) error
	// Release libera una reserva cuando la operación falla.
	Release(ctx context.Context, key string) error
}

// NoopIdempotencyStore deshabilita la idempotencia: toda clave se considera nueva.
type NoopIdempotencyStore struct{}

func (NoopIdempotencyStore) Reserve(context.Context, string) (string, bool, error) { return "", true, nil }
func (NoopIdempotencyStore) Complete(context.Context, string, string) error { return nil }
func (NoopIdempotencyStore) Release(context.Context, string) error { return nil }
