// Package cache implementa el almacén de claves de idempotencia sobre Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/comic-store-api/internal/application/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const pendingValue = "pending"

// IdempotencyStore guarda clave -> id del recurso con TTL. Reserve usa SETNX para que dos
// peticiones con la misma clave no creen dos pedidos.
type IdempotencyStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewClient abre la conexión y verifica con PING.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewIdempotencyStore construye el almacén.
func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl, prefix: "idempotency:orders:"}
}

// Reserve marca la clave como en curso si no existía.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.prefix+key, pendingValue, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reservar clave: %w", err)
	}
	if ok {
		return "", true, nil
	}
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// expiró entre SETNX y GET: reintentar una vez
		ok, err = s.rdb.SetNX(ctx, s.prefix+key, pendingValue, s.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("reservar clave: %w", err)
		}
		return "", ok, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("leer clave: %w", err)
	}
	if val == pendingValue {
		return "", false, nil
	}
	return val, false, nil
}

// Complete guarda el id del recurso creado.
func (s *IdempotencyStore) Complete(ctx context.Context, key, resourceID string) error {
	if err := s.rdb.Set(ctx, s.prefix+key, resourceID, s.ttl).Err(); err != nil {
		return fmt.Errorf("completar clave: %w", err)
	}
	return nil
}

// Release borra la reserva para permitir reintentos del cliente.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("liberar clave: %w", err)
	}
	return nil
}
