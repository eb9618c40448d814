package memory

import (
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	resourceID string
	expiresAt  time.Time
}

// IdempotencyStore claves de idempotencia en memoria, para el modo sin Redis.
// Una clave vencida se trata como nueva.
type IdempotencyStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]idempotencyEntry
	now  func() time.Time
}

// NewIdempotencyStore crea el almacén. ttl <= 0 deja las claves sin vencimiento.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, keys: map[string]idempotencyEntry{}, now: time.Now}
}

// Reserve además purga las claves vencidas, así el mapa no crece sin límite.
func (s *IdempotencyStore) Reserve(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()
	if e, ok := s.keys[key]; ok {
		return e.resourceID, false, nil
	}
	s.keys[key] = s.entry("")
	return "", true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = s.entry(resourceID)
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *IdempotencyStore) entry(resourceID string) idempotencyEntry {
	e := idempotencyEntry{resourceID: resourceID}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	return e
}

func (s *IdempotencyStore) purgeExpired() {
	for k, e := range s.keys {
		if s.expired(e) {
			delete(s.keys, k)
		}
	}
}

func (s *IdempotencyStore) expired(e idempotencyEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
