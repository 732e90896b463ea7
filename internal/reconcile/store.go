package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/triporo/booking-api/internal/model"
)

// ErrSessionNotFound is returned when a checkout session has expired or
// never existed. Handlers translate it into a 404.
var ErrSessionNotFound = errors.New("reconcile: session not found")

// Store persists checkout session state between requests. Sessions are
// short-lived; implementations should expire them after the configured
// TTL so abandoned checkouts clean themselves up.
type Store interface {
	Get(ctx context.Context, sessionID string) (*model.BookingOfferState, error)
	Put(ctx context.Context, state *model.BookingOfferState) error
	Delete(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "checkout:session:"

// RedisStore keeps session state in Redis as JSON with a TTL, so any
// instance of the service can serve any session.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore builds a RedisStore. ttl bounds how long an idle session
// survives; every Put refreshes it.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.BookingOfferState, error) {
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var state model.BookingOfferState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RedisStore) Put(ctx context.Context, state *model.BookingOfferState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+state.SessionID, raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// MemoryStore is an in-process Store used in tests and as the degraded
// mode when Redis is unreachable at startup. Sessions then stick to one
// instance and vanish on restart, which beats refusing checkouts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]model.BookingOfferState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]model.BookingOfferState)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.BookingOfferState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := state
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, state *model.BookingOfferState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.SessionID] = *state
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
