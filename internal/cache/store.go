package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrUnavailable = errors.New("cache not available")
	ErrMiss        = errors.New("cache miss")
)

const writeTimeout = 2 * time.Second

// StoreConfig names a key namespace and how long its entries live.
type StoreConfig struct {
	Namespace string
	TTL       time.Duration
}

var (
	ExamStore     = StoreConfig{Namespace: "exam", TTL: 5 * time.Minute}
	QuestionStore = StoreConfig{Namespace: "question", TTL: 10 * time.Minute}
)

// Store is a JSON value cache over one redis namespace. A Store without a
// client never hits and never fails writes.
type Store struct {
	client *redis.Client
	cfg    StoreConfig
}

func NewStore(client *redis.Client, cfg StoreConfig) *Store {
	return &Store{client: client, cfg: cfg}
}

func (s *Store) Enabled() bool { return s.client != nil }

// Key returns the full redis key for k.
func (s *Store) Key(k string) string { return s.cfg.Namespace + ":" + k }

func (s *Store) Get(ctx context.Context, k string, dest any) error {
	if s.client == nil {
		return ErrUnavailable
	}
	raw, err := s.client.Get(ctx, s.Key(k)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrMiss
	case err != nil:
		return fmt.Errorf("cache read %s: %w", s.Key(k), err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", s.Key(k), err)
	}
	return nil
}

// Put writes value with the namespace TTL.
func (s *Store) Put(ctx context.Context, k string, value any) error {
	if s.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", s.Key(k), err)
	}
	return s.client.Set(ctx, s.Key(k), raw, s.cfg.TTL).Err()
}

// Evict unlinks the given keys in one round trip.
func (s *Store) Evict(ctx context.Context, keys ...string) error {
	if s.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.Key(k))
	}
	return s.client.Unlink(ctx, full...).Err()
}

// Fetch is cache-aside over s: a hit is decoded into T, a miss calls load
// and writes the result back before returning it. Cache faults only log.
func Fetch[T any](ctx context.Context, s *Store, k string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := s.Get(ctx, k, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) && !errors.Is(err, ErrUnavailable) {
		slog.WarnContext(ctx, "Cache read failed, loading from source", "error", err, "key", s.Key(k))
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if s.Enabled() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		if err := s.Put(wctx, k, value); err != nil {
			slog.ErrorContext(ctx, "Cache write failed", "error", err, "key", s.Key(k))
		}
		cancel()
	}
	return value, nil
}
