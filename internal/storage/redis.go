package storage

import (
	"context"
	"fmt"

	"formulagrid/internal/grid"

	backend "github.com/redis/go-redis/v9"
)

const defaultKey = "formulagrid:cells"

// RedisStore keeps cells in one Redis hash mapping cell names to raw input.
type RedisStore struct {
	client *backend.Client
	key    string
}

type RedisOption func(*RedisStore)

// WithKey sets the hash key.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedis creates a store with its own client.
func NewRedis(address, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisFromURL creates a store from a redis:// URL.
func NewRedisFromURL(url string, opts ...RedisOption) (*RedisStore, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisFromClient(backend.NewClient(o), opts...), nil
}

func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, key: defaultKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save replaces the stored cells.
func (s *RedisStore) Save(ctx context.Context, cells grid.Cells) error {
	fields := make(map[string]any, len(cells))
	for idx, text := range cells {
		if text != "" {
			fields[idx.String()] = text
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(fields) > 0 {
		pipe.HSet(ctx, s.key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load returns the stored cells; a missing key is an empty sheet.
func (s *RedisStore) Load(ctx context.Context) (grid.Cells, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load from redis: %w", err)
	}
	cells := make(grid.Cells, len(fields))
	for name, text := range fields {
		idx, err := grid.ParseIndex(name)
		if err != nil {
			return nil, fmt.Errorf("redis hash %s: %w", s.key, err)
		}
		cells[idx] = text
	}
	return cells, nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
