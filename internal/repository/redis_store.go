package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"SignalScan/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const historyField = "payload"

// RedisStore maps latest records onto string keys and history onto streams.
// Path "/signals/reversal_bull/TCS" becomes key "<prefix>:signals:reversal_bull:TCS".
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	maxStream int64
}

// RedisStoreOption configures RedisStore.
type RedisStoreOption func(*RedisStore)

// WithStreamMaxLen caps each history stream (approximate trim). Zero keeps everything.
func WithStreamMaxLen(n int64) RedisStoreOption {
	return func(s *RedisStore) {
		s.maxStream = n
	}
}

// NewRedisStore wraps a shared client; the caller keeps ownership of it.
func NewRedisStore(client redis.UniversalClient, prefix string, opts ...RedisStoreOption) repository.Store {
	s := &RedisStore{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := s.client.Set(ctx, s.key(path), b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) Push(ctx context.Context, path string, value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", path, err)
	}
	args := &redis.XAddArgs{
		Stream: s.key(path),
		Values: map[string]interface{}{historyField: string(b)},
	}
	if s.maxStream > 0 {
		args.MaxLen = s.maxStream
		args.Approx = true
	}
	id, err := s.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("redis xadd %s: %w", path, err)
	}
	return id, nil
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error { return nil }

func (s *RedisStore) key(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if s.prefix == "" {
		return strings.Join(parts, ":")
	}
	return s.prefix + ":" + strings.Join(parts, ":")
}
