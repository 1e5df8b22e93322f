package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const storageOpTimeout = 500 * time.Millisecond

// LimiterStorage adapts Redis to fiber.Storage so that rate limit counters
// are shared by every instance of the service.
type LimiterStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewLimiterStorage returns storage that namespaces keys under prefix.
func NewLimiterStorage(r *Redis, prefix string) *LimiterStorage {
	var client redis.UniversalClient
	if r.Enabled() {
		client = r.Client
	}
	return &LimiterStorage{client: client, prefix: prefix}
}

// Get returns nil, nil when the key does not exist.
func (s *LimiterStorage) Get(key string) ([]byte, error) {
	if s.client == nil {
		return nil, errors.New("redis client not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *LimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if s.client == nil {
		return errors.New("redis client not configured")
	}
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, val, exp).Err()
}

func (s *LimiterStorage) Delete(key string) error {
	if s.client == nil {
		return errors.New("redis client not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Reset removes every key under the prefix.
func (s *LimiterStorage) Reset() error {
	if s.client == nil {
		return errors.New("redis client not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client is owned by Redis.
func (s *LimiterStorage) Close() error {
	return nil
}
