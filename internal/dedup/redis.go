package dedup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces update ids in a shared redis.
const KeyPrefix = "fplab:update:"

// connectionTimeout bounds the startup ping.
const connectionTimeout = 5 * time.Second

var ErrEmptyAddress = errors.New("redis address is required")

// RedisStore shares seen ids across replicas using SET NX with an expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DialRedis connects to the configured redis and verifies it with a ping.
func DialRedis(ctx context.Context, cfg Config) (*RedisStore, error) {
	if cfg.RedisAddress == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStore(client, cfg.TTL), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// MarkSeen implements Store.
func (s *RedisStore) MarkSeen(ctx context.Context, id int64) (bool, error) {
	first, err := s.client.SetNX(ctx, KeyPrefix+strconv.FormatInt(id, 10), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return first, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
