// Package dedup remembers recently seen update ids so that a redelivered
// webhook update is processed once.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/fplab/internal/logger"
)

var (
	ErrUnknownBackend = errors.New("unknown dedup backend")
	ErrInvalidConfig  = errors.New("invalid dedup configuration")
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store records update ids for a limited time.
type Store interface {
	// MarkSeen records id and reports whether this is its first sighting
	// within the retention window. Check and record happen atomically.
	MarkSeen(ctx context.Context, id int64) (bool, error)
	Close() error
}

// Config selects and sizes the backend.
type Config struct {
	Backend string        `env:"DEDUP_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"DEDUP_TTL" envDefault:"5m"`
	Size    int           `env:"DEDUP_SIZE" envDefault:"1000"`

	RedisAddress  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// DefaultConfig keeps up to 1000 ids for five minutes in memory.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendMemory,
		TTL:          5 * time.Minute,
		Size:         1000,
		RedisAddress: "localhost:6379",
	}
}

// New builds the configured store. The redis backend verifies the connection.
func New(ctx context.Context, cfg Config, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: TTL must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		if cfg.Size <= 0 {
			return nil, fmt.Errorf("%w: size must be positive", ErrInvalidConfig)
		}
		log.Info("Using in-memory dedup store", logger.Int("size", cfg.Size), logger.Duration("ttl", cfg.TTL))
		return NewMemoryStore(cfg.Size, cfg.TTL), nil
	case BackendRedis:
		store, err := DialRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("Using redis dedup store", logger.String("address", cfg.RedisAddress), logger.Duration("ttl", cfg.TTL))
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
