package dedup

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_MarkSeen(t *testing.T) {
	s := NewMemoryStore(10, time.Minute)
	ctx := context.Background()

	first, err := s.MarkSeen(ctx, 42)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.MarkSeen(ctx, 42)
	require.NoError(t, err)
	assert.False(t, first)

	first, err = s.MarkSeen(ctx, 43)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(10, 50*time.Millisecond)
	ctx := context.Background()

	first, _ := s.MarkSeen(ctx, 1)
	require.True(t, first)

	assert.Eventually(t, func() bool {
		first, _ := s.MarkSeen(ctx, 1)
		return first
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(2, time.Minute)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		first, _ := s.MarkSeen(ctx, id)
		require.True(t, first)
	}

	first, _ := s.MarkSeen(ctx, 1)
	assert.True(t, first, "oldest id should have been evicted")
	first, _ = s.MarkSeen(ctx, 3)
	assert.False(t, first)
}

func TestMemoryStore_ConcurrentFirstSighting(t *testing.T) {
	s := NewMemoryStore(100, time.Minute)
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if first, _ := s.MarkSeen(context.Background(), 7); first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), firsts.Load())
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore_MarkSeen(t *testing.T) {
	mr, client := newMiniredis(t)
	s := NewRedisStore(client, 5*time.Minute)
	ctx := context.Background()

	first, err := s.MarkSeen(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.MarkSeen(ctx, 1001)
	require.NoError(t, err)
	assert.False(t, first)

	assert.True(t, mr.Exists(KeyPrefix+"1001"))
	assert.Equal(t, 5*time.Minute, mr.TTL(KeyPrefix+"1001"))

	mr.FastForward(5*time.Minute + time.Second)
	first, err = s.MarkSeen(ctx, 1001)
	require.NoError(t, err)
	assert.True(t, first, "id should be new again after the TTL")
}

func TestRedisStore_Error(t *testing.T) {
	mr, client := newMiniredis(t)
	s := NewRedisStore(client, time.Minute)
	mr.Close()

	_, err := s.MarkSeen(context.Background(), 1)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	s, err := New(ctx, DefaultConfig(), log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Backend = "Redis"
	cfg.RedisAddress = mr.Addr()
	s, err = New(ctx, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	cfg.Backend = "memcached"
	_, err = New(ctx, cfg, log)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	cfg = DefaultConfig()
	cfg.TTL = 0
	_, err = New(ctx, cfg, log)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Backend = BackendRedis
	cfg.RedisAddress = ""
	_, err = New(ctx, cfg, log)
	assert.ErrorIs(t, err, ErrEmptyAddress)
}
