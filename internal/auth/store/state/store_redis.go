package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"usergate/pkg/platform/sentinel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var takeDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "usergate_state_take_duration_ms",
	Help:    "Latency of state binding take operations against Redis in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const stateKeyPrefix = "usergate:state:"

// RedisStore shares bindings between instances. Expiry is delegated to Redis
// key TTLs and Take relies on GETDEL for single use.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, state, redirectURL string) error {
	if state == "" {
		return fmt.Errorf("empty state: %w", sentinel.ErrInvalidState)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state, redirectURL, s.ttl).Err(); err != nil {
		return fmt.Errorf("store state binding: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, state string) (string, error) {
	start := time.Now()
	defer func() {
		takeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if state == "" {
		return "", fmt.Errorf("state binding not found: %w", sentinel.ErrNotFound)
	}
	redirectURL, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("state binding not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("take state binding: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return redirectURL, nil
}
