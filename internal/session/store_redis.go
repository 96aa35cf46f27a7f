package session

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"tradedesk/pkg/platform/sentinel"
)

var (
	loadDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradedesk_session_load_duration_ms",
		Help:    "Latency of session credential loads in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for session credentials
	credentialKeyPrefix = "sess:cred:"

	accessField  = "access"
	refreshField = "refresh"
)

// RedisStore is a Redis-backed credential store for distributed deployments
// where multiple gateway instances share session state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed credential store. Entries expire
// after ttl so abandoned sessions do not accumulate; a ttl of zero keeps
// them until logout or expiry purge.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, key string, creds Credentials) error {
	redisKey := credentialKeyPrefix + key

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, redisKey, accessField, creds.AccessToken, refreshField, creds.RefreshToken)
	if s.ttl > 0 {
		pipe.Expire(ctx, redisKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (Credentials, error) {
	start := time.Now()
	defer func() {
		loadDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	fields, err := s.client.HGetAll(ctx, credentialKeyPrefix+key).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("load session credentials: %w", err)
	}
	if len(fields) == 0 {
		return Credentials{}, fmt.Errorf("session credentials not found: %w", sentinel.ErrNotFound)
	}
	return Credentials{
		AccessToken:  fields[accessField],
		RefreshToken: fields[refreshField],
	}, nil
}

// Clear removes both credential slots. Deleting an absent key is a no-op,
// so expiry purges stay idempotent.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, credentialKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear session credentials: %w", err)
	}
	return nil
}
