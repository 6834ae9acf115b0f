package xapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"xverify/internal/xapi/metrics"
	"xverify/pkg/requestcontext"
)

const redisHandleKeyPrefix = "xverify:handle:"

// ErrCacheMiss is returned by a HandleStore when no entry exists.
var ErrCacheMiss = errors.New("handle cache miss")

// HandleStore persists handle to user resolutions.
type HandleStore interface {
	Find(ctx context.Context, handle string) (User, error)
	Save(ctx context.Context, handle string, user User) error
}

// RedisHandleStore keeps resolutions in Redis with TTL-based eviction.
type RedisHandleStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisHandleStore constructs a Redis-backed handle store.
func NewRedisHandleStore(client redis.Cmdable, ttl time.Duration) *RedisHandleStore {
	return &RedisHandleStore{client: client, ttl: ttl}
}

// Find loads a cached resolution. Returns ErrCacheMiss when absent.
func (s *RedisHandleStore) Find(ctx context.Context, handle string) (User, error) {
	data, err := s.client.Get(ctx, handleKey(handle)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrCacheMiss
		}
		return User{}, fmt.Errorf("find handle cache: %w", err)
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, fmt.Errorf("decode handle cache: %w", err)
	}
	return user, nil
}

// Save writes a resolution with the configured TTL.
func (s *RedisHandleStore) Save(ctx context.Context, handle string, user User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode handle cache: %w", err)
	}
	if err := s.client.Set(ctx, handleKey(handle), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save handle cache: %w", err)
	}
	return nil
}

func handleKey(handle string) string {
	return redisHandleKeyPrefix + strings.ToLower(strings.TrimPrefix(handle, "@"))
}

// HandleCache decorates a Client so LookupUserByHandle consults store first.
// Only successful lookups are cached; store failures fall through to the API.
type HandleCache struct {
	Client
	store   HandleStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHandleCache wraps inner. metrics and logger may be nil.
func NewHandleCache(inner Client, store HandleStore, m *metrics.Metrics, logger *slog.Logger) *HandleCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandleCache{Client: inner, store: store, metrics: m, logger: logger}
}

func (c *HandleCache) LookupUserByHandle(ctx context.Context, handle string) (User, error) {
	user, err := c.store.Find(ctx, handle)
	switch {
	case err == nil:
		c.record(func(m *metrics.Metrics) { m.RecordCacheHit() })
		return user, nil
	case errors.Is(err, ErrCacheMiss):
		c.record(func(m *metrics.Metrics) { m.RecordCacheMiss() })
	default:
		c.record(func(m *metrics.Metrics) { m.RecordCacheError() })
		c.logger.WarnContext(ctx, "handle cache read failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	user, err = c.Client.LookupUserByHandle(ctx, handle)
	if err != nil {
		return User{}, err
	}
	if err := c.store.Save(ctx, handle, user); err != nil {
		c.record(func(m *metrics.Metrics) { m.RecordCacheError() })
		c.logger.WarnContext(ctx, "handle cache write failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return user, nil
}

func (c *HandleCache) record(fn func(*metrics.Metrics)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}

var (
	_ Client      = (*HandleCache)(nil)
	_ HandleStore = (*RedisHandleStore)(nil)
)
