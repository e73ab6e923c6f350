package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/pkg/logger"
	"github.com/okian/gitstart/pkg/metrics"
)

const (
	defaultKeyPrefix = "gitstart:score:"
	backendRedis     = "redis"
)

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisClock replaces time.Now when computing key expiry.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// RedisStore keeps entries in Redis with a key TTL matching the entry expiry.
type RedisStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
	log    logger.Logger
}

// NewRedisStore wraps client.
func NewRedisStore(client RedisClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		now:    time.Now,
		log:    logger.Get().Named("cachestore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrRedisNotEnabled
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(fp model.Fingerprint) string {
	return s.prefix + string(fp)
}

// Load fetches and decodes an entry. A corrupt value is reported as a miss.
func (s *RedisStore) Load(ctx context.Context, fp model.Fingerprint) (model.CacheEntry, bool, error) {
	data, err := s.client.Get(ctx, s.key(fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.CacheEntry{}, false, nil
	}
	if err != nil {
		metrics.RecordCacheStoreError(backendRedis, "load")
		return model.CacheEntry{}, false, fmt.Errorf("redis get: %w", err)
	}
	entry, err := Decode(fp, data)
	if err != nil {
		metrics.RecordCacheStoreError(backendRedis, "decode")
		s.log.Warn(ctx, "dropping unreadable cache entry", logger.String("fingerprint", fp.Short()), logger.Error(err))
		return model.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Save writes the entry with a key TTL equal to its remaining lifetime.
// An entry that has already expired is not written.
func (s *RedisStore) Save(ctx context.Context, e model.CacheEntry) error {
	ttl := e.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := Encode(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(e.Fingerprint), data, ttl).Err(); err != nil {
		metrics.RecordCacheStoreError(backendRedis, "save")
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the key.
func (s *RedisStore) Delete(ctx context.Context, fp model.Fingerprint) error {
	if err := s.client.Del(ctx, s.key(fp)).Err(); err != nil {
		metrics.RecordCacheStoreError(backendRedis, "delete")
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
