// Package redis provides the redis backed report cache
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nutriplan/engine/internal/infrastructure/config"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the circuit breaker rejects calls
var ErrCircuitOpen = errors.New("redis circuit breaker is open")

// setTTL bounds the lifetime of key index sets
const setTTL = 24 * time.Hour

// CacheRepository implements outbound.CacheRepository on redis
type CacheRepository struct {
	client  redis.UniversalClient
	prefix  string
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewClient builds a redis client from configuration and pings it
func NewClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewCacheRepository wraps a client; keys are namespaced with prefix
func NewCacheRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		client:  client,
		prefix:  prefix,
		breaker: NewCircuitBreaker(5, 30*time.Second),
		logger:  logger.Named("redis-cache"),
	}
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

func (r *CacheRepository) key(k string) string {
	return r.prefix + k
}

// do runs fn behind the circuit breaker. redis.Nil is not a failure.
func (r *CacheRepository) do(op string, fn func() error) error {
	if !r.breaker.AllowRequest() {
		return ErrCircuitOpen
	}
	err := fn()
	if err != nil && !errors.Is(err, redis.Nil) {
		r.breaker.RecordFailure()
		r.logger.Error("Redis command failed", zap.String("op", op), zap.Error(err))
		return err
	}
	r.breaker.RecordSuccess()
	return err
}

// Get retrieves a value; absent keys yield outbound.ErrCacheMiss
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.do("get", func() error {
		var err error
		data, err = r.client.Get(ctx, r.key(key)).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	return data, err
}

// Set stores a value with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.do("set", func() error {
		return r.client.Set(ctx, r.key(key), value, ttl).Err()
	})
}

// Delete removes keys
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.do("del", func() error {
		return r.client.Del(ctx, full...).Err()
	})
}

// Exists checks if a key exists
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.do("exists", func() error {
		var err error
		n, err = r.client.Exists(ctx, r.key(key)).Result()
		return err
	})
	return n > 0, err
}

// SAdd adds members to a set and refreshes its expiry
func (r *CacheRepository) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.do("sadd", func() error {
		pipe := r.client.TxPipeline()
		pipe.SAdd(ctx, r.key(key), args...)
		pipe.Expire(ctx, r.key(key), setTTL)
		_, err := pipe.Exec(ctx)
		return err
	})
}

// SMembers returns the members of a set
func (r *CacheRepository) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	err := r.do("smembers", func() error {
		var err error
		members, err = r.client.SMembers(ctx, r.key(key)).Result()
		return err
	})
	return members, err
}

// Ping checks connectivity
func (r *CacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
