package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rxtech-lab/argo-screener/internal/types"
	"github.com/rxtech-lab/argo-screener/internal/version"
	"github.com/rxtech-lab/argo-screener/pkg/errors"
	"github.com/sony/gobreaker"
)

const (
	redisBackend          = "redis"
	defaultScanCount      = 500
	defaultBreakerFailure = 3
)

// RedisConfig is the connection and breaker configuration of RedisCache.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" jsonschema:"title=Address,description=Redis host:port; empty disables the shared cache"`
	Password string `yaml:"password" json:"password,omitempty" jsonschema:"title=Password"`
	DB       int    `yaml:"db" json:"db" jsonschema:"title=Database,minimum=0"`
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32 `yaml:"breaker_failures" json:"breaker_failures" jsonschema:"title=Breaker Failures,description=Consecutive failures before Redis calls are short-circuited,minimum=0"`
}

// envelope is the stored form of a result. Version is the engine version that
// computed it.
type envelope struct {
	Version string               `json:"version"`
	Result  types.BacktestResult `json:"result"`
}

// RedisCache is a ResultCache shared between processes. Every call goes
// through a circuit breaker; once it opens, calls fail fast with a
// CacheUnavailableError until the breaker half-opens again.
type RedisCache struct {
	client        *redis.Client
	breaker       *gobreaker.CircuitBreaker
	ttl           time.Duration
	keyPrefix     string
	engineVersion string
	scanCount     int64

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ ResultCache = (*RedisCache)(nil)

// NewRedisClient opens a client for cfg. It does not connect until first use.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// NewRedisCache wraps client. Entries expire after ttl; a non-positive ttl keeps them forever.
// Only keys under keyPrefix are counted by Stats.
func NewRedisCache(client *redis.Client, ttl time.Duration, keyPrefix, engineVersion string, breakerFailures uint32) *RedisCache {
	if breakerFailures == 0 {
		breakerFailures = defaultBreakerFailure
	}

	settings := gobreaker.Settings{
		Name:     "result-cache-redis",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
		},
	}

	return &RedisCache{
		client:        client,
		breaker:       gobreaker.NewCircuitBreaker(settings),
		ttl:           ttl,
		keyPrefix:     keyPrefix,
		engineVersion: engineVersion,
		scanCount:     defaultScanCount,
	}
}

// Get implements ResultCache. Entries written by an incompatible engine
// version, or that cannot be decoded, are misses.
func (r *RedisCache) Get(ctx context.Context, key string) (types.BacktestResult, bool, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, nil
		}

		if err != nil {
			return nil, err
		}

		return data, nil
	})
	if err != nil {
		return types.BacktestResult{}, false, errors.NewCacheUnavailableError(redisBackend, err)
	}

	data, ok := out.([]byte)
	if !ok {
		r.misses.Add(1)

		return types.BacktestResult{}, false, nil
	}

	var stored envelope
	if err := json.Unmarshal(data, &stored); err != nil {
		r.misses.Add(1)

		return types.BacktestResult{}, false, nil
	}

	if err := version.CheckResultCompatibility(r.engineVersion, stored.Version); err != nil {
		r.misses.Add(1)

		return types.BacktestResult{}, false, nil
	}

	r.hits.Add(1)

	return stored.Result, true, nil
}

// Set implements ResultCache.
func (r *RedisCache) Set(ctx context.Context, key string, result types.BacktestResult) error {
	data, err := json.Marshal(envelope{Version: r.engineVersion, Result: result})
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheEncodingFailed, "failed to encode result", err)
	}

	_, err = r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, key, data, r.ttl).Err()
	})
	if err != nil {
		return errors.NewCacheUnavailableError(redisBackend, err)
	}

	return nil
}

// Invalidate implements ResultCache with SCAN MATCH and DEL, so it does not
// block the server on large key spaces.
func (r *RedisCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		var (
			cursor  uint64
			deleted int64
		)

		for {
			keys, next, err := r.client.Scan(ctx, cursor, pattern, r.scanCount).Result()
			if err != nil {
				return nil, err
			}

			if len(keys) > 0 {
				n, err := r.client.Del(ctx, keys...).Result()
				if err != nil {
					return nil, err
				}

				deleted += n
			}

			cursor = next
			if cursor == 0 {
				return deleted, nil
			}
		}
	})
	if err != nil {
		return 0, errors.NewCacheUnavailableError(redisBackend, err)
	}

	return int(out.(int64)), nil
}

// Stats implements ResultCache. Hits and misses are those of this process;
// the entry count covers every key under the prefix.
func (r *RedisCache) Stats(ctx context.Context) (Stats, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		var (
			cursor uint64
			count  int
		)

		for {
			keys, next, err := r.client.Scan(ctx, cursor, AllPattern(r.keyPrefix), r.scanCount).Result()
			if err != nil {
				return nil, err
			}

			count += len(keys)

			cursor = next
			if cursor == 0 {
				return count, nil
			}
		}
	})
	if err != nil {
		return Stats{}, errors.NewCacheUnavailableError(redisBackend, err)
	}

	hits, misses := r.hits.Load(), r.misses.Load()

	return Stats{
		EntryCount: out.(int),
		HitRate:    hitRate(hits, misses),
		Hits:       hits,
		Misses:     misses,
	}, nil
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.NewCacheUnavailableError(redisBackend, fmt.Errorf("ping: %w", err))
	}

	return nil
}

// Close closes the client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
