// zemon/sources/cache/redis.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"

	"zemon/zemon/config"
)

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, cfg config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCacheWithClient(client, cfg.SearchCacheTTL), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "zemon:search:", ttl: ttl}
}

func (r *RedisCache) key(query string) string {
	sum := sha1.Sum([]byte(query))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *RedisCache) Get(ctx context.Context, query string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores results with a jittered TTL.
func (r *RedisCache) Set(ctx context.Context, query string, results []byte) error {
	ttl := r.ttl
	if ttl > 0 {
		ttl += time.Duration(rand.Int63n(int64(ttl)/10 + 1))
	}
	return r.client.Set(ctx, r.key(query), results, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
