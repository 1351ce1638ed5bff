package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"zemon/zemon/types"
	"zemon/zemon/utils/logging"
)

// Cache stores encoded result lists by key. Redis and MinIO both satisfy it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Cached serves repeated queries from a Cache. Cache failures are logged and
// the wrapped provider is used as if the cache were absent.
type Cached struct {
	Provider Provider
	Cache    Cache
}

func NewCached(p Provider, c Cache) *Cached {
	return &Cached{Provider: p, Cache: c}
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%d:%s", limit, query)
}

func (c *Cached) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	key := cacheKey(query, limit)

	data, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		logging.ErrorLogger.Error("search cache read failed", zap.String("query", query), zap.Error(err))
	}
	if ok {
		var results []types.SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			logging.AppLogger.Debug("search cache hit", zap.String("query", query))
			return results, nil
		}
		logging.ErrorLogger.Error("search cache entry unreadable", zap.String("query", query))
	}

	results, err := c.Provider.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	// empty result lists are not worth remembering
	if len(results) == 0 {
		return results, nil
	}
	if data, err := json.Marshal(results); err == nil {
		if err := c.Cache.Set(ctx, key, data); err != nil {
			logging.ErrorLogger.Error("search cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return results, nil
}
