package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/model"
)

var folderCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseware",
	Name:      "folder_cache_lookups_total",
	Help:      "Folder list cache lookups by result.",
}, []string{"result"})

// RedisFolderCache stores batch folder lists as JSON strings in Redis.
type RedisFolderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisFolderCache creates a new RedisFolderCache.
func NewRedisFolderCache(rdb *redis.Client, ttl time.Duration) *RedisFolderCache {
	return &RedisFolderCache{rdb: rdb, ttl: ttl}
}

func (c *RedisFolderCache) Get(ctx context.Context, batchID int64) ([]model.Folder, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.BatchFoldersKey(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		folderCacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		folderCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("get folder cache: %w", err)
	}

	var folders []model.Folder
	if err := json.Unmarshal(raw, &folders); err != nil {
		folderCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("decode folder cache: %w", err)
	}
	folderCacheLookups.WithLabelValues("hit").Inc()
	if folders == nil {
		folders = []model.Folder{}
	}
	return folders, true, nil
}

func (c *RedisFolderCache) Set(ctx context.Context, batchID int64, folders []model.Folder) error {
	raw, err := json.Marshal(folders)
	if err != nil {
		return fmt.Errorf("encode folder cache: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.BatchFoldersKey(batchID), raw, c.ttl).Err()
}

func (c *RedisFolderCache) Invalidate(ctx context.Context, batchIDs ...int64) error {
	if len(batchIDs) == 0 {
		return nil
	}
	keys := make([]string, len(batchIDs))
	for i, id := range batchIDs {
		keys[i] = config.CacheKey.BatchFoldersKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
