package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ListCachePrefix = "catalog:list:v:"
	CacheVersionKey = "catalog:version"
	DefaultCacheTTL = 10 * time.Minute
)

// RedisCmds is the subset of *redis.Client the cache uses.
type RedisCmds interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// ListCache keeps rendered admin list responses in Redis. Every catalog
// mutation bumps one shared version, since lists embed names of other
// kinds. A nil *ListCache is a valid, disabled cache.
type ListCache struct {
	redis RedisCmds
	ttl   time.Duration
}

func NewListCache(client RedisCmds, ttl time.Duration) *ListCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ListCache{redis: client, ttl: ttl}
}

// NoVersion marks a lookup whose version could not be read; nothing is
// cached under it.
const NoVersion int64 = -1

// Get returns the cached JSON list for kind and the version it looked
// under. On a miss the caller loads the list and hands that same version
// to SetAsync, so a list read before an Invalidate is never filed under
// the newer version.
func (lc *ListCache) Get(ctx context.Context, kind string) ([]byte, int64, bool) {
	if lc == nil {
		return nil, NoVersion, false
	}
	version, err := lc.version(ctx)
	if err != nil {
		return nil, NoVersion, false
	}
	data, err := lc.redis.Get(ctx, lc.key(version, kind)).Bytes()
	if err != nil {
		return nil, version, false
	}
	return data, version, true
}

// SetAsync stores body for kind under version without holding up the
// response.
func (lc *ListCache) SetAsync(kind string, version int64, body []byte) {
	if lc == nil || version == NoVersion {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := lc.redis.Set(bgCtx, lc.key(version, kind), body, lc.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache list", zap.String("kind", kind), zap.Error(err))
		}
	}()
}

// Invalidate drops every cached list by bumping the version.
func (lc *ListCache) Invalidate(ctx context.Context) {
	if lc == nil {
		return
	}
	v, err := lc.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		zap.L().Error("Failed to invalidate list cache", zap.Error(err))
		return
	}
	zap.L().Debug("List cache invalidated", zap.Int64("version", v))
}

// version reads the current cache version. An absent key is version 0;
// the first Invalidate creates it, so a read never races an increment.
func (lc *ListCache) version(ctx context.Context) (int64, error) {
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		v, err := lc.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil {
			return v, nil
		}
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

func (lc *ListCache) key(version int64, kind string) string {
	return fmt.Sprintf("%s%d:%s", ListCachePrefix, version, kind)
}
