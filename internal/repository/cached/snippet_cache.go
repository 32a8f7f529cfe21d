// Package cached provides a Redis cache-aside layer for snippet reads.
package cached

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

const keyPrefix = "snipsnap:"

// key helpers
func keyUserGen(userID int64) string { return fmt.Sprintf("%sgen:user:%d", keyPrefix, userID) }
func keyTagGen() string { return keyPrefix + "gen:tags" }

func keySnippet(userID, userGen, tagGen, id int64) string {
	return fmt.Sprintf("%su%d:g%d:t%d:snippet:%d", keyPrefix, userID, userGen, tagGen, id)
}

func keyList(userID, userGen, tagGen int64, f domain.SnippetFilter) string {
	return fmt.Sprintf("%su%d:g%d:t%d:list:%s", keyPrefix, userID, userGen, tagGen, filterDigest(f))
}

// filterDigest hashes the canonical form of a normalized filter.
func filterDigest(f domain.SnippetFilter) string {
	fav := ""
	if f.IsFavorite != nil {
		fav = strconv.FormatBool(*f.IsFavorite)
	}
	canon := fmt.Sprintf("%q|%q|%s|%q|%s|%s|%s|%d|%d",
		f.Search, f.Language, fav, f.Tag, f.TagMatch, f.Sort, f.Direction, f.Page, f.PerPage)
	sum := sha1.Sum([]byte(canon))
	return hex.EncodeToString(sum[:])
}

// SnippetCache caches snippet pages and single snippets per user. Entries are
// addressed through a per-user generation and a global tag generation, so
// bumping either makes every older entry unreachable until its TTL evicts it.
type SnippetCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSnippetCache creates a new Redis-backed snippet cache.
func NewSnippetCache(redis *redis.Client, ttl time.Duration) *SnippetCache {
	return &SnippetCache{redis: redis, ttl: ttl}
}

func (c *SnippetCache) generations(ctx context.Context, userID int64) (int64, int64, error) {
	vals, err := c.redis.MGet(ctx, keyUserGen(userID), keyTagGen()).Result()
	if err != nil {
		return 0, 0, err
	}
	gens := make([]int64, 2)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("parse generation: %w", err)
		}
		gens[i] = n
	}
	return gens[0], gens[1], nil
}

// fetch reads key into dst, loading and storing it on a miss. Redis failures
// degrade to a direct load.
func (c *SnippetCache) fetch(ctx context.Context, key string, dst any, load func(context.Context) (any, error)) (domain.CacheStatus, error) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(val, dst); jsonErr == nil {
			return domain.CacheHit, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn(ctx, "cache get %s failed: %v", key, err)
	}
	v, err := load(ctx)
	if err != nil {
		return domain.CacheMiss, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return domain.CacheMiss, fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return domain.CacheMiss, fmt.Errorf("copy cache entry: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "cache set %s failed: %v", key, err)
	}
	return domain.CacheMiss, nil
}

// GetSnippet returns the cached snippet or the result of load.
func (c *SnippetCache) GetSnippet(ctx context.Context, userID, id int64, load func(context.Context) (domain.Snippet, error)) (domain.Snippet, domain.CacheStatus, error) {
	ug, tg, err := c.generations(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "cache generations unavailable: %v", err)
		s, err := load(ctx)
		return s, domain.CacheMiss, err
	}
	var s domain.Snippet
	status, err := c.fetch(ctx, keySnippet(userID, ug, tg, id), &s, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return domain.Snippet{}, status, err
	}
	return s, status, nil
}

// ListSnippets returns the cached page for f or the result of load.
func (c *SnippetCache) ListSnippets(ctx context.Context, userID int64, f domain.SnippetFilter, load func(context.Context) (domain.SnippetPage, error)) (domain.SnippetPage, domain.CacheStatus, error) {
	ug, tg, err := c.generations(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "cache generations unavailable: %v", err)
		p, err := load(ctx)
		return p, domain.CacheMiss, err
	}
	var p domain.SnippetPage
	status, err := c.fetch(ctx, keyList(userID, ug, tg, f), &p, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return domain.SnippetPage{}, status, err
	}
	return p, status, nil
}

// InvalidateUser drops every cached read of userID.
func (c *SnippetCache) InvalidateUser(ctx context.Context, userID int64) error {
	return c.redis.Incr(ctx, keyUserGen(userID)).Err()
}

// InvalidateTags drops every cached read that embeds tags, for all users.
func (c *SnippetCache) InvalidateTags(ctx context.Context) error {
	return c.redis.Incr(ctx, keyTagGen()).Err()
}
