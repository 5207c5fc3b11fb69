package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/romejiang/moltbook-api/internal/domain"
	"github.com/romejiang/moltbook-api/internal/metrics"
)

// ThreadCache holds rendered comment threads keyed by post and sort mode.
// Thread assembly is the most expensive read, so assembled JSON is cached for
// a short TTL and dropped eagerly whenever a comment or vote changes the post.
// Cache failures degrade to database reads; they are logged, never surfaced.
type ThreadCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewThreadCache(rdb *goredis.Client, ttl time.Duration) *ThreadCache {
	return &ThreadCache{rdb: rdb, ttl: ttl}
}

func threadKey(postID uuid.UUID, sort domain.CommentSort) string {
	return "thread:" + postID.String() + ":" + string(sort)
}

// Get returns the cached thread JSON and whether it was present.
func (c *ThreadCache) Get(ctx context.Context, postID uuid.UUID, sort domain.CommentSort) ([]byte, bool) {
	payload, err := c.rdb.Get(ctx, threadKey(postID, sort)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.ThreadCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.ThreadCacheHits.WithLabelValues("error").Inc()
		slog.Warn("Thread cache read failed", "post_id", postID.String(), "error", err)
		return nil, false
	}
	metrics.ThreadCacheHits.WithLabelValues("hit").Inc()
	return payload, true
}

// Set stores the rendered thread with the cache TTL.
func (c *ThreadCache) Set(ctx context.Context, postID uuid.UUID, sort domain.CommentSort, payload []byte) {
	if err := c.rdb.Set(ctx, threadKey(postID, sort), payload, c.ttl).Err(); err != nil {
		slog.Warn("Thread cache write failed", "post_id", postID.String(), "error", err)
	}
}

// Invalidate drops every sort variant of the post's cached thread.
func (c *ThreadCache) Invalidate(ctx context.Context, postID uuid.UUID) {
	keys := []string{
		threadKey(postID, domain.CommentSortTop),
		threadKey(postID, domain.CommentSortNew),
		threadKey(postID, domain.CommentSortControversial),
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Thread cache invalidation failed", "post_id", postID.String(), "error", err)
	}
}
