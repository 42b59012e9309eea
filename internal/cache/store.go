package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// BlogTTL bounds how stale a public blog page may be if an invalidation is lost.
// A load that started before an invalidation can write the old page back; that
// race is accepted and expires with the TTL.
const BlogTTL = 5 * time.Minute

// BlogKey caches the public view of a site.
func BlogKey(subdirectory string) string {
	return "inkwell:blog:" + subdirectory
}

// BlogArticleKey caches one public article of a site.
func BlogArticleKey(subdirectory, slug string) string {
	return fmt.Sprintf("inkwell:blog:%s:article:%s", subdirectory, slug)
}

// Store is a JSON cache over Redis. A Store with a nil client is a no-op
// that always falls through to the loader.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Enabled reports whether a Redis client is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// GetJSON loads key into dst and reports whether it was present.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.client.Set(ctx, key, raw, ttl).Err()
}

// Aside serves dst from cache, or runs load and caches its result. Cache
// failures are logged and never fail the request; load errors are returned
// as-is and nothing is cached.
func (s *Store) Aside(ctx context.Context, key string, dst any, ttl time.Duration, load func() error) error {
	hit, err := s.GetJSON(ctx, key, dst)
	switch {
	case err != nil:
		observability.CacheResults.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case hit:
		observability.CacheResults.WithLabelValues("hit").Inc()
		return nil
	case s.Enabled():
		observability.CacheResults.WithLabelValues("miss").Inc()
	}

	if err := load(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dst, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys.
func (s *Store) Invalidate(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// InvalidateBlog drops the cached site view and every cached article of it.
func (s *Store) InvalidateBlog(ctx context.Context, subdirectory string) error {
	if !s.Enabled() {
		return nil
	}

	keys := []string{BlogKey(subdirectory)}
	iter := s.client.Scan(ctx, 0, BlogArticleKey(subdirectory, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan blog keys: %w", err)
	}
	return s.client.Del(ctx, keys...).Err()
}

// Ping checks the connection; a disabled store is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}
