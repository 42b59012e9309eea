package service

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/middleware"
)

// BlogCache is the slice of cache.Store the services use.
type BlogCache interface {
	Aside(ctx context.Context, key string, dst any, ttl time.Duration, load func() error) error
	InvalidateBlog(ctx context.Context, subdirectory string) error
}

type noopCache struct{}

func (noopCache) Aside(_ context.Context, _ string, _ any, _ time.Duration, load func() error) error {
	return load()
}

func (noopCache) InvalidateBlog(context.Context, string) error { return nil }

func cacheOrNoop(c BlogCache) BlogCache {
	if c == nil {
		return noopCache{}
	}
	return c
}

// invalidateBlog drops cached public pages; a failure only leaves them stale until the TTL.
func invalidateBlog(ctx context.Context, c BlogCache, subdirectory string) {
	if err := c.InvalidateBlog(ctx, subdirectory); err != nil {
		middleware.Logger.WarnContext(ctx, "Blog cache invalidation failed",
			slog.String("subdirectory", subdirectory), slog.String("error", err.Error()))
	}
}
