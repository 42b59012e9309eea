// Package bootstrap builds the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/billing"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/identity"
	"inkwell/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs the configured schema mode on connect.
	ApplySchema bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is unreachable; the server runs without the blog cache then.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	return db, cache.Connect(ctx, cfg.RedisURL), nil
}

// NewVerifier returns the JWKS verifier when a provider is configured and the
// shared-secret verifier otherwise.
func NewVerifier(cfg *config.Config) identity.Verifier {
	if cfg.AuthJWKSURL != "" {
		return identity.NewJWKSVerifier(cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience)
	}
	middleware.Logger.Warn("AUTH_JWKS_URL is empty, accepting locally signed session tokens",
		slog.String("env", cfg.Env))
	return identity.NewHMACVerifier(cfg.SessionSecret, cfg.AuthIssuer, cfg.AuthAudience)
}

// NewGateway returns the Stripe billing gateway.
func NewGateway(cfg *config.Config) billing.Gateway {
	return billing.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
}
