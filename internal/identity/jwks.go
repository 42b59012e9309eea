package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/middleware"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const defaultJWKSRefresh = 15 * time.Minute

// JWKSVerifier verifies provider-signed tokens against the provider's published key set.
type JWKSVerifier struct {
	url      string
	issuer   string
	audience string
	refresh  time.Duration

	mu        sync.Mutex
	keys      jwk.Set
	fetchedAt time.Time
}

// NewJWKSVerifier returns a verifier that fetches keys from url lazily and
// re-fetches them after the refresh interval.
func NewJWKSVerifier(url, issuer, audience string) *JWKSVerifier {
	return &JWKSVerifier{url: url, issuer: issuer, audience: audience, refresh: defaultJWKSRefresh}
}

func (v *JWKSVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys != nil && time.Since(v.fetchedAt) < v.refresh {
		return v.keys, nil
	}

	set, err := jwk.Fetch(ctx, v.url)
	if err != nil {
		if v.keys != nil {
			middleware.Logger.WarnContext(ctx, "JWKS refresh failed, using cached keys", slog.String("error", err.Error()))
			return v.keys, nil
		}
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	v.keys = set
	v.fetchedAt = time.Now()
	return set, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, ErrNoSession
	}

	keys, err := v.keySet(ctx)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParseOption{jwt.WithKeySet(keys), jwt.WithValidate(true)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(rawToken), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, ok := token.Subject()
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	s := &Session{Subject: sub}
	_ = token.Get("email", &s.Email)
	_ = token.Get("given_name", &s.GivenName)
	_ = token.Get("family_name", &s.FamilyName)
	_ = token.Get("picture", &s.Picture)
	return s, nil
}
