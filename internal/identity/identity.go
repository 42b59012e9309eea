// Package identity verifies identity-provider tokens and maps them to local users.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

var (
	// ErrNoSession means the request carries no authenticated session.
	ErrNoSession = errors.New("no authenticated session")
	// ErrInvalidToken means a token was present but failed verification.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the authenticated identity asserted by the provider.
type Session struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Picture    string
}

// Verifier turns a raw token into a Session.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Session, error)
}

// Resolver maps sessions to local users, creating them on first sight.
type Resolver struct {
	users repository.UserRepository
}

func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the user for s. Concurrent first requests for the same
// subject converge on a single row.
func (r *Resolver) Resolve(ctx context.Context, s *Session) (*models.User, error) {
	if s == nil || strings.TrimSpace(s.Subject) == "" {
		return nil, ErrNoSession
	}

	user, created, err := r.users.FirstOrCreate(ctx, &models.User{
		ID:           s.Subject,
		Email:        s.Email,
		FirstName:    s.GivenName,
		LastName:     s.FamilyName,
		ProfileImage: s.Picture,
	})
	if err != nil {
		return nil, err
	}
	if created {
		observability.UsersProvisioned.Inc()
		middleware.Logger.InfoContext(ctx, "Provisioned user from identity session", slog.String("user_id", user.ID))
	}
	return user, nil
}
