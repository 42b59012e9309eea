package server

import (
	"errors"
	"log/slog"
	"strings"

	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "inkwell_session"
	loginPath     = "/api/auth/login"
)

// SessionRequired authenticates the request from a bearer token or the
// session cookie and stores the local user id in c.Locals("userID").
// Unauthenticated dashboard requests are redirected to the login route; API
// requests get a 401.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return unauthenticated(c, "Authorization required")
		}

		sess, err := s.verifier.Verify(c.UserContext(), token)
		if err != nil {
			middleware.Logger.DebugContext(c.UserContext(), "Session rejected", slog.String("error", err.Error()))
			return unauthenticated(c, "Invalid or expired session")
		}

		user, err := s.resolver.Resolve(c.UserContext(), sess)
		if err != nil {
			if errors.Is(err, identity.ErrNoSession) {
				return unauthenticated(c, "Invalid or expired session")
			}
			return err
		}

		c.Locals("userID", user.ID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Cookies(sessionCookie)
}

func unauthenticated(c *fiber.Ctx, msg string) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
	}
	return c.Redirect(loginPath, fiber.StatusSeeOther)
}

// currentUserID returns the id stored by SessionRequired.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// Login handles GET /api/auth/login
// @Summary Redirect to the identity provider login page
// @Tags auth
// @Success 303
// @Router /auth/login [get]
func (s *Server) Login(c *fiber.Ctx) error {
	if s.config.AuthLoginURL == "" {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Login is not configured")
	}
	return c.Redirect(s.config.AuthLoginURL, fiber.StatusSeeOther)
}

// Logout handles GET /api/auth/logout
// @Summary Clear the session cookie and redirect to the provider logout page
// @Tags auth
// @Success 303
// @Router /auth/logout [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	c.ClearCookie(sessionCookie)
	target := s.config.AuthLogoutURL
	if target == "" {
		target = "/"
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// AuthCallback handles GET /api/auth/callback?token=...
// The provider returns here with a session token; it is verified, the user is
// provisioned and the token is kept in an HTTP-only cookie.
// @Summary Store a verified session token in the session cookie
// @Tags auth
// @Param token query string true "Session token"
// @Success 303
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/callback [get]
func (s *Server) AuthCallback(c *fiber.Ctx) error {
	token := c.Query("token")
	sess, err := s.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired session"))
	}
	if _, err := s.resolver.Resolve(c.UserContext(), sess); err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// GetMe handles GET /api/me
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.users.GetByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}
