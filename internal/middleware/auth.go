package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/service"
)

const (
	// ContextIdentityKey holds the service.Identity snapshot for the call.
	ContextIdentityKey = "identity"
	// ContextUserKey holds the full *model.User behind the session.
	ContextUserKey = "authUser"
)

type AuthMiddleware struct {
	auth       service.AuthService
	cookieName string
}

func NewAuthMiddleware(auth service.AuthService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, cookieName: cookieName}
}

func (m *AuthMiddleware) token(c echo.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authz := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}

func (m *AuthMiddleware) resolve(c echo.Context) (*model.User, error) {
	token := m.token(c)
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	user, err := m.auth.Authenticate(c.Request().Context(), token)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		msg := "your account is banned"
		if user.BanReason != nil && *user.BanReason != "" {
			msg = "your account is banned: " + *user.BanReason
		}
		return nil, apperr.WithMessage(apperr.ErrUnauthorized, msg)
	}
	return user, nil
}

// RequireAuth rejects the call unless a live, unbanned session is presented.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.resolve(c)
		if err != nil {
			e := apperr.FromError(err)
			return c.JSON(e.Status, map[string]string{"message": e.Message})
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextIdentityKey, service.IdentityOf(user))
		return next(c)
	}
}

// OptionalAuth attaches the identity when present but never blocks.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user, err := m.resolve(c); err == nil {
			c.Set(ContextUserKey, user)
			c.Set(ContextIdentityKey, service.IdentityOf(user))
		}
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := c.Get(ContextIdentityKey).(service.Identity)
		if !ok || !identity.IsAdmin() {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "administrator rights required"})
		}
		return next(c)
	}
}
