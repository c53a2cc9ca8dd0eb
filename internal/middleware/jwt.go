package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authpkg "github.com/llsilvas/user-gateway/internal/auth"
	"github.com/llsilvas/user-gateway/internal/logger"
)

// JWT validates bearer tokens and stores the principal and the raw token in the
// request context. The raw token is kept so it can be forwarded downstream.
func JWT(verifier authpkg.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization header"})
			}
			raw := strings.TrimSpace(parts[1])

			principal, err := verifier.Verify(c.Request().Context(), raw)
			if err != nil {
				logger.Log.WithField("request_id", RequestIDFromContext(c)).
					WithField("token", logger.TokenPrefix(raw)).
					WithError(err).Debug("bearer token rejected")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}

			c.Set(ContextKeyPrincipal, principal)
			c.Set(ContextKeyUserID, principal.Subject)
			c.Set(ContextKeyUsername, principal.Username)
			c.Set(ContextKeyUserEmail, principal.Email)
			c.Set(ContextKeyUserRoles, principal.Roles)
			c.Set(ContextKeyAccessToken, raw)

			return next(c)
		}
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c echo.Context) (*authpkg.Principal, bool) {
	p, ok := c.Get(ContextKeyPrincipal).(*authpkg.Principal)
	return p, ok && p != nil
}

// AccessTokenFromContext returns the caller's raw bearer token.
func AccessTokenFromContext(c echo.Context) string {
	if val, ok := c.Get(ContextKeyAccessToken).(string); ok {
		return val
	}
	return ""
}
