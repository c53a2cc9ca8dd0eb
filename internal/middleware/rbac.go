package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through when the caller holds any of roles.
// Comparison ignores case.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held, ok := c.Get(ContextKeyUserRoles).([]string)
			if !ok || len(held) == 0 {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing role"})
			}
			for _, want := range roles {
				for _, have := range held {
					if strings.EqualFold(want, have) {
						return next(c)
					}
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		}
	}
}
