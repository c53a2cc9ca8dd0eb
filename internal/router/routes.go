package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/llsilvas/user-gateway/internal/auth"
	"github.com/llsilvas/user-gateway/internal/config"
	"github.com/llsilvas/user-gateway/internal/handler"
	middlewarepkg "github.com/llsilvas/user-gateway/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Users   *handler.UserAdminHandler
	Profile *handler.ProfileHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, verifier auth.Verifier, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(verifier))

	if handlers.Profile != nil {
		secured.GET("/me", handlers.Profile.Me)
	}

	writes := middlewarepkg.WriteRateLimiter(cfg.RateLimitWrite)
	admin := secured.Group("/admin", middlewarepkg.RequireRole(cfg.Auth.AdminRole), writes)
	admin.GET("/users", handlers.Users.List)
	admin.GET("/users/:id", handlers.Users.Get)
	admin.POST("/users", handlers.Users.Create)
	admin.PUT("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
}
