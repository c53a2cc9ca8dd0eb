package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/llsilvas/user-gateway/internal/auth"
	"github.com/llsilvas/user-gateway/internal/config"
	"github.com/llsilvas/user-gateway/internal/handler"
	"github.com/llsilvas/user-gateway/internal/keycloak"
	"github.com/llsilvas/user-gateway/internal/logger"
	middlewarepkg "github.com/llsilvas/user-gateway/internal/middleware"
	"github.com/llsilvas/user-gateway/internal/organizer"
	"github.com/llsilvas/user-gateway/internal/router"
	"github.com/llsilvas/user-gateway/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	httpClient := keycloak.NewHTTPClient(cfg.HTTPTimeout)

	tokens, err := keycloak.NewTokenProvider(cfg.Keycloak, httpClient)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to configure admin token provider")
	}
	iam := keycloak.NewClient(keycloak.NewRequestBuilder(cfg.Keycloak.BaseURL, cfg.Keycloak.Realm), httpClient)
	organizers := organizer.NewClient(httpClient, cfg.Organizer.BaseURL, cfg.Organizer.Path)
	provisioning := service.NewProvisioningService(tokens, iam, organizers, cfg.Organizer)

	verifier, err := newVerifier(cfg, httpClient)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to configure token verifier")
	}

	validator := handler.NewValidator(cfg.Organizer.Role)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, verifier, router.Handlers{
		Users:   handler.NewUserAdminHandler(provisioning, validator),
		Profile: handler.NewProfileHandler(),
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.WithField("port", cfg.Port).Info("user gateway listening")
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("server error")
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("graceful shutdown failed")
	}
}

// newVerifier prefers OIDC discovery against the IAM issuer and falls back to
// a shared HMAC secret for local development.
func newVerifier(cfg *config.Config, client *http.Client) (auth.Verifier, error) {
	if cfg.Auth.IssuerURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return auth.NewOIDCVerifier(ctx, cfg.Auth.IssuerURL, cfg.Auth.ClientID, client)
	}
	logger.Log.Warn("OIDC_ISSUER_URL not set; verifying HS256 tokens with JWT_SECRET")
	return auth.NewJWTManager(cfg.Auth.JWTSecret, 0, cfg.Auth.ClientID), nil
}
