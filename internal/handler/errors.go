package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/llsilvas/user-gateway/internal/apperr"
	"github.com/llsilvas/user-gateway/internal/logger"
	middlewarepkg "github.com/llsilvas/user-gateway/internal/middleware"
)

// statusFor maps an error onto the HTTP status and message exposed to callers.
func statusFor(err error) (int, string) {
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, "internal error"
	}

	switch e.Kind {
	case apperr.KindNotFound:
		return http.StatusNotFound, e.Message
	case apperr.KindForbidden:
		return http.StatusForbidden, "operation not permitted by identity provider"
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized, e.Message
	case apperr.KindInvalidRequest:
		if e.Status == http.StatusConflict {
			return http.StatusConflict, e.Message
		}
		return http.StatusBadRequest, e.Message
	case apperr.KindUpstreamUnavailable:
		return http.StatusBadGateway, "identity provider unavailable"
	case apperr.KindProtocol:
		return http.StatusBadGateway, "unexpected response from identity provider"
	case apperr.KindRoleAssignment:
		return http.StatusInternalServerError, fmt.Sprintf("user %s was created but role assignment failed", e.ID)
	case apperr.KindDependencyUnavailable:
		return http.StatusServiceUnavailable, e.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c echo.Context, err error) error {
	status, message := statusFor(err)
	logUnclassified(c, err)
	return Error(c, status, message)
}

// respondCreateError is respondError for the create path: once the IAM has
// assigned an id the user exists, so the message names it.
func respondCreateError(c echo.Context, err error) error {
	status, message := statusFor(err)
	if e, ok := apperr.As(err); ok && e.ID != "" && e.Kind != apperr.KindRoleAssignment {
		message = fmt.Sprintf("user %s was created but %s", e.ID, message)
	}
	logUnclassified(c, err)
	return Error(c, status, message)
}

func logUnclassified(c echo.Context, err error) {
	if apperr.KindOf(err) == "" {
		logger.Log.WithField("request_id", middlewarepkg.RequestIDFromContext(c)).
			WithError(err).Error("unclassified error")
	}
}
