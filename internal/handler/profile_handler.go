package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/llsilvas/user-gateway/internal/dto"
	middlewarepkg "github.com/llsilvas/user-gateway/internal/middleware"
)

// ProfileHandler serves information about the authenticated caller.
type ProfileHandler struct{}

// NewProfileHandler constructs a handler instance.
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// Me returns the caller's identity as verified from the bearer token.
func (h *ProfileHandler) Me(c echo.Context) error {
	principal, ok := middlewarepkg.PrincipalFromContext(c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "unauthenticated")
	}
	roles := principal.Roles
	if roles == nil {
		roles = []string{}
	}
	return Success(c, http.StatusOK, "profile retrieved", dto.ProfileResponse{
		Subject:  principal.Subject,
		Username: principal.Username,
		Email:    principal.Email,
		Roles:    roles,
	})
}
