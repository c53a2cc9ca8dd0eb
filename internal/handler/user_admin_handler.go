package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/llsilvas/user-gateway/internal/dto"
	"github.com/llsilvas/user-gateway/internal/entity"
	middlewarepkg "github.com/llsilvas/user-gateway/internal/middleware"
	"github.com/llsilvas/user-gateway/internal/service"
)

// UserProvisioner is the provisioning surface used by the admin endpoints.
type UserProvisioner interface {
	CreateUser(ctx context.Context, caller service.Caller, req dto.CreateUserRequest) (*dto.UserCreated, error)
	UpdateUser(ctx context.Context, caller service.Caller, id string, req dto.UpdateUserRequest) error
	DeleteUser(ctx context.Context, caller service.Caller, id string) error
	FindUserByID(ctx context.Context, caller service.Caller, id string) (*entity.User, error)
	FindUsers(ctx context.Context, caller service.Caller, q dto.UserQuery) (*dto.UserPage, error)
}

// UserAdminHandler exposes administrative user management endpoints.
type UserAdminHandler struct {
	users     UserProvisioner
	validator *Validator
}

// NewUserAdminHandler constructs a handler instance.
func NewUserAdminHandler(users UserProvisioner, validator *Validator) *UserAdminHandler {
	return &UserAdminHandler{users: users, validator: validator}
}

// List returns one page of users matching the optional search term.
func (h *UserAdminHandler) List(c echo.Context) error {
	var q dto.UserQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return Error(c, http.StatusBadRequest, "invalid query parameters")
	}
	if q.First < 0 || q.Max < 0 {
		return Error(c, http.StatusBadRequest, "first and max must not be negative")
	}

	page, err := h.users.FindUsers(c.Request().Context(), callerFrom(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return Success(c, http.StatusOK, "users retrieved", page)
}

// Get returns a single user.
func (h *UserAdminHandler) Get(c echo.Context) error {
	id, ok := userID(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "user id is required")
	}

	user, err := h.users.FindUserByID(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return Success(c, http.StatusOK, "user retrieved", user)
}

// Create provisions a new user.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Validate(&req); err != nil {
		return ErrorWithDetails(c, http.StatusBadRequest, "validation failed", validationMessages(err))
	}

	created, err := h.users.CreateUser(c.Request().Context(), callerFrom(c), req)
	if err != nil {
		return respondCreateError(c, err)
	}
	return Success(c, http.StatusCreated, "user created", created)
}

// Update modifies an existing user.
func (h *UserAdminHandler) Update(c echo.Context) error {
	id, ok := userID(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "user id is required")
	}
	var req dto.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Validate(&req); err != nil {
		return ErrorWithDetails(c, http.StatusBadRequest, "validation failed", validationMessages(err))
	}

	if err := h.users.UpdateUser(c.Request().Context(), callerFrom(c), id, req); err != nil {
		return respondError(c, err)
	}
	return Success(c, http.StatusOK, "user updated", map[string]string{"id": id})
}

// Delete removes a user.
func (h *UserAdminHandler) Delete(c echo.Context) error {
	id, ok := userID(c)
	if !ok {
		return Error(c, http.StatusBadRequest, "user id is required")
	}

	if err := h.users.DeleteUser(c.Request().Context(), callerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return Success(c, http.StatusOK, "user deleted", nil)
}

func userID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	return id, id != ""
}

func callerFrom(c echo.Context) service.Caller {
	return service.Caller{
		Token:     middlewarepkg.AccessTokenFromContext(c),
		RequestID: middlewarepkg.RequestIDFromContext(c),
	}
}
