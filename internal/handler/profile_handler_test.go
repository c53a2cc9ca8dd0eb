package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/llsilvas/user-gateway/internal/auth"
	middlewarepkg "github.com/llsilvas/user-gateway/internal/middleware"
)

func TestProfileHandler_Me(t *testing.T) {
	e := echo.New()
	handler := NewProfileHandler()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middlewarepkg.ContextKeyPrincipal, &auth.Principal{Subject: "abc", Username: "jdoe", Roles: []string{"ADMIN"}})

	if err := handler.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeResponse(t, rec)
	data, ok := payload.Data.(map[string]any)
	if !ok || data["subject"] != "abc" || data["username"] != "jdoe" {
		t.Fatalf("unexpected profile: %+v", payload.Data)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	_ = handler.Me(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}
