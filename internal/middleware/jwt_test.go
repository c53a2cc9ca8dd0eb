package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/llsilvas/user-gateway/internal/auth"
)

type verifierFunc func(ctx context.Context, raw string) (*auth.Principal, error)

func (f verifierFunc) Verify(ctx context.Context, raw string) (*auth.Principal, error) {
	return f(ctx, raw)
}

func TestJWTMiddleware(t *testing.T) {
	e := echo.New()
	var seen []string
	verifier := verifierFunc(func(_ context.Context, raw string) (*auth.Principal, error) {
		seen = append(seen, raw)
		if raw != "good-token" {
			return nil, errors.New("signature mismatch")
		}
		return &auth.Principal{Subject: "sub-1", Username: "operator", Roles: []string{"ADMIN"}}, nil
	})

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing header", code: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic b3A6cHc=", code: http.StatusUnauthorized},
		{name: "blank bearer", header: "Bearer   ", code: http.StatusUnauthorized},
		{name: "rejected by verifier", header: "Bearer forged", code: http.StatusUnauthorized},
		{name: "lowercase scheme", header: "bearer good-token", code: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			reached := false
			err := JWT(verifier)(func(c echo.Context) error {
				reached = true
				if AccessTokenFromContext(c) != "good-token" {
					t.Fatalf("expected raw token kept for forwarding")
				}
				principal, ok := PrincipalFromContext(c)
				if !ok || principal.Subject != "sub-1" || c.Get(ContextKeyUsername) != "operator" {
					t.Fatalf("unexpected principal in context: %+v", principal)
				}
				return c.NoContent(http.StatusOK)
			})(c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if reached != (tc.code == http.StatusOK) {
				t.Fatalf("next handler reached=%v for status %d", reached, tc.code)
			}
		})
	}

	if len(seen) != 2 {
		t.Fatalf("verifier should only see well-formed bearer tokens, saw %v", seen)
	}
}
