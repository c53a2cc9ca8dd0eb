package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/llsilvas/user-gateway/internal/config"
	"github.com/llsilvas/user-gateway/internal/logger"
)

func TestLoggingMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.Log.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(buf)
	defer logger.SetOutput(&bytes.Buffer{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-123")

	err := Logging()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"request_id":"rid-123"`) || !strings.Contains(buf.String(), `"path":"/healthz"`) {
		t.Fatalf("expected log output to contain request id and path, got %s", buf.String())
	}

	// ensure errors are propagated and logged
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-456")
	expected := errors.New("boom")
	err = Logging()(func(c echo.Context) error {
		return expected
	})(c)
	if !strings.Contains(buf.String(), "rid-456") {
		t.Fatalf("expected second log entry with new request id")
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected failed request logged at error level, got %s", buf.String())
	}
	if !errors.Is(err, expected) {
		t.Fatalf("expected error to bubble up")
	}
}

func TestWriteRateLimiter(t *testing.T) {
	mw := WriteRateLimiter(config.RateLimitConfig{Requests: 1, Interval: time.Minute})
	e := echo.New()
	calls := 0
	next := func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}

	send := func(method, subject string) int {
		req := httptest.NewRequest(method, "/admin/users", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if subject != "" {
			c.Set(ContextKeyUserID, subject)
		}
		_ = mw(next)(c)
		return rec.Code
	}

	if code := send(http.MethodPost, "admin-a"); code != http.StatusOK {
		t.Fatalf("expected first write to pass, got %d", code)
	}
	if code := send(http.MethodDelete, "admin-a"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second write from the same caller rejected, got %d", code)
	}
	if code := send(http.MethodPut, "admin-b"); code != http.StatusOK {
		t.Fatalf("expected another caller to have its own budget, got %d", code)
	}
	if code := send(http.MethodGet, "admin-a"); code != http.StatusOK {
		t.Fatalf("expected reads to bypass the limiter, got %d", code)
	}

	// unauthenticated callers share a bucket per client address
	if code := send(http.MethodPost, ""); code != http.StatusOK {
		t.Fatalf("expected first anonymous write to pass, got %d", code)
	}
	if code := send(http.MethodPost, ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected second anonymous write rejected, got %d", code)
	}

	disabled := WriteRateLimiter(config.RateLimitConfig{})
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		_ = disabled(next)(e.NewContext(httptest.NewRequest(http.MethodPut, "/admin/users/1", nil), rec))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected passthrough when limiter disabled")
		}
	}
	if calls != 7 {
		t.Fatalf("expected next handler to be invoked 7 times, got %d", calls)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole("ADMIN", "SUPPORT")

	t.Run("missing role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		_ = mw(func(c echo.Context) error { return nil })(c)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("incorrect role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUserRoles, []string{"USER"})

		_ = mw(func(c echo.Context) error { return nil })(c)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("any of, ignoring case", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUserRoles, []string{"USER", "support"})

		called := false
		if err := mw(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Fatalf("expected handler to run")
		}
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	handler := RequestID()

	t.Run("reuse incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "incoming")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			if RequestIDFromContext(c) != "incoming" {
				t.Fatalf("expected request id to be stored")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") != "incoming" {
			t.Fatalf("expected response header to propagate request id")
		}
	})

	t.Run("generate when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			rid := RequestIDFromContext(c)
			if rid == "" {
				t.Fatalf("expected generated request id")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("expected response header set")
		}
	})

	t.Run("replace unusable header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		_ = handler(func(c echo.Context) error { return nil })(c)
		if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
			t.Fatalf("expected generated uuid, got %q", got)
		}
	})
}
