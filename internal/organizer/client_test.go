package organizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/llsilvas/user-gateway/internal/apperr"
	"github.com/llsilvas/user-gateway/internal/dto"
)

var testRegistration = dto.OrganizerRegistration{
	UserID:           "123",
	OrganizationName: "Acme Eventos",
	ContactEmail:     "contato@acme.com.br",
	ContactPhone:     "+5511912345678",
	DocumentNumber:   "12345678000199",
}

func TestClient_Register(t *testing.T) {
	var got dto.OrganizerRegistration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organizers" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer caller-token" || r.Header.Get("X-Request-ID") != "req-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"org-1"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL+"/", "/organizers")
	if err := client.Register(context.Background(), "caller-token", "req-1", testRegistration); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != testRegistration {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClient_Register_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"document already registered"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "/organizers")
	err := client.Register(context.Background(), "tok", "", testRegistration)

	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected classified error, got %v", err)
	}
	if e.Kind != apperr.KindInvalidRequest || e.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected classification: %+v", e)
	}
	if e.Message != "document already registered" || e.ID != "123" {
		t.Fatalf("unexpected error context: %+v", e)
	}
}

func TestClient_Register_ConnectionClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Errorf("hijacking not supported")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "/organizers")
	err := client.Register(context.Background(), "tok", "", testRegistration)
	if !errors.Is(err, apperr.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if e, _ := apperr.As(err); e.Message != "organizer service unavailable, try again later" {
		t.Fatalf("unexpected message: %s", e.Message)
	}
}

func TestClient_Register_Refused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(nil, url, "/organizers")
	err := client.Register(context.Background(), "tok", "", testRegistration)
	if apperr.KindOf(err) != apperr.KindDependencyUnavailable {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestNewClient_PanicsOnEmptyBaseURL(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewClient(nil, "", "/organizers")
}
