// Package keycloaktest provides an in-process stand-in for the IAM admin API
// that records every request it receives.
package keycloaktest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"
)

// Route names accepted by Server.On and Server.Calls.
const (
	RouteToken         = "token"
	RouteCreateUser    = "create_user"
	RouteListUsers     = "list_users"
	RouteCountUsers    = "count_users"
	RouteGetUser       = "get_user"
	RouteUpdateUser    = "update_user"
	RouteDeleteUser    = "delete_user"
	RouteResetPassword = "reset_password"
	RouteAssignRoles   = "assign_roles"
	RouteListRoles     = "list_roles"
)

// AdminToken is the access token issued by the default token handler.
const AdminToken = "stub-admin-token-0123456789"

// Recorded is one request observed by the stub.
type Recorded struct {
	Route         string
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	Form          map[string]string
	Body          []byte
}

// JSONKeys returns the sorted top-level keys of a JSON object body.
func (r Recorded) JSONKeys() []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Server is an httptest server speaking the subset of the admin API the
// gateway uses. Handlers can be swapped per route.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []Recorded
}

// NewServer starts a stub with happy-path defaults: token issuance, user
// creation returning id 123, a role list holding {role123, role}, and 204 for
// writes. The server is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{handlers: map[string]http.HandlerFunc{
		RouteToken:         JSON(http.StatusOK, map[string]any{"access_token": AdminToken, "token_type": "Bearer", "expires_in": 60}),
		RouteCreateUser:    Created("/admin/realms/mocked-realm/users/123"),
		RouteListUsers:     JSON(http.StatusOK, []any{}),
		RouteCountUsers:    Text(http.StatusOK, "0"),
		RouteGetUser:       JSON(http.StatusOK, map[string]any{"id": "123", "username": "test_user", "enabled": true}),
		RouteUpdateUser:    Status(http.StatusNoContent),
		RouteDeleteUser:    Status(http.StatusNoContent),
		RouteResetPassword: Status(http.StatusNoContent),
		RouteAssignRoles:   Status(http.StatusNoContent),
		RouteListRoles:     JSON(http.StatusOK, []map[string]string{{"id": "role123", "name": "role"}}),
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/{realm}/protocol/openid-connect/token", s.dispatch(RouteToken))
	mux.HandleFunc("POST /admin/realms/{realm}/users", s.dispatch(RouteCreateUser))
	mux.HandleFunc("GET /admin/realms/{realm}/users", s.dispatch(RouteListUsers))
	mux.HandleFunc("GET /admin/realms/{realm}/users/count", s.dispatch(RouteCountUsers))
	mux.HandleFunc("GET /admin/realms/{realm}/users/{id}", s.dispatch(RouteGetUser))
	mux.HandleFunc("PUT /admin/realms/{realm}/users/{id}", s.dispatch(RouteUpdateUser))
	mux.HandleFunc("DELETE /admin/realms/{realm}/users/{id}", s.dispatch(RouteDeleteUser))
	mux.HandleFunc("PUT /admin/realms/{realm}/users/{id}/reset-password", s.dispatch(RouteResetPassword))
	mux.HandleFunc("POST /admin/realms/{realm}/users/{id}/role-mappings/realm", s.dispatch(RouteAssignRoles))
	mux.HandleFunc("GET /admin/realms/{realm}/roles", s.dispatch(RouteListRoles))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// On replaces the handler of a route.
func (s *Server) On(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[route] = h
}

// Requests returns every recorded request in arrival order.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls returns the recorded requests for one route.
func (s *Server) Calls(route string) []Recorded {
	var out []Recorded
	for _, r := range s.Requests() {
		if r.Route == route {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) dispatch(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec := Recorded{
			Route:         route,
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		}
		if route == RouteToken {
			rec.Form = parseForm(body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		h := s.handlers[route]
		s.mu.Unlock()

		h(w, r)
	}
}

// JSON responds with a JSON-encoded value.
func JSON(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Text responds with a raw body.
func Text(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// Status responds with an empty body.
func Status(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}
}

// Created responds 201 with the given Location header; an empty location
// omits the header.
func Created(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if location != "" {
			w.Header().Set("Location", location)
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func parseForm(body []byte) map[string]string {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}
