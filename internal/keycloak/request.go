package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// URI templates of the admin API. {realm} is always filled by the builder.
const (
	pathToken             = "/realms/{realm}/protocol/openid-connect/token"
	pathUsers             = "/admin/realms/{realm}/users"
	pathUsersCount        = "/admin/realms/{realm}/users/count"
	pathUser              = "/admin/realms/{realm}/users/{id}"
	pathResetPassword     = "/admin/realms/{realm}/users/{id}/reset-password"
	pathRealmRoleMappings = "/admin/realms/{realm}/users/{id}/role-mappings/realm"
	pathRoles             = "/admin/realms/{realm}/roles"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Request describes one admin API call before it is turned into an *http.Request.
type Request struct {
	Method string
	Path   string
	Vars   map[string]string
	Query  url.Values
	Body   any
}

// RequestBuilder turns Request values into authenticated HTTP requests scoped
// to a single realm.
type RequestBuilder struct {
	baseURL string
	realm   string
}

// NewRequestBuilder panics on an empty base URL or realm; both come from
// validated configuration.
func NewRequestBuilder(baseURL, realm string) *RequestBuilder {
	if baseURL == "" {
		panic("keycloak base URL must not be empty")
	}
	if realm == "" {
		panic("keycloak realm must not be empty")
	}
	return &RequestBuilder{baseURL: strings.TrimRight(baseURL, "/"), realm: realm}
}

// Realm returns the realm every request is scoped to.
func (b *RequestBuilder) Realm() string {
	return b.realm
}

// URL expands the template against the configured realm and the given vars.
// A caller-supplied "realm" var is ignored.
func (b *RequestBuilder) URL(template string, vars map[string]string) (string, error) {
	merged := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		merged[k] = v
	}
	merged["realm"] = b.realm

	var missing []string
	expanded := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		value, ok := merged[name]
		if !ok || value == "" {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(value)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved path variables %v in %q", missing, template)
	}
	return b.baseURL + expanded, nil
}

// Build creates the HTTP request. It performs no I/O.
func (b *RequestBuilder) Build(ctx context.Context, token string, r Request) (*http.Request, error) {
	target, err := b.URL(r.Path, r.Vars)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
