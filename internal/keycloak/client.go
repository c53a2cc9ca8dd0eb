package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/llsilvas/user-gateway/internal/apperr"
)

const maxResponseBody = 4 << 20

// Client performs admin API calls. Every method is a single HTTP round trip
// authorized with the token the caller passes in.
type Client struct {
	builder *RequestBuilder
	http    *http.Client
}

// NewClient wires a client around the shared builder and HTTP client.
func NewClient(builder *RequestBuilder, httpClient *http.Client) *Client {
	if builder == nil {
		panic("request builder must not be nil")
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(defaultTimeout)
	}
	return &Client{builder: builder, http: httpClient}
}

// CreateUser posts a new user and returns the id taken from the Location header.
func (c *Client) CreateUser(ctx context.Context, token string, user UserRepresentation) (string, error) {
	const op = "iam.create_user"
	header, err := c.do(ctx, op, token, Request{Method: http.MethodPost, Path: pathUsers, Body: user}, nil)
	if err != nil {
		return "", err
	}
	location := header.Get("Location")
	id, err := ParseLocationID(location)
	if err != nil {
		return "", apperr.Wrap(apperr.KindProtocol, op, "user created but no identifier in Location header", err).
			WithStatus(http.StatusCreated)
	}
	return id, nil
}

// ListRoles returns all realm roles.
func (c *Client) ListRoles(ctx context.Context, token string) ([]RoleRepresentation, error) {
	var roles []RoleRepresentation
	if _, err := c.do(ctx, "iam.list_roles", token, Request{Method: http.MethodGet, Path: pathRoles}, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// AssignRealmRoles maps realm roles onto the user. Only id and name are sent.
func (c *Client) AssignRealmRoles(ctx context.Context, token, userID string, roles []RoleRepresentation) error {
	refs := make([]RoleRepresentation, 0, len(roles))
	for _, r := range roles {
		refs = append(refs, RoleRepresentation{ID: r.ID, Name: r.Name})
	}
	_, err := c.do(ctx, "iam.assign_realm_roles", token, Request{
		Method: http.MethodPost,
		Path:   pathRealmRoleMappings,
		Vars:   map[string]string{"id": userID},
		Body:   refs,
	}, nil)
	return withID(err, userID)
}

// UpdateUser sends the sparse update payload.
func (c *Client) UpdateUser(ctx context.Context, token, id string, update UserUpdate) error {
	_, err := c.do(ctx, "iam.update_user", token, Request{
		Method: http.MethodPut,
		Path:   pathUser,
		Vars:   map[string]string{"id": id},
		Body:   update,
	}, nil)
	return withID(err, id)
}

// ResetPassword replaces the user's password with a non-temporary one.
func (c *Client) ResetPassword(ctx context.Context, token, id, password string) error {
	_, err := c.do(ctx, "iam.reset_password", token, Request{
		Method: http.MethodPut,
		Path:   pathResetPassword,
		Vars:   map[string]string{"id": id},
		Body:   PasswordCredential(password),
	}, nil)
	return withID(err, id)
}

// DeleteUser removes the user from the realm.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, "iam.delete_user", token, Request{
		Method: http.MethodDelete,
		Path:   pathUser,
		Vars:   map[string]string{"id": id},
	}, nil)
	return withID(err, id)
}

// GetUser fetches a single user.
func (c *Client) GetUser(ctx context.Context, token, id string) (*UserRepresentation, error) {
	var user UserRepresentation
	_, err := c.do(ctx, "iam.get_user", token, Request{
		Method: http.MethodGet,
		Path:   pathUser,
		Vars:   map[string]string{"id": id},
	}, &user)
	if err != nil {
		return nil, withID(err, id)
	}
	return &user, nil
}

// ListUsers searches users with offset pagination.
func (c *Client) ListUsers(ctx context.Context, token, search string, first, limit int) ([]UserRepresentation, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	query.Set("first", strconv.Itoa(first))
	query.Set("max", strconv.Itoa(limit))

	var users []UserRepresentation
	if _, err := c.do(ctx, "iam.list_users", token, Request{Method: http.MethodGet, Path: pathUsers, Query: query}, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []UserRepresentation{}
	}
	return users, nil
}

// CountUsers returns the number of users matching search. The endpoint answers
// with a bare integer.
func (c *Client) CountUsers(ctx context.Context, token, search string) (int, error) {
	const op = "iam.count_users"
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}

	var raw json.RawMessage
	if _, err := c.do(ctx, op, token, Request{Method: http.MethodGet, Path: pathUsersCount, Query: query}, &raw); err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || count < 0 {
		return 0, apperr.Wrap(apperr.KindProtocol, op, "count response is not a non-negative integer", err)
	}
	return count, nil
}

// ParseLocationID returns the last path segment of a Location header value.
func ParseLocationID(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.New("empty Location header")
	}
	path := location
	if u, err := url.Parse(location); err == nil {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	id := path[strings.LastIndex(path, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("no identifier in Location %q", location)
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, op, token string, r Request, out any) (http.Header, error) {
	req, err := c.builder.Build(ctx, token, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Classify(op, resp.StatusCode, body)
	}

	if out != nil {
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, apperr.New(apperr.KindProtocol, op, "empty response body").WithStatus(resp.StatusCode)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, apperr.Wrap(apperr.KindProtocol, op, "could not decode response", err).WithStatus(resp.StatusCode)
		}
	}
	return resp.Header, nil
}

func withID(err error, id string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*apperr.Error); ok && e.ID == "" {
		return e.WithID(id)
	}
	return err
}
