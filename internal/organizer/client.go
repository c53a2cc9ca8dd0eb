package organizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/llsilvas/user-gateway/internal/apperr"
	"github.com/llsilvas/user-gateway/internal/dto"
)

const opRegister = "organizer.register"

// Client posts organizer registrations to the event service.
type Client struct {
	client   *http.Client
	endpoint string
}

// NewClient builds an organizer client. baseURL must not be empty.
func NewClient(client *http.Client, baseURL, path string) *Client {
	if baseURL == "" {
		panic("organizer base URL must not be empty")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{client: client, endpoint: strings.TrimRight(baseURL, "/") + path}
}

// Register sends the registration authorized with token. Failures to reach the
// service come back as DependencyUnavailable; error responses are classified
// by status.
func (c *Client) Register(ctx context.Context, token, requestID string, reg dto.OrganizerRegistration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create organizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return unavailable(reg.UserID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractError(resp.Body)
		return &apperr.Error{
			Kind:    apperr.KindForStatus(resp.StatusCode),
			Op:      opRegister,
			ID:      reg.UserID,
			Status:  resp.StatusCode,
			Message: msg,
		}
	}

	// A reset while draining still means the service went away mid-response.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return unavailable(reg.UserID, err)
	}
	return nil
}

func unavailable(userID string, err error) error {
	return &apperr.Error{
		Kind:    apperr.KindDependencyUnavailable,
		Op:      opRegister,
		ID:      userID,
		Message: "organizer service unavailable, try again later",
		Err:     err,
	}
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return "organizer service returned an error"
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
