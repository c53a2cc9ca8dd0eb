package keycloak

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/llsilvas/user-gateway/internal/apperr"
)

const maxErrorBody = 256

// ResponseError keeps the raw upstream status and body behind a classified error.
type ResponseError struct {
	Status int
	Body   string
}

func (e *ResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// Classify maps a non-2xx admin API response onto the error taxonomy.
func Classify(op string, status int, body []byte) *apperr.Error {
	cause := &ResponseError{Status: status, Body: truncate(strings.TrimSpace(string(body)))}
	msg := extractMessage(body, status)

	kind := apperr.KindForStatus(status)
	if kind == apperr.KindProtocol {
		msg = fmt.Sprintf("unexpected status %d", status)
	}

	return &apperr.Error{Kind: kind, Op: op, Status: status, Message: msg, Err: cause}
}

// transportError covers failures that never produced a response, timeouts included.
func transportError(op string, err error) *apperr.Error {
	return apperr.Wrap(apperr.KindUpstreamUnavailable, op, "iam unreachable", err)
}

func extractMessage(body []byte, status int) string {
	if len(body) > 0 {
		var payload struct {
			ErrorMessage     string `json:"errorMessage"`
			ErrorDescription string `json:"error_description"`
			Error            string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.ErrorMessage != "":
				return payload.ErrorMessage
			case payload.ErrorDescription != "":
				return payload.ErrorDescription
			case payload.Error != "":
				return payload.Error
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return "iam returned an error"
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "…"
}
