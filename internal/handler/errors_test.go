package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/llsilvas/user-gateway/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.New(apperr.KindNotFound, "op", "user not found"), http.StatusNotFound},
		{apperr.New(apperr.KindForbidden, "op", "forbidden"), http.StatusForbidden},
		{apperr.New(apperr.KindUnauthenticated, "op", "invalid or expired credentials"), http.StatusUnauthorized},
		{apperr.New(apperr.KindInvalidRequest, "op", "bad"), http.StatusBadRequest},
		{apperr.New(apperr.KindUpstreamUnavailable, "op", "iam unreachable"), http.StatusBadGateway},
		{apperr.New(apperr.KindProtocol, "op", "malformed"), http.StatusBadGateway},
		{apperr.New(apperr.KindRoleAssignment, "op", "failed"), http.StatusInternalServerError},
		{apperr.New(apperr.KindDependencyUnavailable, "op", "down"), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", apperr.New(apperr.KindNotFound, "op", "gone")), http.StatusNotFound},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got, _ := statusFor(tc.err); got != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, got)
		}
	}
}

func TestStatusFor_RoleAssignmentNamesUser(t *testing.T) {
	_, msg := statusFor(apperr.New(apperr.KindRoleAssignment, "op", "failed").WithID("123"))
	if !strings.Contains(msg, "123") {
		t.Fatalf("expected created user id in message, got %q", msg)
	}
}
