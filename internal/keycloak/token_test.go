package keycloak

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llsilvas/user-gateway/internal/apperr"
	"github.com/llsilvas/user-gateway/internal/config"
	"github.com/llsilvas/user-gateway/internal/keycloak/keycloaktest"
)

func newTestTokenProvider(t *testing.T, baseURL string) *TokenProvider {
	t.Helper()
	provider, err := NewTokenProvider(config.KeycloakConfig{
		BaseURL:      baseURL,
		Realm:        "mocked-realm",
		ClientID:     "gateway",
		ClientSecret: "s3cret",
	}, NewHTTPClient(0))
	require.NoError(t, err)
	return provider
}

func TestTokenProvider_FetchAdminToken(t *testing.T) {
	stub := keycloaktest.NewServer(t)
	provider := newTestTokenProvider(t, stub.URL)

	token, err := provider.FetchAdminToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, keycloaktest.AdminToken, token)

	calls := stub.Calls(keycloaktest.RouteToken)
	require.Len(t, calls, 1)
	assert.Equal(t, "/realms/mocked-realm/protocol/openid-connect/token", calls[0].Path)
	assert.Equal(t, "client_credentials", calls[0].Form["grant_type"])
	assert.Equal(t, "gateway", calls[0].Form["client_id"])
	assert.Equal(t, "s3cret", calls[0].Form["client_secret"])
}

func TestTokenProvider_NoCaching(t *testing.T) {
	stub := keycloaktest.NewServer(t)
	provider := newTestTokenProvider(t, stub.URL)

	for i := 0; i < 3; i++ {
		_, err := provider.FetchAdminToken(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, stub.Calls(keycloaktest.RouteToken), 3)
}

func TestTokenProvider_Failures(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		kind    apperr.Kind
		status  int
	}{
		"invalid credentials": {
			handler: keycloaktest.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized_client"}),
			kind:    apperr.KindUnauthenticated,
			status:  http.StatusUnauthorized,
		},
		"bad request": {
			handler: keycloaktest.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_grant"}),
			kind:    apperr.KindUnauthenticated,
			status:  http.StatusBadRequest,
		},
		"server error": {
			handler: keycloaktest.Status(http.StatusServiceUnavailable),
			kind:    apperr.KindUpstreamUnavailable,
			status:  http.StatusServiceUnavailable,
		},
		"missing access token": {
			handler: keycloaktest.JSON(http.StatusOK, map[string]string{"token_type": "Bearer"}),
			kind:    apperr.KindProtocol,
		},
		"unparseable body": {
			handler: keycloaktest.Text(http.StatusOK, "{not json"),
			kind:    apperr.KindProtocol,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stub := keycloaktest.NewServer(t)
			stub.On(keycloaktest.RouteToken, tt.handler)
			provider := newTestTokenProvider(t, stub.URL)

			token, err := provider.FetchAdminToken(context.Background())
			require.Error(t, err)
			assert.Empty(t, token)
			assert.Equal(t, tt.kind, apperr.KindOf(err))

			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, opFetchToken, e.Op)
			assert.Equal(t, tt.status, e.Status)
		})
	}
}

func TestTokenProvider_TransportFailure(t *testing.T) {
	stub := keycloaktest.NewServer(t)
	provider := newTestTokenProvider(t, stub.URL)
	stub.Close()

	_, err := provider.FetchAdminToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstreamUnavailable))
	assert.Contains(t, err.Error(), "token endpoint unavailable")
}
