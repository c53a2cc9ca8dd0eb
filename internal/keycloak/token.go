package keycloak

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/llsilvas/user-gateway/internal/apperr"
	"github.com/llsilvas/user-gateway/internal/config"
)

const opFetchToken = "iam.fetch_admin_token"

// TokenProvider obtains admin access tokens with the client-credentials grant.
// Tokens are never cached: each call hits the token endpoint.
type TokenProvider struct {
	creds  clientcredentials.Config
	client *http.Client
}

// NewTokenProvider builds a provider for the configured realm.
func NewTokenProvider(cfg config.KeycloakConfig, client *http.Client) (*TokenProvider, error) {
	tokenURL, err := NewRequestBuilder(cfg.BaseURL, cfg.Realm).URL(pathToken, nil)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = NewHTTPClient(defaultTimeout)
	}
	return &TokenProvider{
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: client,
	}, nil
}

// FetchAdminToken returns a fresh admin bearer token.
func (p *TokenProvider) FetchAdminToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.creds.Token(ctx)
	if err != nil {
		return "", classifyTokenError(err)
	}
	if tok.AccessToken == "" {
		return "", apperr.New(apperr.KindProtocol, opFetchToken, "token response missing access_token")
	}
	return tok.AccessToken, nil
}

func classifyTokenError(err error) *apperr.Error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		if status >= 500 {
			return apperr.Wrap(apperr.KindUpstreamUnavailable, opFetchToken, "token endpoint unavailable", err).WithStatus(status)
		}
		return apperr.Wrap(apperr.KindUnauthenticated, opFetchToken, "invalid or expired credentials", err).WithStatus(status)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindUpstreamUnavailable, opFetchToken, "token endpoint unavailable", err)
	}

	// Anything left came back as 2xx but could not be read as a token response.
	return apperr.Wrap(apperr.KindProtocol, opFetchToken, "malformed token response", err)
}
