package keycloak

import (
	"net"
	"net/http"
	"time"
)

const defaultTimeout = 5 * time.Second

// NewHTTPClient returns the client shared by every outbound call. The timeout
// bounds dialing, the TLS handshake and the wait for response headers; the
// overall client deadline is twice that to leave room for reading the body.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{
		Transport: transport,
		Timeout:   2 * timeout,
	}
}
