package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the payload of caller tokens. The role layout follows the
// IAM's access tokens so both verifiers share it.
type Claims struct {
	jwt.RegisteredClaims
	Email             string               `json:"email,omitempty"`
	PreferredUsername string               `json:"preferred_username,omitempty"`
	RealmAccess       RoleClaim            `json:"realm_access"`
	ResourceAccess    map[string]RoleClaim `json:"resource_access,omitempty"`
}

// JWTManager handles issuing and verifying HMAC signed tokens. It backs local
// development when no OIDC issuer is configured.
type JWTManager struct {
	secret   []byte
	ttl      time.Duration
	clientID string
}

// NewJWTManager constructs a manager with the given secret and token lifetime.
// clientID selects the resource_access entry consulted for roles.
func NewJWTManager(secret string, ttl time.Duration, clientID string) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, clientID: clientID}
}

// GenerateToken creates a short-lived access token carrying realm roles.
func (m *JWTManager) GenerateToken(subject, username, email string, roles ...string) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("jwt secret must not be empty")
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:             email,
		PreferredUsername: username,
		RealmAccess:       RoleClaim{Roles: roles},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// ParseToken verifies the token signature and payload integrity.
func (m *JWTManager) ParseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// Verify implements Verifier.
func (m *JWTManager) Verify(_ context.Context, rawToken string) (*Principal, error) {
	claims, err := m.ParseToken(rawToken)
	if err != nil {
		return nil, err
	}
	return claims.principal(m.clientID), nil
}

func (c *Claims) principal(clientID string) *Principal {
	return &Principal{
		Subject:  c.Subject,
		Username: c.PreferredUsername,
		Email:    c.Email,
		Roles:    rolesFor(c.RealmAccess, c.ResourceAccess, clientID),
	}
}

var _ Verifier = (*JWTManager)(nil)
