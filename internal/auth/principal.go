package auth

import (
	"context"
	"strings"
)

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	Subject  string
	Username string
	Email    string
	Roles    []string
}

// HasRole reports whether the principal carries role, ignoring case.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Verifier validates a raw bearer token and returns its principal.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

// RoleClaim is the {"roles": [...]} object used by realm_access and resource_access.
type RoleClaim struct {
	Roles []string `json:"roles,omitempty"`
}

// rolesFor prefers the client's resource_access roles and falls back to realm
// roles. Roles are upper-cased and de-duplicated.
func rolesFor(realm RoleClaim, resources map[string]RoleClaim, clientID string) []string {
	source := realm.Roles
	if res, ok := resources[clientID]; ok && clientID != "" && len(res.Roles) > 0 {
		source = res.Roles
	}

	seen := make(map[string]struct{}, len(source))
	roles := make([]string, 0, len(source))
	for _, r := range source {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}
	return roles
}
