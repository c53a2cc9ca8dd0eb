package keycloak

// UserRepresentation mirrors the IAM user resource as consumed by the gateway.
type UserRepresentation struct {
	ID               string       `json:"id,omitempty"`
	Username         string       `json:"username"`
	Email            string       `json:"email,omitempty"`
	FirstName        string       `json:"firstName,omitempty"`
	LastName         string       `json:"lastName,omitempty"`
	Enabled          bool         `json:"enabled"`
	EmailVerified    bool         `json:"emailVerified,omitempty"`
	CreatedTimestamp int64        `json:"createdTimestamp,omitempty"`
	Credentials      []Credential `json:"credentials,omitempty"`
}

// UserUpdate is the sparse PUT payload. Nil fields are left out of the JSON.
type UserUpdate struct {
	Username  string  `json:"username"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// Credential is a password credential.
type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// RoleRepresentation is a realm role as returned by the roles listing.
type RoleRepresentation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PasswordCredential builds a non-temporary password credential.
func PasswordCredential(value string) Credential {
	return Credential{Type: "password", Value: value, Temporary: false}
}
