package middleware

// Context keys used to store authentication metadata.
const (
	ContextKeyUserID      = "user_id"
	ContextKeyUsername    = "username"
	ContextKeyUserEmail   = "user_email"
	ContextKeyUserRoles   = "user_roles"
	ContextKeyPrincipal   = "principal"
	ContextKeyAccessToken = "access_token"
	ContextKeyRequestID   = "request_id"
)
