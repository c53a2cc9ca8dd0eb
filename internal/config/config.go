package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Organizer registration failure policies.
const (
	OrganizerPolicySoft   = "soft"
	OrganizerPolicyStrict = "strict"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// KeycloakConfig holds the IAM admin API coordinates and client credentials.
type KeycloakConfig struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
}

// OrganizerConfig describes the secondary service that receives organizer registrations.
type OrganizerConfig struct {
	BaseURL       string
	Path          string
	Role          string
	FailurePolicy string
	PhoneRegion   string
}

// AuthConfig controls how inbound bearer tokens are verified.
type AuthConfig struct {
	IssuerURL string
	ClientID  string
	JWTSecret string
	AdminRole string
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	HTTPTimeout    time.Duration
	Keycloak       KeycloakConfig
	Organizer      OrganizerConfig
	Auth           AuthConfig
	RateLimitWrite RateLimitConfig
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
	"HTTP_TIMEOUT":             "5s",
	"KEYCLOAK_BASE_URL":        "http://keycloak:8080",
	"KEYCLOAK_REALM":           "master",
	"ORGANIZER_BASE_URL":       "http://event-service:8080",
	"ORGANIZER_PATH":           "/organizers",
	"ORGANIZER_ROLE":           "ORGANIZADOR",
	"ORGANIZER_FAILURE_POLICY": OrganizerPolicySoft,
	"PHONE_REGION":             "BR",
	"OIDC_CLIENT_ID":           "user-service",
	"JWT_SECRET":               "dev-secret",
	"ADMIN_ROLE":               "ADMIN",
	"RATE_LIMIT_WRITES":        "30/min",
}

// Load reads configuration from environment variables (and an optional config.yml)
// and applies sane defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:      v.GetString("PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		Keycloak: KeycloakConfig{
			BaseURL:      strings.TrimRight(v.GetString("KEYCLOAK_BASE_URL"), "/"),
			Realm:        v.GetString("KEYCLOAK_REALM"),
			ClientID:     v.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: v.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		Organizer: OrganizerConfig{
			BaseURL:       strings.TrimRight(v.GetString("ORGANIZER_BASE_URL"), "/"),
			Path:          v.GetString("ORGANIZER_PATH"),
			Role:          v.GetString("ORGANIZER_ROLE"),
			FailurePolicy: strings.ToLower(strings.TrimSpace(v.GetString("ORGANIZER_FAILURE_POLICY"))),
			PhoneRegion:   strings.ToUpper(v.GetString("PHONE_REGION")),
		},
		Auth: AuthConfig{
			IssuerURL: v.GetString("OIDC_ISSUER_URL"),
			ClientID:  v.GetString("OIDC_CLIENT_ID"),
			JWTSecret: v.GetString("JWT_SECRET"),
			AdminRole: v.GetString("ADMIN_ROLE"),
		},
	}

	timeout, err := time.ParseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT value %q", v.GetString("HTTP_TIMEOUT"))
	}
	cfg.HTTPTimeout = timeout

	rl, err := parseRateLimit(v.GetString("RATE_LIMIT_WRITES"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WRITES value: %w", err)
	}
	cfg.RateLimitWrite = rl

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the gateway cannot start without.
func (c *Config) Validate() error {
	if c.Keycloak.ClientID == "" || c.Keycloak.ClientSecret == "" {
		return errors.New("KEYCLOAK_CLIENT_ID and KEYCLOAK_CLIENT_SECRET are required")
	}
	if c.Keycloak.Realm == "" {
		return errors.New("KEYCLOAK_REALM is required")
	}
	if !strings.HasPrefix(c.Organizer.Path, "/") {
		return fmt.Errorf("ORGANIZER_PATH must start with '/', got %q", c.Organizer.Path)
	}
	switch c.Organizer.FailurePolicy {
	case OrganizerPolicySoft, OrganizerPolicyStrict:
	default:
		return fmt.Errorf("unsupported ORGANIZER_FAILURE_POLICY %q", c.Organizer.FailurePolicy)
	}
	return nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}
