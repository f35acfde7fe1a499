package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Gateway implementations selectable with AUTH_GATEWAY.
const (
	GatewayBetterAuth = "betterauth"
	GatewayMock       = "mock"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL (OAuth callback target)
	BaseURL string

	// Auth gateway configuration
	AuthGateway        string // "betterauth" or "mock"
	AuthAPIURL         string // better-auth base URL, e.g. https://auth.example.com/api/auth
	AuthCookiePrefix   string
	AuthRequestTimeout time.Duration

	// OAuth client credentials. Only used by the mock gateway; a better-auth
	// server holds its own.
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Mock gateway behaviour
	RequireEmailVerification bool

	// SMTP for the mock gateway's verification emails. When SMTPHost is
	// empty the link is logged instead.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// How long an idle credential form visit is kept in memory
	VisitTTL time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),

		// Gateway defaults to the in-memory mock for development
		AuthGateway:        strings.ToLower(getEnv("AUTH_GATEWAY", GatewayMock)),
		AuthAPIURL:         getEnv("AUTH_API_URL", ""),
		AuthCookiePrefix:   getEnv("AUTH_COOKIE_PREFIX", "better-auth"),
		AuthRequestTimeout: getEnvDuration("AUTH_REQUEST_TIMEOUT", 10*time.Second),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),

		RequireEmailVerification: getEnvBool("AUTH_REQUIRE_EMAIL_VERIFICATION", false),

		// Mailhog defaults
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", ""),

		VisitTTL: getEnvDuration("VISIT_TTL", 30*time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := validateURL("BASE_URL", cfg.BaseURL); err != nil {
		return nil, err
	}

	// Validate gateway configuration
	switch cfg.AuthGateway {
	case GatewayBetterAuth:
		if cfg.AuthAPIURL == "" {
			return nil, fmt.Errorf("AUTH_API_URL is required when AUTH_GATEWAY is 'betterauth'")
		}
		if err := validateURL("AUTH_API_URL", cfg.AuthAPIURL); err != nil {
			return nil, err
		}
	case GatewayMock:
		if cfg.IsProduction() {
			return nil, fmt.Errorf("AUTH_GATEWAY 'mock' cannot be used in production")
		}
	default:
		return nil, fmt.Errorf("AUTH_GATEWAY must be either 'betterauth' or 'mock', got: %s", cfg.AuthGateway)
	}

	if (cfg.GoogleClientID == "") != (cfg.GoogleClientSecret == "") {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if (cfg.GitHubClientID == "") != (cfg.GitHubClientSecret == "") {
		return nil, fmt.Errorf("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together")
	}

	if cfg.AuthRequestTimeout <= 0 {
		return nil, fmt.Errorf("AUTH_REQUEST_TIMEOUT must be positive, got: %s", cfg.AuthRequestTimeout)
	}
	if cfg.VisitTTL < time.Minute {
		return nil, fmt.Errorf("VISIT_TTL must be at least 1m, got: %s", cfg.VisitTTL)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsSecure reports whether cookies should carry the Secure flag.
func (c *Config) IsSecure() bool {
	return c.Env != "development" || strings.HasPrefix(c.BaseURL, "https://")
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got: %s", key, raw)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
