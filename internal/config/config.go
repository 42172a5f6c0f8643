// Package config loads the service configuration from the environment,
// with development-friendly defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopx-dev/shopx/internal/session"
)

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:3100"}

type Config struct {
	Env  string
	Port int

	PostgresURL   string
	RedisAddr     string
	RedisDisabled bool

	SessionTTL         time.Duration
	ImpersonationTTL   time.Duration
	CustomerCookieName string
	SupportCookieName  string

	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Env:  strings.ToLower(getenv("SHOPX_ENV", "dev")),
		Port: getint("PORT", 4000),

		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisDisabled: getbool("REDIS_DISABLED"),

		SessionTTL:         time.Duration(getint("SESSION_TTL_SECONDS", 604800)) * time.Second,
		ImpersonationTTL:   time.Duration(getint("IMPERSONATION_TTL_SECONDS", 60)) * time.Second,
		CustomerCookieName: getenv("SESSION_COOKIE_NAME", session.DefaultCustomerCookieName),
		SupportCookieName:  getenv("SUPPORT_SESSION_COOKIE_NAME", session.DefaultSupportCookieName),

		CORSAllowedOrigins: corsOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// corsOrigins parses the comma-separated allowlist. The local development
// origins are always included unless the list is the wildcard.
func corsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]string(nil), defaultCORSOrigins...)
	}

	seen := make(map[string]bool)
	origins := make([]string, 0, 4)
	add := func(origin string) {
		origin = strings.TrimSpace(origin)
		if origin == "" || seen[origin] {
			return
		}
		seen[origin] = true
		origins = append(origins, origin)
	}

	for _, origin := range strings.Split(raw, ",") {
		if strings.TrimSpace(origin) == "*" {
			return []string{"*"}
		}
		add(origin)
	}
	for _, origin := range defaultCORSOrigins {
		add(origin)
	}
	return origins
}

func getenv(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func getint(name string, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getbool(name string) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return raw == "1" || raw == "true"
}
