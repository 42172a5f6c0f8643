package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.IsProduction())
	require.Equal(t, 4000, cfg.Port)
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	require.Equal(t, time.Minute, cfg.ImpersonationTTL)
	require.Equal(t, "sid", cfg.CustomerCookieName)
	require.Equal(t, "support_sid", cfg.SupportCookieName)
	require.Equal(t, defaultCORSOrigins, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SHOPX_ENV", "Production")
	t.Setenv("SESSION_TTL_SECONDS", "3600")
	t.Setenv("IMPERSONATION_TTL_SECONDS", "30")
	t.Setenv("SESSION_COOKIE_NAME", "shop_sid")
	t.Setenv("REDIS_DISABLED", "true")

	cfg := Load()
	require.True(t, cfg.IsProduction())
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, 30*time.Second, cfg.ImpersonationTTL)
	require.Equal(t, "shop_sid", cfg.CustomerCookieName)
	require.True(t, cfg.RedisDisabled)
}

func TestCORSOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty keeps local defaults", raw: "", want: defaultCORSOrigins},
		{name: "wildcard wins", raw: "https://shop.example, *", want: []string{"*"}},
		{
			name: "custom plus local defaults deduped",
			raw:  "https://shop.example,http://localhost:3000",
			want: []string{"https://shop.example", "http://localhost:3000", "http://localhost:3100"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, corsOrigins(tc.raw))
		})
	}
}
