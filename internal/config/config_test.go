package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "public", cfg.StaticDir)
	assert.Equal(t, "https://api.hubapi.com", cfg.CRMBaseURL)
	assert.Equal(t, 10*time.Second, cfg.CRMTimeout)
	assert.Equal(t, "BEST10", cfg.CouponCode)
	assert.True(t, cfg.RequireName)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REQUIRE_NAME", "false")
	t.Setenv("COUPON_CODE", "SUMMER25")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("CRM_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com, https://www.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.RequireName)
	assert.Equal(t, "SUMMER25", cfg.CouponCode)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 3*time.Second, cfg.CRMTimeout)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_IgnoresUnparseableValues(t *testing.T) {
	t.Setenv("REQUIRE_NAME", "not-a-bool")
	t.Setenv("RATE_LIMIT_REQUESTS", "many")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.RequireName)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}

func TestParseOrigins(t *testing.T) {
	assert.Empty(t, parseOrigins(""))
	assert.Equal(t, []string{"a"}, parseOrigins("a"))
	assert.Equal(t, []string{"a", "b"}, parseOrigins(" a , ,b "))
}
