package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "JWT_TTL", "PERCENT_RECONCILE", "RECEIPTS_BUCKET", "SMTP_HOST"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "receipts", cfg.Storage.Bucket)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.PercentReconcile)
	assert.Equal(t, "", cfg.SMTP.Host)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("PERCENT_RECONCILE", "true")
	t.Setenv("S3_USE_SSL", "1")
	t.Setenv("RECEIPTS_BUCKET", "bills")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.True(t, cfg.PercentReconcile)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, "bills", cfg.Storage.Bucket)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("PERCENT_RECONCILE", "maybe")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.PercentReconcile)
}
