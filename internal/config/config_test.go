package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://crm.xrb.cz", cfg.LedgerBaseURL)
	assert.Equal(t, "https://crm.xrb.cz/assets/img/wallet/RB.avatar.jpg", cfg.AvatarTransferURL)
	assert.Equal(t, "https://crm.xrb.cz/assets/img/wallet/realbarber.png", cfg.AvatarBusinessURL)
	assert.Equal(t, 200, cfg.HistoryPageSize)
	assert.Equal(t, "cs", cfg.Locale)
	assert.Equal(t, 30*time.Second, cfg.SubmitGuardTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_BASE_URL", "https://crm.example.com/")
	t.Setenv("LEDGER_RATE_LIMIT", "2.5")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://crm.example.com", cfg.LedgerBaseURL)
	assert.Equal(t, 2.5, cfg.LedgerRateLimit)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestLoadDotEnv_DoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOCALE=en\nTIME_ZONE=UTC\n"), 0o600))

	t.Setenv("LOCALE", "cs")
	t.Setenv("TIME_ZONE", "")
	os.Unsetenv("TIME_ZONE")

	require.NoError(t, config.LoadDotEnv(path))

	assert.Equal(t, "cs", os.Getenv("LOCALE"))
	assert.Equal(t, "UTC", os.Getenv("TIME_ZONE"))
	os.Unsetenv("TIME_ZONE")
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
