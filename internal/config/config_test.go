package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "PORT", "DATABASE_URL", "REDIS_ADDR",
		"SESSION_SECRET", "SESSION_TTL", "CHECKOUT_DELAY", "METRICS_TOKEN", "TRUST_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDev, cfg.AppEnv)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 2*time.Second, cfg.CheckoutDelay)
	require.GreaterOrEqual(t, len(cfg.SessionSecret), minSecretLen)
	require.False(t, cfg.TrustProxy)
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_BadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKOUT_DELAY", "soon")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalid)

	clearEnv(t)
	t.Setenv("PORT", "eighty")

	_, err = Load()
	require.ErrorIs(t, err, ErrInvalid)

	clearEnv(t)
	t.Setenv("TRUST_PROXY", "sometimes")

	_, err = Load()
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_TrustProxy(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.TrustProxy)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range []string{"PORT", "CHECKOUT_DELAY"} {
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nCHECKOUT_DELAY=250ms\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("PORT")
		_ = os.Unsetenv("CHECKOUT_DELAY")
	})

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 250*time.Millisecond, cfg.CheckoutDelay)
}
