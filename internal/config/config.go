package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDev = "dev"

	minSecretLen = 32
	devSecret    = "dev-session-secret-change-me-0123456789"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	AppEnv   string
	LogLevel string
	Port     int

	DatabaseURL string
	RedisAddr   string

	SessionSecret string
	SessionTTL    time.Duration
	CheckoutDelay time.Duration

	MetricsToken string

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only safe when every request passes through a proxy that sets them.
	TrustProxy bool
}

// Load reads the environment, seeded from the given .env files when they exist.
// Variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		AppEnv:        getenv("APP_ENV", EnvDev),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		MetricsToken:  os.Getenv("METRICS_TOKEN"),
	}

	var err error
	if cfg.Port, err = getenvInt("PORT", 8080); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxy, err = getenvBool("TRUST_PROXY", false); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CheckoutDelay, err = getenvDuration("CHECKOUT_DELAY", 2*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.SessionSecret == "" && cfg.AppEnv == EnvDev {
		cfg.SessionSecret = devSecret
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT out of range: %d", ErrInvalid, c.Port)
	}
	if len(c.SessionSecret) < minSecretLen {
		return fmt.Errorf("%w: SESSION_SECRET is required and must be at least %d chars", ErrInvalid, minSecretLen)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", ErrInvalid)
	}
	if c.CheckoutDelay < 0 {
		return fmt.Errorf("%w: CHECKOUT_DELAY must not be negative", ErrInvalid)
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number: %v", ErrInvalid, k, err)
	}
	return n, nil
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a duration: %v", ErrInvalid, k, err)
	}
	return d, nil
}

func getenvBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean: %v", ErrInvalid, k, err)
	}
	return b, nil
}
