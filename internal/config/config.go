package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the sandbox harness configuration loaded from environment variables.
type Config struct {
	Env string

	KBank   KBankConfig
	Partner PartnerConfig
	TLS     TLSConfig
	Redis   RedisConfig
}

// KBankConfig contains consumer credentials and transport settings.
type KBankConfig struct {
	ConsumerID     string
	ConsumerSecret string
	BaseURL        string // sandbox host override, empty means the public sandbox
	HTTPTimeout    time.Duration
}

// PartnerConfig contains the partner/merchant identity sent on QR operations.
type PartnerConfig struct {
	PartnerID     string
	PartnerSecret string
	MerchantID    string
	TerminalID    string
}

// TLSConfig locates the client certificate for the mutual-TLS exercise.
type TLSConfig struct {
	CertPath string
	KeyPath  string
	Password string
}

// RedisConfig contains Redis connection parameters for the token cache.
// An empty Host disables the cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Env = getEnv("ENV", "development")

	var err error
	cfg.KBank = KBankConfig{
		ConsumerID:     getEnv("KBANK_CONSUMER_ID", ""),
		ConsumerSecret: getEnv("KBANK_CONSUMER_SECRET", ""),
		BaseURL:        getEnv("KBANK_BASE_URL", ""),
	}
	if cfg.KBank.HTTPTimeout, err = parseDurationEnv("KBANK_HTTP_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid KBANK_HTTP_TIMEOUT: %w", err)
	}

	cfg.Partner = PartnerConfig{
		PartnerID:     getEnv("KBANK_PARTNER_ID", ""),
		PartnerSecret: getEnv("KBANK_PARTNER_SECRET", ""),
		MerchantID:    getEnv("KBANK_MERCHANT_ID", ""),
		TerminalID:    getEnv("KBANK_TERMINAL_ID", ""),
	}

	cfg.TLS = TLSConfig{
		CertPath: getEnv("KBANK_CLIENT_CERT_PATH", ""),
		KeyPath:  getEnv("KBANK_CLIENT_KEY_PATH", ""),
		Password: getEnv("KBANK_CLIENT_CERT_PASSWORD", ""),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	if cfg.KBank.ConsumerID == "" || cfg.KBank.ConsumerSecret == "" {
		return nil, errors.New("KBANK_CONSUMER_ID and KBANK_CONSUMER_SECRET must be set")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
