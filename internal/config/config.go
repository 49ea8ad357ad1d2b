// Package config loads process configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// BridgeConfig describes the WhatsApp bridge WebSocket endpoint.
type BridgeConfig struct {
	URL            string
	ReconnectDelay time.Duration
	SendTimeout    time.Duration
}

// RedisConfig describes the optional Redis/Valkey-backed bus.
type RedisConfig struct {
	URL       string
	Namespace string
	Enabled   bool
}

// GodModeConfig controls the admin state machine.
type GodModeConfig struct {
	PasswordHash    string // sha256 hex digest, computed at load time
	MaxAttempts     int
	LockoutMinutes  int
}

// RateLimitConfig controls the per-chat token bucket.
type RateLimitConfig struct {
	Capacity int
	WindowS  int
}

// Config is the fully resolved process configuration.
type Config struct {
	DataDir        string
	StrictHandlers bool
	HTTPAdminAddr  string
	DatabaseDSN    string
	OpenAIAPIKey   string
	OpenAIModel    string
	AllowedNumbers []string

	Bridge    BridgeConfig
	Redis     RedisConfig
	GodMode   GodModeConfig
	RateLimit RateLimitConfig
}

// Global holds the process-wide configuration once loaded.
var Global *Config

// LoadConfig reads environment variables (after loading an optional .env
// file) into a Config, applying the documented defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("ZAPISTA_DATA", defaultDataDir())

	cfg := &Config{
		DataDir:        dataDir,
		StrictHandlers: getEnvBool("STRICT_HANDLERS", false),
		HTTPAdminAddr:  getEnv("HTTP_ADMIN_ADDR", ""),
		DatabaseDSN:    getEnv("DATABASE_DSN", filepath.Join(dataDir, "zapista.db")),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", ""),
		AllowedNumbers: splitCSV(getEnv("ALLOWED_NUMBERS", "")),
		Bridge: BridgeConfig{
			URL:            getEnv("BRIDGE_WS_URL", "ws://localhost:8765/ws"),
			ReconnectDelay: time.Duration(getEnvInt("BRIDGE_RECONNECT_SECONDS", 5)) * time.Second,
			SendTimeout:    time.Duration(getEnvInt("BRIDGE_SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			Namespace: getEnv("REDIS_NAMESPACE", "zapista"),
		},
		GodMode: GodModeConfig{
			PasswordHash:   sha256Hex(getEnv("GOD_MODE_PASSWORD", "")),
			MaxAttempts:    getEnvInt("GOD_MODE_MAX_ATTEMPTS", 5),
			LockoutMinutes: getEnvInt("GOD_MODE_LOCKOUT_MINUTES", 15),
		},
		RateLimit: RateLimitConfig{
			Capacity: getEnvInt("RATE_LIMIT_CAPACITY", 15),
			WindowS:  getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
	}
	cfg.Redis.Enabled = cfg.Redis.URL != ""

	Global = cfg
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zapista"
	}
	return filepath.Join(home, ".zapista")
}
