package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	LogLevel    string
	LogDir      string

	// TradesDir is the bot's data root; network state lives underneath it
	TradesDir string
	StateDir  string

	Retry struct {
		MaxRetries    int
		BaseDelay     time.Duration
		MaxDelay      time.Duration
		BackoffFactor float64
		Jitter        float64
	}

	Exchange struct {
		APIKey  string
		Secret  string
		Testnet bool
		Demo    bool
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogDir:      getEnv("LOG_DIR", "logs"),
		TradesDir:   TradesDir(),
	}
	cfg.StateDir = getEnv("NETWORK_STATE_DIR", filepath.Join(cfg.TradesDir, StateSubdir))

	cfg.Retry.MaxRetries = getEnvInt("RETRY_MAX_RETRIES", 5)
	cfg.Retry.BaseDelay = getEnvDuration("RETRY_BASE_DELAY", time.Second)
	cfg.Retry.MaxDelay = getEnvDuration("RETRY_MAX_DELAY", time.Minute)
	cfg.Retry.BackoffFactor = getEnvFloat("RETRY_BACKOFF_FACTOR", 2.0)
	cfg.Retry.Jitter = getEnvFloat("RETRY_JITTER", 0.1)

	cfg.Exchange.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Exchange.Secret = getEnv("BYBIT_API_SECRET", "")
	cfg.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", true)
	cfg.Exchange.Demo = getEnvBool("BYBIT_DEMO", false)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

// StateSubdir is the directory under TradesDir holding operation state files
const StateSubdir = "network_state"

// TradesDir resolves the process-wide trades directory
func TradesDir() string {
	return getEnv("TRADES_DIR", "trades")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("1500ms") or plain seconds ("1.5")
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultVal
}
