// Package config loads process configuration from environment variables.
// There is no dedicated config package in the pack to ground this on —
// it is authored fresh against cmd/server/main.go's cfg.DatabaseURL /
// cfg.RedisURL usage, following the env-first, sane-defaults shape every
// package in the corpus that touches os.Getenv uses.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of process-level settings cmd/server needs.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string
	RedisURL    string

	JWTSecret string

	LogLevel  string
	LogFormat string

	DwellTimeSeconds  int
	SpeedThresholdKmh float64

	IngressCoreWorkers int
	IngressMaxWorkers  int
	IngressQueueSize   int
	IngressMaxBatch    int

	GPSRateLimitPerMinute int

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AdminAlertPhones []string

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, falling back to
// development-friendly defaults for anything unset.
func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/geoguard?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DwellTimeSeconds:  getEnvInt("DWELL_TIME_SECONDS", 30),
		SpeedThresholdKmh: getEnvFloat("SPEED_THRESHOLD_KMH", 5.0),

		IngressCoreWorkers: getEnvInt("INGRESS_CORE_WORKERS", 10),
		IngressMaxWorkers:  getEnvInt("INGRESS_MAX_WORKERS", 50),
		IngressQueueSize:   getEnvInt("INGRESS_QUEUE_SIZE", 500),
		IngressMaxBatch:    getEnvInt("INGRESS_MAX_BATCH_SIZE", 100),

		GPSRateLimitPerMinute: getEnvInt("GPS_RATE_LIMIT_PER_MINUTE", 120),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		AdminAlertPhones: getEnvList("ADMIN_ALERT_PHONES"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
