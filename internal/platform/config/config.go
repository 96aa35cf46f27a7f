package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the console gateway.
type Server struct {
	Addr            string
	BackendURL      string
	BackendTimeout  time.Duration
	PostgresDSN     string
	Redis           RedisConfig
	SessionTTL      time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis-backed credential store. An
// empty URL keeps the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	addr := os.Getenv("TRADEDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backendURL := os.Getenv("TRADEDESK_BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:9090/api"
	}

	return Server{
		Addr:            addr,
		BackendURL:      backendURL,
		BackendTimeout:  durationFromEnv("TRADEDESK_BACKEND_TIMEOUT", 15*time.Second),
		PostgresDSN:     os.Getenv("TRADEDESK_POSTGRES_DSN"),
		SessionTTL:      durationFromEnv("TRADEDESK_SESSION_TTL", 30*24*time.Hour),
		ShutdownTimeout: durationFromEnv("TRADEDESK_SHUTDOWN_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("TRADEDESK_REDIS_URL"),
			PoolSize:     intFromEnv("TRADEDESK_REDIS_POOL_SIZE", 10),
			MinIdleConns: intFromEnv("TRADEDESK_REDIS_MIN_IDLE", 2),
			DialTimeout:  durationFromEnv("TRADEDESK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationFromEnv("TRADEDESK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationFromEnv("TRADEDESK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
