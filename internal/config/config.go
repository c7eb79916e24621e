package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting. All values come from the
// environment with local-development defaults.
type Config struct {
	ServiceName string
	Port        string

	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	MigrationsDir    string

	RedisAddr string

	StripeBaseURL        string
	StripeSecretKey      string
	StripePublishableKey string
	StripeTimeout        time.Duration
	SettlementCurrency   string

	SMTPHost string
	SMTPPort string
	SMTPFrom string

	OutboxTick    time.Duration
	OutboxBatch   int
	OTLPEndpoint  string
	GracefulDelay time.Duration
}

func Load() *Config {
	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "craftycorner-backend"),
		Port:        getEnv("PORT", "8080"),

		DatabaseUser:     getEnv("DATABASE_USER", "root"),
		DatabasePassword: getEnv("DATABASE_PASSWORD", "pass"),
		DatabaseHost:     getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnv("DATABASE_PORT", "5432"),
		DatabaseName:     getEnv("DATABASE_NAME", "craftycorner_db"),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		StripeBaseURL:        getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripeTimeout:        getDurationEnv("STRIPE_TIMEOUT", 10*time.Second),
		SettlementCurrency:   getEnv("SETTLEMENT_CURRENCY", "inr"),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPFrom: getEnv("SMTP_FROM", "no-reply@craftycorner.shop"),

		OutboxTick:    getDurationEnv("OUTBOX_TICK", time.Second),
		OutboxBatch:   getIntEnv("OUTBOX_BATCH", 100),
		OTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		GracefulDelay: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// DatabaseDSN builds the pgx connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DatabaseUser, c.DatabasePassword, c.DatabaseHost, c.DatabasePort, c.DatabaseName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
