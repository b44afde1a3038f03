package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Stripe struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Currency       string
	// BackendURL overrides the Stripe API endpoint, e.g. for stripe-mock.
	BackendURL string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Config struct {
	Env      string
	LogLevel string

	HTTPPort           string
	BaseURL            string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	SessionTTL    time.Duration
	SessionSecure bool

	AdminUsername string
	AdminPassword string

	Postgres Postgres
	Redis    Redis
	Stripe   Stripe
	Kafka    Kafka
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: int64(getEnvAsInt("MAX_REQUEST_BODY_BYTES", 1<<16)),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionSecure:      getEnvAsBool("SESSION_COOKIE_SECURE", false),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		Postgres: Postgres{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", "storefront"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Stripe: Stripe{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:       strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
			BackendURL:     getEnv("STRIPE_BACKEND_URL", ""),
		},
		Kafka: Kafka{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "storefront-orders"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Stripe.SecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	if c.Stripe.WebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// OutboxEnabled reports whether order events are relayed to Kafka.
func (c *Config) OutboxEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
