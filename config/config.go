package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Session configuration
	JWTSecret       string
	JWTIssuer       string
	SessionTTL      time.Duration
	AdminSessionTTL time.Duration

	// Superadmin credential; login is disabled while either is empty
	AdminID           string
	AdminPasswordHash string

	// Store configuration
	StoreTimeout time.Duration

	// Rate limiting
	LoginRateLimit    int
	PurchaseRateLimit int
	RateLimitWindow   time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

const devJWTSecret = "dev-insecure-secret-change-me"

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Could not load .env file: %v", err)
	}

	cfg := &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Sessions
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTIssuer:       getEnv("JWT_ISSUER", "ticket-marketplace"),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", "168h"),
		AdminSessionTTL: getEnvAsDuration("ADMIN_SESSION_TTL", "24h"),

		// Superadmin
		AdminID:           getEnv("ADMIN_ID", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		// Store
		StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", "5s"),

		// Rate limiting
		LoginRateLimit:    getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		PurchaseRateLimit: getEnvAsInt("PURCHASE_RATE_LIMIT", 30),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		log.Println("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = devJWTSecret
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AdminEnabled reports whether a superadmin credential has been configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminID != "" && c.AdminPasswordHash != ""
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required outside development")
	}
	if !c.IsDevelopment() && c.JWTSecret == devJWTSecret {
		return errors.New("config: the development JWT secret cannot be used in " + c.Environment)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("config: STORE_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 || c.AdminSessionTTL <= 0 {
		return errors.New("config: session TTLs must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("config: RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
