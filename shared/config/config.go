package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration, sourced from environment variables.
type Config struct {
	Port string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	ResendAPIKey string
	FromEmail    string
	FromName     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	KafkaBroker string

	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminCompany  string

	PasswordMinLength int
	VerificationTTL   time.Duration
	IntentTTL         time.Duration
}

// Load reads configuration from the environment with sane defaults.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8001"),

		JWTSecret:       getEnv("JWT_SECRET", "dev_secret_change_me"),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubRedirectURL:  getEnv("GITHUB_REDIRECT_URL", "http://localhost:8001/social/github/callback"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@example.com"),
		FromName:     getEnv("FROM_NAME", "Peer Recognition"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		KafkaBroker: os.Getenv("KAFKA_BROKER"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminCompany:  getEnv("ADMIN_COMPANY", "Default Company"),

		PasswordMinLength: getIntEnv("PASSWORD_MIN_LENGTH", 8),
		VerificationTTL:   getDurationEnv("VERIFICATION_TTL", 24*time.Hour),
		IntentTTL:         getDurationEnv("INTENT_TTL", 10*time.Minute),
	}
}

// RedisAddr returns the host:port Redis address.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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
