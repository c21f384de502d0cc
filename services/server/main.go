package main

import (
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mgiraldo-dev/go-peer-recognition/shared/account"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/config"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/events"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/mailer"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/metrics"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/oauth"
	"github.com/mgiraldo-dev/go-peer-recognition/shared/onboarding"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.MigrateDatabase(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	metrics.Register()

	// Bootstrap administrator and default company from the environment.
	if err := EnsureAdmin(db, cfg); err != nil {
		log.Fatal("Failed to bootstrap administrator:", err)
	}

	// Onboarding intent store: Redis when available, in-memory otherwise.
	var intentStore onboarding.IntentStore
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(redisClient.Context()).Err(); err != nil {
		logrus.Warnf("Redis unavailable at %s, using in-memory intent store: %v", cfg.RedisAddr(), err)
		intentStore = onboarding.NewMemoryIntentStore(cfg.IntentTTL)
	} else {
		intentStore = onboarding.NewRedisIntentStore(redisClient, cfg.IntentTTL)
	}

	var primary, secondary mailer.Mailer
	if rm := mailer.NewResendMailer(cfg.ResendAPIKey, cfg.FromName, cfg.FromEmail); rm != nil {
		primary = rm
	}
	if sm := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail); sm != nil {
		secondary = sm
	}
	mail := mailer.NewFallbackMailer(primary, secondary)

	accounts := account.NewService(db, mail,
		account.PasswordPolicy{MinLength: cfg.PasswordMinLength}, cfg.VerificationTTL)
	assigner := onboarding.NewAssigner(db, intentStore)
	provider := oauth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL)

	producer := events.NewProducer(cfg.KafkaBroker)
	if producer == nil {
		logrus.Warn("KAFKA_BROKER not set, domain events disabled")
	}
	defer producer.Close()

	server := NewServer(db, cfg, accounts, assigner, provider, producer)

	logrus.Infof("Server starting on port %s", cfg.Port)
	if err := server.Router().Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
