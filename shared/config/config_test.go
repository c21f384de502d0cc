package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8001" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("access ttl = %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %s", cfg.RefreshTokenTTL)
	}
	if cfg.IntentTTL != 10*time.Minute {
		t.Fatalf("intent ttl = %s", cfg.IntentTTL)
	}
	if cfg.PasswordMinLength != 8 {
		t.Fatalf("password min length = %d", cfg.PasswordMinLength)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("access ttl = %s", cfg.AccessTokenTTL)
	}
	if cfg.SMTPPort != 2525 {
		t.Fatalf("smtp port = %d", cfg.SMTPPort)
	}
	if cfg.RedisAddr() != "redis.internal:6380" {
		t.Fatalf("redis addr = %q", cfg.RedisAddr())
	}
}

func TestMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("access ttl = %s, want the default", cfg.AccessTokenTTL)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("smtp port = %d, want the default", cfg.SMTPPort)
	}
}
