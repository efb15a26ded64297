package config

import (
	"testing"
	"time"
)

var allKeys = []string{
	"THREADPAGES_PORT", "LOG_LEVEL", "STORE_DRIVER", "DATABASE_URL",
	"SLACK_SIGNING_SECRET", "SLACK_TARGET_CHANNEL", "SLACK_MAX_SKEW_SECONDS",
	"SLACK_BOT_TOKEN", "PAGE_BASE_URL", "GEMINI_API_KEY", "GEMINI_MODEL",
	"GEMINI_BASE_URL", "GENERATION_TIMEOUT_MS", "PUBLISH_BACKEND", "NATS_URL", "REDIS_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
	if cfg.StoreDriver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.StoreDriver)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty database url, got %s", cfg.DatabaseURL)
	}
	if cfg.SlackTargetChannel != "" {
		t.Errorf("expected no target channel, got %s", cfg.SlackTargetChannel)
	}
	if cfg.SlackMaxSkew != 0 {
		t.Errorf("expected replay window disabled, got %v", cfg.SlackMaxSkew)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("expected default model, got %s", cfg.GeminiModel)
	}
	if cfg.GeminiBaseURL != "" {
		t.Errorf("expected SDK default endpoint, got %s", cfg.GeminiBaseURL)
	}
	if cfg.GenerationTimeout != 2*time.Second {
		t.Errorf("expected 2s generation timeout, got %v", cfg.GenerationTimeout)
	}
	if cfg.PublishBackend != "nats" {
		t.Errorf("expected nats backend, got %s", cfg.PublishBackend)
	}
	if cfg.NatsURL != "nats://localhost:4222" {
		t.Errorf("expected default nats url, got %s", cfg.NatsURL)
	}
	if cfg.NotifierEnabled() {
		t.Error("expected notifier disabled by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("THREADPAGES_PORT", "9090")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "/tmp/pages.db")
	t.Setenv("SLACK_SIGNING_SECRET", "shh")
	t.Setenv("SLACK_TARGET_CHANNEL", "C123")
	t.Setenv("SLACK_MAX_SKEW_SECONDS", "300")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("PAGE_BASE_URL", "https://pages.example.com")
	t.Setenv("GENERATION_TIMEOUT_MS", "1500")
	t.Setenv("PUBLISH_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.StoreDriver)
	}
	if cfg.DatabaseURL != "/tmp/pages.db" {
		t.Errorf("expected custom database url, got %s", cfg.DatabaseURL)
	}
	if cfg.SlackSigningSecret != "shh" {
		t.Errorf("expected signing secret, got %s", cfg.SlackSigningSecret)
	}
	if cfg.SlackTargetChannel != "C123" {
		t.Errorf("expected target channel C123, got %s", cfg.SlackTargetChannel)
	}
	if cfg.SlackMaxSkew != 5*time.Minute {
		t.Errorf("expected 5m skew, got %v", cfg.SlackMaxSkew)
	}
	if cfg.GenerationTimeout != 1500*time.Millisecond {
		t.Errorf("expected 1.5s timeout, got %v", cfg.GenerationTimeout)
	}
	if cfg.PublishBackend != "redis" {
		t.Errorf("expected redis backend, got %s", cfg.PublishBackend)
	}
	if cfg.RedisURL != "redis://cache:6379/2" {
		t.Errorf("expected custom redis url, got %s", cfg.RedisURL)
	}
	if !cfg.NotifierEnabled() {
		t.Error("expected notifier enabled")
	}
}

func TestLoad_InvalidInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("THREADPAGES_PORT", "notanumber")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("expected default port on invalid value, got %d", cfg.Port)
	}
}
