package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     int
	LogLevel string

	StoreDriver string
	DatabaseURL string

	SlackSigningSecret string
	SlackTargetChannel string
	SlackMaxSkew       time.Duration
	SlackBotToken      string
	PageBaseURL        string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GenerationTimeout time.Duration

	PublishBackend string
	NatsURL        string
	RedisURL       string
}

func Load() Config {
	return Config{
		Port:               envInt("THREADPAGES_PORT", 8080),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		StoreDriver:        envStr("STORE_DRIVER", "postgres"),
		DatabaseURL:        envStr("DATABASE_URL", ""),
		SlackSigningSecret: envStr("SLACK_SIGNING_SECRET", ""),
		SlackTargetChannel: envStr("SLACK_TARGET_CHANNEL", ""),
		SlackMaxSkew:       time.Duration(envInt("SLACK_MAX_SKEW_SECONDS", 0)) * time.Second,
		SlackBotToken:      envStr("SLACK_BOT_TOKEN", ""),
		PageBaseURL:        envStr("PAGE_BASE_URL", ""),
		GeminiAPIKey:       envStr("GEMINI_API_KEY", ""),
		GeminiModel:        envStr("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:      envStr("GEMINI_BASE_URL", ""),
		GenerationTimeout:  time.Duration(envInt("GENERATION_TIMEOUT_MS", 2000)) * time.Millisecond,
		PublishBackend:     envStr("PUBLISH_BACKEND", "nats"),
		NatsURL:            envStr("NATS_URL", "nats://localhost:4222"),
		RedisURL:           envStr("REDIS_URL", "redis://localhost:6379/0"),
	}
}

// NotifierEnabled reports whether thread link replies can be posted.
func (c Config) NotifierEnabled() bool {
	return c.SlackBotToken != "" && c.PageBaseURL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
