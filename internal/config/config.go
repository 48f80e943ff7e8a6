package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             int
	LogLevel         string
	OpenRouterAPIKey string
	OpenRouterURL    string
	Model            string
	SNInstance       string
	SNUser           string
	SNPassword       string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
}

func Load() Config {
	return Config{
		Port:             envInt("SCRIBE_PORT", 8760),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		OpenRouterAPIKey: envStr("OPENROUTER_API_KEY", ""),
		OpenRouterURL:    envStr("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		Model:            envStr("SCRIBE_MODEL", "meta-llama/llama-3.3-8b-instruct:free"),
		SNInstance:       envStr("SN_INSTANCE", ""),
		SNUser:           envStr("SN_USER", ""),
		SNPassword:       envStr("SN_PWD", ""),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
	}
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
