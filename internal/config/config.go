package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DBDriver       string
	DBDSN          string
	JWTSecret      string
	AllowedOrigins []string
	HistoryLimit   int
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:         envOr("ADDR", ":8080"),
		DBDriver:     envOr("DB_DRIVER", "sqlite3"),
		DBDSN:        envOr("DB_DSN", "citylink.db"),
		JWTSecret:    envOr("JWT_SECRET", "default_secret_key"),
		HistoryLimit: envIntOr("HISTORY_LIMIT", 50),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, strings.TrimSpace(origin))
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
