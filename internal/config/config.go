package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime settings for the gallery server.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Payment PaymentConfig
	App     AppConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

// BackendConfig points at the hosted backend (auth, tables, storage).
type BackendConfig struct {
	URL     string
	AnonKey string
}

type PaymentConfig struct {
	SecretKey     string
	OrderEndpoint string
}

type AppConfig struct {
	// PublicBaseURL is used to build the email-confirmation redirect.
	PublicBaseURL string
	SessionSecret string
	Dev           bool
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.ReadTimeout = getEnvInt("READ_TIMEOUT", 15)
	cfg.Server.WriteTimeout = getEnvInt("WRITE_TIMEOUT", 15)
	cfg.Server.IdleTimeout = getEnvInt("IDLE_TIMEOUT", 60)

	cfg.Backend.URL = getEnv("SUPABASE_URL", "http://localhost:54321")
	cfg.Backend.AnonKey = getEnv("SUPABASE_ANON_KEY", "")

	cfg.Payment.SecretKey = getEnv("STRIPE_SECRET_KEY", "")
	cfg.Payment.OrderEndpoint = getEnv("ORDER_ENDPOINT", "http://localhost:8081/api/create-order")

	cfg.App.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.Server.Port)
	cfg.App.SessionSecret = getEnv("SESSION_SECRET", "devsessionsecret")
	cfg.App.Dev = ParseBool("DEV", false)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
