package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application. Values come from
// environment variables, optionally seeded by a .env file.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings
	JWTSecret string

	// Market data settings
	QuoteRequestTimeout time.Duration
	PriceCacheTTL       time.Duration
	BenchmarkCacheTTL   time.Duration
	MarketDataBaseURL   string
	RatesAPIBaseURL     string

	// Orchestrator settings
	AgentTimeout  time.Duration
	GeminiModel   string
	GeminiAPIKey  string
	MaxPlanAgents int

	// Frontend URL (CORS)
	FrontendBaseURL string
}

// Cfg is the global configuration instance.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}
	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getRequiredEnv("JWT_SECRET")

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./yield.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		JWTSecret: jwtSecret,

		QuoteRequestTimeout: getEnvAsDuration("QUOTE_REQUEST_TIMEOUT", 20*time.Second),
		PriceCacheTTL:       getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		BenchmarkCacheTTL:   getEnvAsDuration("BENCHMARK_CACHE_TTL", 6*time.Hour),
		MarketDataBaseURL:   getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
		RatesAPIBaseURL:     getEnv("RATES_API_BASE_URL", "https://api.bcb.gov.br"),

		AgentTimeout:  getEnvAsDuration("AGENT_TIMEOUT", 90*time.Second),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		MaxPlanAgents: getEnvAsInt("MAX_PLAN_AGENTS", 3),

		FrontendBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the
// application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a
// fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or
// returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
