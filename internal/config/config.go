package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiTemperature    float32
	GeminiConcurrentReqs int
	GeminiTimeout        time.Duration

	// Generation limits
	GenerationRequestsPerMin int
	APIRequestsPerMin        int

	// Streak
	StreakTimezone string

	// Logging
	LogLevel string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                     getEnvOrDefault("PORT", "8080"),
		Env:                      getEnvOrDefault("ENV", "development"),
		DatabaseURL:              mustGetEnv("DATABASE_URL"),
		RedisURL:                 mustGetEnv("REDIS_URL"),
		JWTSecret:                mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:             mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:              getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature:        getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.2),
		GeminiConcurrentReqs:     getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		GeminiTimeout:            getEnvAsDurationOrDefault("GEMINI_TIMEOUT", 60*time.Second),
		GenerationRequestsPerMin: getEnvAsIntOrDefault("GENERATION_REQUESTS_PER_MINUTE", 10),
		APIRequestsPerMin:        getEnvAsIntOrDefault("API_REQUESTS_PER_MINUTE", 120),
		StreakTimezone:           getEnvOrDefault("STREAK_TIMEZONE", "UTC"),
		LogLevel:                 getEnvOrDefault("LOG_LEVEL", "info"),
		FrontendURL:              getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// IsProduction accepts "production" or "prod" in any case.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production":
		return true
	}
	return false
}

// StreakLocation resolves StreakTimezone, falling back to UTC when the name is unknown.
func (c *Config) StreakLocation() *time.Location {
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float32) float32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
