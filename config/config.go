package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ReorderConfig holds the operator-editable defaults for the reorder agent.
// Each run may still override them per request; values outside the valid
// ranges are clamped back to the defaults.
type ReorderConfig struct {
	LookbackDays  int
	LeadTimeDays  int
	SafetyFactor  float64
	ReorderBuffer int
	UserTimeout   time.Duration
	Workers       int
}

// Config struct holds application configuration
// This is a simple way to make config accessible globally.
// A more advanced approach might use dependency injection.
type Config struct {
	JWTSecret    string
	AppEnv       string
	GeminiAPIKey string
	LogLevel     string
	Reorder      ReorderConfig
}

// AppConfig holds the application-wide configuration
var AppConfig Config

// Load reads configuration from the environment. DATABASE_URL is read by the
// caller; JWT_SECRET is required here.
func Load() error {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	AppConfig = Config{
		JWTSecret:    jwtSecret,
		AppEnv:       getEnv("APP_ENV", "development"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Reorder: ReorderConfig{
			LookbackDays:  getEnvInt("REORDER_LOOKBACK_DAYS", 30),
			LeadTimeDays:  getEnvInt("REORDER_LEAD_TIME_DAYS", 7),
			SafetyFactor:  getEnvFloat("REORDER_SAFETY_FACTOR", 1.2),
			ReorderBuffer: getEnvInt("REORDER_BUFFER", 0),
			UserTimeout:   time.Duration(getEnvInt("REORDER_USER_TIMEOUT", 10)) * time.Second,
			Workers:       getEnvInt("REORDER_WORKERS", 4),
		},
	}

	if AppConfig.Reorder.Workers < 1 {
		AppConfig.Reorder.Workers = 1
	}
	if AppConfig.Reorder.UserTimeout <= 0 {
		AppConfig.Reorder.UserTimeout = 10 * time.Second
	}

	return nil
}

// IsProduction gates verbose error details out of API responses.
func IsProduction() bool {
	return AppConfig.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
