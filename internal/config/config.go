package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Weather provider credentials and client settings.
	WeatherAPIKey  string
	WeatherBaseURL string
	HTTPTimeout    time.Duration

	// SMTP transport for buyer notifications.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	// Path to the SQLite notifications database.
	DBPath string

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
// Credentials for the weather provider and the SMTP account are required.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY is required")
	}
	cfg.WeatherBaseURL = getenvDefault("WEATHER_BASE_URL", "https://api.weatherapi.com/v1/forecast.json")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.SMTPHost = getenvDefault("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getenvInt("SMTP_PORT", 587)
	cfg.SMTPUser = os.Getenv("EMAIL_USER")
	cfg.SMTPPass = os.Getenv("EMAIL_PASS")
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		return nil, fmt.Errorf("EMAIL_USER and EMAIL_PASS are required")
	}

	cfg.DBPath = getenvDefault("DB_PATH", "notifications.db")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "text")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
