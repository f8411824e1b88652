package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Alert recovery policies.
const (
	RecoveryRetain  = "retain"
	RecoveryRetract = "retract"
)

// CookieConfig holds settings for the auth cookie.
type CookieConfig struct {
	Name     string
	Domain   string // empty = current domain
	Secure   bool
	SameSite string // "Strict", "Lax", or "None"
	Path     string
}

// AlertConfig tunes the drop alert engine.
type AlertConfig struct {
	// DropThreshold is a ratio, 0.2 means a 20% drop from the historical high.
	DropThreshold  float64
	RecoveryPolicy string
	// RefreshSchedule is a 5-field cron expression; empty disables background refresh.
	RefreshSchedule string
	RefreshTimeout  time.Duration
}

// RecommendationConfig holds the "Buy Now" heuristic ratios.
type RecommendationConfig struct {
	NearLowRatio      float64
	BelowAverageRatio float64
}

// ForecastConfig tunes the next-tick minimum price forecast.
type ForecastConfig struct {
	Window    int
	DropRatio float64
	Timeout   time.Duration
}

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string
	AutoMigrate bool

	// Redis (empty URL disables the summary cache)
	RedisURL        string
	SummaryCacheTTL time.Duration

	// Auth
	JWTSecret string
	TokenTTL  time.Duration
	Cookie    CookieConfig

	// CORS
	AllowedOrigins []string

	Alerts         AlertConfig
	Recommendation RecommendationConfig
	Forecast       ForecastConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")
	isProduction := env == "production"

	return &Config{
		Port: getEnv("PORT", "5000"),
		Env:  env,

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pricewatch?sslmode=disable"),
		AutoMigrate: getBoolEnv("AUTO_MIGRATE", !isProduction),

		RedisURL:        os.Getenv("REDIS_URL"),
		SummaryCacheTTL: getDurationEnv("SUMMARY_CACHE_TTL", 10*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		TokenTTL:  getDurationEnv("TOKEN_TTL", 7*24*time.Hour),
		Cookie: CookieConfig{
			Name:     getEnv("COOKIE_NAME", "jwt"),
			Domain:   getEnv("COOKIE_DOMAIN", ""),
			Secure:   getBoolEnv("COOKIE_SECURE", isProduction),
			SameSite: getEnv("COOKIE_SAME_SITE", "Strict"),
			Path:     getEnv("COOKIE_PATH", "/"),
		},

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		Alerts: AlertConfig{
			DropThreshold:   getFloatEnv("ALERT_DROP_THRESHOLD", 0.2),
			RecoveryPolicy:  getRecoveryPolicy("ALERT_RECOVERY_POLICY"),
			RefreshSchedule: os.Getenv("ALERT_REFRESH_SCHEDULE"),
			RefreshTimeout:  getDurationEnv("ALERT_REFRESH_TIMEOUT", 5*time.Minute),
		},
		Recommendation: RecommendationConfig{
			NearLowRatio:      getFloatEnv("BUY_NEAR_LOW_RATIO", 1.05),
			BelowAverageRatio: getFloatEnv("BUY_BELOW_AVERAGE_RATIO", 0.95),
		},
		Forecast: ForecastConfig{
			Window:    getIntEnv("FORECAST_WINDOW", 30),
			DropRatio: getFloatEnv("FORECAST_DROP_RATIO", 0.98),
			Timeout:   getDurationEnv("FORECAST_TIMEOUT", 2*time.Second),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getRecoveryPolicy(key string) string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case RecoveryRetract:
		return RecoveryRetract
	default:
		return RecoveryRetain
	}
}
