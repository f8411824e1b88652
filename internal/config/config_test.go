package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "ALERT_DROP_THRESHOLD", "ALERT_RECOVERY_POLICY",
		"ALERT_REFRESH_SCHEDULE", "FORECAST_WINDOW", "REDIS_URL",
	} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "jwt", cfg.Cookie.Name)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:3000")
	assert.Empty(t, cfg.RedisURL)

	assert.Equal(t, 0.2, cfg.Alerts.DropThreshold)
	assert.Equal(t, RecoveryRetain, cfg.Alerts.RecoveryPolicy)
	assert.Empty(t, cfg.Alerts.RefreshSchedule)
	assert.Equal(t, 1.05, cfg.Recommendation.NearLowRatio)
	assert.Equal(t, 0.95, cfg.Recommendation.BelowAverageRatio)
	assert.Equal(t, 30, cfg.Forecast.Window)
	assert.Equal(t, 0.98, cfg.Forecast.DropRatio)
}

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://test:5432/testdb")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ALLOWED_ORIGINS", "http://example.com,http://test.com")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ALERT_DROP_THRESHOLD", "0.25")
	t.Setenv("ALERT_RECOVERY_POLICY", "Retract")
	t.Setenv("ALERT_REFRESH_SCHEDULE", "*/15 * * * *")
	t.Setenv("FORECAST_WINDOW", "14")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "postgres://test:5432/testdb", cfg.DatabaseURL)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.True(t, cfg.Cookie.Secure)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 0.25, cfg.Alerts.DropThreshold)
	assert.Equal(t, RecoveryRetract, cfg.Alerts.RecoveryPolicy)
	assert.Equal(t, "*/15 * * * *", cfg.Alerts.RefreshSchedule)
	assert.Equal(t, 14, cfg.Forecast.Window)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ALERT_DROP_THRESHOLD", "-1")
	t.Setenv("FORECAST_WINDOW", "abc")
	t.Setenv("ALERT_RECOVERY_POLICY", "sometimes")

	cfg := Load()

	assert.Equal(t, 0.2, cfg.Alerts.DropThreshold)
	assert.Equal(t, 30, cfg.Forecast.Window)
	assert.Equal(t, RecoveryRetain, cfg.Alerts.RecoveryPolicy)
}

func TestConfig_Env(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env         string
		development bool
		production  bool
	}{
		{"development", true, false},
		{"production", false, true},
		{"staging", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Env: tt.env}
			assert.Equal(t, tt.development, cfg.IsDevelopment())
			assert.Equal(t, tt.production, cfg.IsProduction())
		})
	}
}
