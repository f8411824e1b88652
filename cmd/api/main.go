package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/pricewatch/backend/docs"
	"github.com/pricewatch/backend/internal/cache"
	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/handler"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/metrics"
	"github.com/pricewatch/backend/internal/migrate"
	"github.com/pricewatch/backend/internal/pricing"
	"github.com/pricewatch/backend/internal/repository"
	"github.com/pricewatch/backend/internal/scheduler"
	"github.com/pricewatch/backend/internal/service"
)

// @title PriceWatch API
// @version 1.0
// @description Multi-platform price tracking with drop alerts and price forecasts.

// @host localhost:5000
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if cfg.AutoMigrate {
		if err := migrate.Up(ctx, db.DB); err != nil {
			log.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("Migrations applied")
	}

	// Summary cache is optional.
	var summaryCache service.SummaryCache
	if cfg.RedisURL != "" {
		c, client, err := cache.Connect(ctx, cfg.RedisURL, cfg.SummaryCacheTTL)
		if err != nil {
			log.Warn("Redis unavailable, summary cache disabled", slog.String("error", err.Error()))
		} else {
			summaryCache = c
			defer func() { _ = client.Close() }()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	alertMetrics := metrics.NewAlertMetrics(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	trackedRepo := repository.NewTrackedRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Initialize services
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	userService := service.NewUserService(userRepo, tokens)
	productService := service.NewProductService(productRepo, summaryCache,
		pricing.RecommendationPolicy{
			NearLowRatio:      cfg.Recommendation.NearLowRatio,
			BelowAverageRatio: cfg.Recommendation.BelowAverageRatio,
		},
		service.ForecastOptions{
			Window:    cfg.Forecast.Window,
			DropRatio: cfg.Forecast.DropRatio,
			Timeout:   cfg.Forecast.Timeout,
		},
	)
	trackedService := service.NewTrackedService(trackedRepo, productRepo)
	alertService := service.NewAlertService(alertRepo, trackedRepo, cfg.Alerts, alertMetrics)

	alertScheduler := scheduler.New(scheduler.Config{
		Schedule: cfg.Alerts.RefreshSchedule,
		Timeout:  cfg.Alerts.RefreshTimeout,
	}, alertService, log)
	if err := alertScheduler.Start(); err != nil {
		log.Error("Failed to start alert refresh scheduler", slog.String("error", err.Error()))
	} else if alertScheduler.Enabled() {
		// Warm alerts at boot instead of waiting for the first tick.
		alertScheduler.RunNow()
	}

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuth(tokens, userRepo, cfg.Cookie.Name),
		Users:          handler.NewUserHandler(userService, cfg.Cookie, tokens.TTL()),
		Products:       handler.NewProductHandler(productService),
		Tracked:        handler.NewTrackedHandler(trackedService),
		Alerts:         handler.NewAlertHandler(alertService),
		DB:             db,
		AlertRefresh:   alertScheduler,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")

		// Stop scheduler first
		if alertScheduler.Enabled() {
			<-alertScheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Info("Server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
