package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/pricewatch/backend/internal/scheduler"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RefreshStatus reports the state of the background alert refresh.
type RefreshStatus interface {
	Status() scheduler.Status
}

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	Auth           *Auth
	Users          *UserHandler
	Products       *ProductHandler
	Tracked        *TrackedHandler
	Alerts         *AlertHandler
	DB             Pinger
	AlertRefresh   RefreshStatus
	Metrics        http.Handler
	AllowedOrigins []string
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	r.Get("/api/health", health(cfg.DB, cfg.AlertRefresh))

	// Public routes
	r.Post("/api/users/register", cfg.Users.Register)
	r.Post("/api/users/login", cfg.Users.Login)
	r.Get("/api/products", cfg.Products.List)
	r.Get("/api/products/{id}", cfg.Products.Get)
	r.Get("/api/products/{id}/summary", cfg.Products.Summary)
	r.Get("/api/products/{id}/forecast", cfg.Products.Forecast)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)

		r.Post("/api/users/logout", cfg.Users.Logout)
		r.Get("/api/users/profile", cfg.Users.GetProfile)
		r.Put("/api/users/profile", cfg.Users.UpdateProfile)

		r.Post("/api/products/{id}/history", cfg.Products.AddPrice)

		r.Get("/api/tracked", cfg.Tracked.List)
		r.Post("/api/tracked", cfg.Tracked.Track)
		r.Delete("/api/tracked", cfg.Tracked.Clear)
		r.Delete("/api/tracked/{id}", cfg.Tracked.Remove)

		r.Get("/api/alerts", cfg.Alerts.List)
		r.Get("/api/alerts/unread-count", cfg.Alerts.UnreadCount)
		r.Delete("/api/alerts/{id}", cfg.Alerts.Dismiss)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.RequireAdmin)

			r.Post("/api/products", cfg.Products.Create)
			r.Delete("/api/products/{id}", cfg.Products.Delete)
			r.Get("/api/users", cfg.Users.ListUsers)
			r.Get("/api/users/{id}", cfg.Users.GetUser)
			r.Put("/api/users/{id}", cfg.Users.UpdateUser)
			r.Delete("/api/users/{id}", cfg.Users.DeleteUser)
		})
	})

	return r
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status       string            `json:"status"`
	Database     string            `json:"database,omitempty"`
	AlertRefresh *scheduler.Status `json:"alertRefresh,omitempty"`
}

// health godoc
// @Summary Health check
// @Description Check if the API and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func health(db Pinger, refresh RefreshStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if refresh != nil {
			st := refresh.Status()
			resp.AlertRefresh = &st
		}
		if db == nil {
			respondJSON(w, http.StatusOK, resp)
			return
		}
		if err := db.PingContext(r.Context()); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
		respondJSON(w, http.StatusOK, resp)
	}
}
