// Package http exposes the finance tracker as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	applog "financitos/internal/log"
	"financitos/internal/middleware/ratelimit"
	"financitos/internal/middleware/security"
	"financitos/internal/middleware/trace"
	"financitos/internal/services"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the application services the handlers call.
type Services struct {
	Months   *services.MonthService
	Shopping *services.ShoppingService
	Settings *services.SettingsService
	Backup   *services.BackupService
	Rates    *services.RatesService
}

// Config holds server settings
type Config struct {
	Addr               string
	RateLimitPerMinute int
	AllowedOrigins     []string
	Logger             *applog.Logger
	Now                func() time.Time
}

type Server struct {
	http.Server
	svc         Services
	ready       Pinger
	validate    *validator.Validate
	rateLimiter *ratelimit.Limiter
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, svc Services, ready Pinger) *Server {
	if cfg.Logger == nil {
		cfg.Logger = applog.FromContext(context.Background())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ipResolver := security.NewClientIPResolver()
	s := &Server{
		svc:         svc,
		ready:       ready,
		validate:    newValidator(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		now:         cfg.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(ipResolver.ExtractClientIP, cfg.Logger.WithComponent(applog.ComponentHTTP)).Middleware)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.RequestIDHeader},
			ExposedHeaders: []string{trace.RequestIDHeader, "Retry-After"},
			MaxAge:         300,
		}))
	}
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.rateLimiter.Middleware(ipResolver.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded")
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/months", func(r chi.Router) {
			r.Get("/", s.handleListMonths)
			r.Route("/{month}", func(r chi.Router) {
				r.Get("/", s.handleGetMonth)
				r.Delete("/", s.handleDeleteMonth)
				r.Get("/summary", s.handleSummary)
				r.Get("/reminders", s.handleReminders)

				r.Post("/income", s.handleAddIncome)
				r.Put("/income/{id}", s.handleUpdateIncome)
				r.Delete("/income/{id}", s.handleRemoveIncome)

				r.Post("/expenses", s.handleAddExpense)
				r.Put("/expenses/{id}", s.handleUpdateExpense)
				r.Delete("/expenses/{id}", s.handleRemoveExpense)
				r.Post("/expenses/{id}/toggle", s.handleToggleExpense)

				r.Post("/investments", s.handleUpsertInvestment)
				r.Put("/investments/{id}", s.handleUpdateInvestment)
				r.Delete("/investments/{id}", s.handleRemoveInvestment)
			})
		})

		r.Route("/shopping", func(r chi.Router) {
			r.Get("/", s.handleListShopping)
			r.Post("/items", s.handleAddShoppingItem)
			r.Put("/items/{id}", s.handleUpdateShoppingItem)
			r.Delete("/items/{id}", s.handleRemoveShoppingItem)
			r.Post("/items/{id}/toggle", s.handleToggleShoppingItem)
		})

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Delete("/data", s.handleClearAll)
		r.Post("/sync", s.handleSync)

		r.Get("/rates", s.handleRates)
		r.Put("/rates", s.handleSetRates)
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
