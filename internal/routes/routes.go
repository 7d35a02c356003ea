package routes

import (
	"log/slog"
	"time"

	"github.com/BradenHooton/citypulse/internal/auth"
	"github.com/BradenHooton/citypulse/internal/handlers"
	"github.com/BradenHooton/citypulse/internal/middleware"
	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth    *handlers.AuthHandler
	Reports *handlers.ReportHandler
	Health  *handlers.HealthHandler
}

// Options configures the router
type Options struct {
	Env            string
	AllowedOrigins []string
	AuthRateLimit  middleware.RateLimitConfig
	UserRateLimit  middleware.RateLimitConfig
	RequestTimeout time.Duration
}

// NewRouter builds the router with the shared middleware stack and all routes
func NewRouter(logger *slog.Logger, opts Options, h Handlers, tv auth.TokenValidator) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: opts.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(opts.RequestTimeout))

	RegisterRoutes(router, h, tv, opts)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tv auth.TokenValidator, opts Options) {
	if opts.AuthRateLimit.RequestsPerMinute <= 0 {
		opts.AuthRateLimit = middleware.DefaultAuthRateLimit()
	}
	if opts.UserRateLimit.RequestsPerMinute <= 0 {
		opts.UserRateLimit = middleware.DefaultUserRateLimit()
	}

	// Public routes
	router.Get("/health", h.Health.Health)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(opts.AuthRateLimit))
		r.Post("/auth/signup", h.Auth.Signup)
		r.Post("/auth/login", h.Auth.Login)
	})

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tv))
		r.Use(middleware.RateLimitByUser(opts.UserRateLimit))

		// Citizen routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleCitizen))
			r.Post("/reports", h.Reports.Create)
			r.Post("/reports/voice", h.Reports.CreateFromVoice)
			r.Get("/reports/mine", h.Reports.ListMine)
		})

		// Officer routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleOfficer))
			r.Get("/reports", h.Reports.ListAll)
			r.Get("/reports/overdue", h.Reports.ListOverdue)
			r.Get("/reports/warnings", h.Reports.ListWarnings)
			r.Patch("/reports/{id}/status", h.Reports.UpdateStatus)
		})
	})
}
