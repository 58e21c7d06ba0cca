package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/go-attend/internal/api/handlers"
	"github.com/hugh/go-attend/internal/api/middleware"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/identity"
	"github.com/hugh/go-attend/internal/reports"
	"github.com/hugh/go-attend/internal/tasks"
	"github.com/hugh/go-attend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
	limiter *middleware.RateLimiter
}

// Stop releases background work started by the router. Safe to call more than once.
func (rt *Router) Stop() {
	if rt.limiter != nil {
		rt.limiter.Stop()
	}
}

type RouterConfig struct {
	DB          *gorm.DB
	Redis       *redis.Client // optional
	Logger      *slog.Logger
	JWTService  auth.TokenValidator
	AuthService auth.Authenticator
	Attendance  *attendance.Service
	Identity    *identity.Service
	Reports     *reports.Service
	Enqueuer    tasks.Enqueuer // optional; archive requests fail with 503 without it

	Metrics  *metrics.Metrics    // optional
	Gatherer prometheus.Gatherer // serves /metrics when set

	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
	TokenExpiry    time.Duration
	SecureCookies  bool
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitReqs > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitReqs, cfg.RateLimitSecs)
		r.Use(limiter.Middleware)
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Logger, cfg.TokenExpiry, cfg.SecureCookies)
	attendanceHandler := handlers.NewAttendanceHandler(cfg.Attendance, cfg.Logger)
	identityHandler := handlers.NewIdentityHandler(cfg.Identity, cfg.Logger)
	reportHandler := handlers.NewReportHandler(cfg.Reports, reports.CSVRenderer{}, cfg.Enqueuer, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService, cfg.AuthService))

			r.Get("/me", authHandler.Me)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/", attendanceHandler.Create)
				r.Get("/", attendanceHandler.List)
				r.Get("/mine", attendanceHandler.ListMine)
				r.Get("/mine/{id}", attendanceHandler.GetMine)
				r.Get("/{id}", attendanceHandler.Get)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", identityHandler.ListEmployees)
				r.Get("/{id}", identityHandler.GetEmployee)
			})

			r.Get("/users", identityHandler.ListUsers)
			r.Delete("/roles/{id}", identityHandler.DeleteRole)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", identityHandler.ListCompanies)
				r.Get("/{id}", identityHandler.GetCompany)
				r.Put("/{id}", identityHandler.UpdateCompany)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/company", reportHandler.Company)
				r.Post("/company/archive", reportHandler.Archive)
				r.Get("/employees/{id}", reportHandler.Employee)
				r.Get("/mine", reportHandler.Mine)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return &Router{Router: r, limiter: limiter}
}
