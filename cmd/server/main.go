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

	"github.com/hibiken/asynq"
	"github.com/hugh/go-attend/internal/api"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/identity"
	"github.com/hugh/go-attend/internal/reports"
	"github.com/hugh/go-attend/pkg/config"
	"github.com/hugh/go-attend/pkg/metrics"
	"github.com/hugh/go-attend/pkg/queue"
	"github.com/hugh/go-attend/pkg/util"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting attendance server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Production schemas are migrated by cmd/migrate.
	if cfg.Server.IsDevelopment() {
		if err := database.Migrate(cfg.Database.URL(), logger); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	identityService := identity.NewService(db, logger)
	if err := identityService.EnsureRoles(context.Background()); err != nil {
		logger.Error("failed to seed roles", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, report archiving disabled", "error", err)
		redisClient.Close()
		redisClient = nil
	}

	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
	}

	location, err := cfg.Attendance.Location()
	if err != nil {
		logger.Error("invalid attendance timezone", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)
	attendanceService := attendance.NewService(
		attendance.NewRepository(db),
		attendance.Policy{
			Location:          location,
			AllowBackdating:   cfg.Attendance.AllowBackdating,
			AllowFutureDating: cfg.Attendance.AllowFutureDating,
		},
		logger,
		attendance.WithRecorder(m),
	)
	reportService := reports.NewService(db, attendanceService, logger)

	routerCfg := api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		AuthService:    authService,
		Attendance:     attendanceService,
		Identity:       identityService,
		Reports:        reportService,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		TokenExpiry:    cfg.JWT.Expiry(),
		SecureCookies:  !cfg.Server.IsDevelopment(),
	}
	if asynqClient != nil {
		routerCfg.Enqueuer = asynqClient
	}
	router := api.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	router.Stop()

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := database.Close(db); err != nil {
		logger.Error("closing database", "error", err)
	}

	logger.Info("server stopped")
}
