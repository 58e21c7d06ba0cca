package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database"
	"github.com/hugh/go-attend/internal/reports"
	"github.com/hugh/go-attend/internal/tasks"
	"github.com/hugh/go-attend/pkg/config"
	"github.com/hugh/go-attend/pkg/crypto"
	"github.com/hugh/go-attend/pkg/metrics"
	"github.com/hugh/go-attend/pkg/queue"
	"github.com/hugh/go-attend/pkg/storage"
	"github.com/hugh/go-attend/pkg/util"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
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

	logger.Info("starting attendance worker")

	if !cfg.Reports.ArchiveEnabled() {
		logger.Error("REPORTS_S3_BUCKET is not set, nothing to archive to")
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	encryptor, err := crypto.NewEncryptor(cfg.Reports.EncryptionKey)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	switch {
	case cfg.Reports.EncryptionKey == "":
		logger.Warn("REPORTS_ENCRYPTION_KEY not set, archives are sealed with a throwaway key and cannot be read back")
	case encryptor.CanDecrypt():
		logger.Warn("worker holds the archive private key, the age1 recipient is enough for sealing")
	}
	logger.Info("sealing archives", "recipient", encryptor.PublicKey())

	store, err := storage.NewS3Store(context.Background(), &cfg.Reports)
	if err != nil {
		logger.Error("failed to create archive store", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Attendance.Location()
	if err != nil {
		logger.Error("invalid attendance timezone", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	attendanceService := attendance.NewService(
		attendance.NewRepository(db),
		attendance.Policy{Location: location},
		logger,
	)
	reportService := reports.NewService(db, attendanceService, logger)
	archiver := reports.NewArchiver(reportService, store, encryptor, m, logger)

	client := queue.NewClient(&cfg.Redis)
	defer client.Close()

	srv := queue.NewServer(&cfg.Redis, 10)
	handler := tasks.NewHandler(db, logger, archiver, client)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	var scheduler *asynq.Scheduler
	if cfg.Reports.ArchiveCron != "" {
		if err := util.ValidateCronExpr(cfg.Reports.ArchiveCron); err != nil {
			logger.Error("invalid REPORTS_ARCHIVE_CRON", "error", err)
			os.Exit(1)
		}
		scheduler = queue.NewScheduler(&cfg.Redis)
		entryID, err := scheduler.Register(cfg.Reports.ArchiveCron, tasks.NewReportArchiveAllTask())
		if err != nil {
			logger.Error("failed to register archive schedule", "error", err)
			os.Exit(1)
		}
		if err := scheduler.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		next, err := util.NextCronTime(cfg.Reports.ArchiveCron, time.Now())
		if err != nil {
			logger.Error("invalid REPORTS_ARCHIVE_CRON", "error", err)
			os.Exit(1)
		}
		logger.Info("scheduled monthly archives", "cron", cfg.Reports.ArchiveCron, "entry_id", entryID, "next_run", next)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker started, waiting for tasks...", "bucket", store.Bucket())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	if scheduler != nil {
		scheduler.Shutdown()
	}
	srv.Shutdown()

	if err := database.Close(db); err != nil {
		logger.Error("closing database", "error", err)
	}

	logger.Info("worker stopped")
}
