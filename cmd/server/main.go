package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/database"
	"github.com/stemsi/courseware/internal/events"
	"github.com/stemsi/courseware/internal/handler"
	"github.com/stemsi/courseware/internal/logger"
	"github.com/stemsi/courseware/internal/middleware"
	"github.com/stemsi/courseware/internal/repository"
	"github.com/stemsi/courseware/internal/router"
	"github.com/stemsi/courseware/internal/service"
	"github.com/stemsi/courseware/internal/validator"
	"github.com/stemsi/courseware/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Courseware Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	adminRepo := repository.NewAdminRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	batchRepo := repository.NewBatchRepository(pool)
	folderRepo := repository.NewFolderRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	rosterRepo := repository.NewRosterRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)

	// ─── Shared Infrastructure ─────────────────────────────────────────
	publisher := events.NewRedisPublisher(rdb)
	purgeQueue := worker.NewPurgeQueue(rdb)
	folderCache := service.NewRedisFolderCache(rdb, cfg.FolderCacheTTL)
	storage := service.NewStorageService(cfg)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	adminService := service.NewAdminService(adminRepo)
	courseService := service.NewCourseService(courseRepo, batchRepo, folderCache, purgeQueue, log)
	folderService := service.NewFolderService(folderRepo, batchRepo, folderCache, publisher, purgeQueue, log)
	fileService := service.NewFileService(fileRepo, folderRepo, storage, publisher, log)
	rosterService := service.NewRosterService(rosterRepo, studentRepo, batchRepo, publisher, log)
	dashboardService := service.NewDashboardService(dashboardRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, adminService, log),
		Course:    handler.NewCourseHandler(courseService),
		Folder:    handler.NewFolderHandler(folderService, fileService, cfg.MaxUploadBytes),
		Roster:    handler.NewRosterHandler(rosterService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		WS:        handler.NewWSHandler(publisher, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	purgeWorker := worker.NewPurgeWorker(rdb, storage, log)
	purgeDone := make(chan struct{})
	go purgeWorker.Start(workerCtx, purgeDone)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case now := <-ticker.C:
				loginLimiter.Sweep(now)
			}
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, loginLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the purge queue to drain.
	workerCancel()
	select {
	case <-purgeDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Purge worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
