package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/trafficwatch/problem-service/internal/api/http"
	"github.com/trafficwatch/problem-service/internal/api/http/handlers"
	"github.com/trafficwatch/problem-service/internal/auth"
	"github.com/trafficwatch/problem-service/internal/config"
	"github.com/trafficwatch/problem-service/internal/events"
	"github.com/trafficwatch/problem-service/internal/observability"
	"github.com/trafficwatch/problem-service/internal/persistence"
	"github.com/trafficwatch/problem-service/internal/report"
	"github.com/trafficwatch/problem-service/internal/repository"
	"github.com/trafficwatch/problem-service/internal/service"
	"github.com/trafficwatch/problem-service/internal/storage"
	"github.com/trafficwatch/problem-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init upload storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(*cfg, userRepo)
	problemService := service.NewProblemService(problemRepo, dispatcher)
	reportGenerator := report.NewGenerator(problemRepo, store, cfg.Report, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Storage.MaxUploadBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		ExposeDetails:  !cfg.App.IsProduction(),
	})

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	usersHandler := handlers.NewUsersHandler(authService)
	problemsHandler := handlers.NewProblemsHandler(problemService)
	reportsHandler := handlers.NewReportsHandler(reportGenerator)
	uploadsHandler := handlers.NewUploadsHandler(store)

	redisClient := redis.ClientHandle()
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          usersHandler,
		Problems:       problemsHandler,
		Reports:        reportsHandler,
		Uploads:        uploadsHandler,
		AuthMiddleware: authMiddleware,
		UploadsDir:     store.Dir(),
		CreateLimiter:  httptransport.RateLimiter(redisClient, "ratelimit:problems", cfg.RateLimit.ProblemsPerDay, 24*time.Hour),
		ReportLimiter:  httptransport.RateLimiter(redisClient, "ratelimit:reports", cfg.RateLimit.ReportsPerDay, 24*time.Hour),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
