package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/wsr-notifier/internal/config"
	"github.com/kursadbilgin/wsr-notifier/internal/handler"
	"github.com/kursadbilgin/wsr-notifier/internal/infra/postgresql"
	"github.com/kursadbilgin/wsr-notifier/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/wsr-notifier/internal/infra/redis"
	"github.com/kursadbilgin/wsr-notifier/internal/observability"
	"github.com/kursadbilgin/wsr-notifier/internal/provider"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
	"github.com/kursadbilgin/wsr-notifier/internal/service"
	"github.com/kursadbilgin/wsr-notifier/internal/transport"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("wsr-notifier exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	metrics := observability.NewMetrics()

	pushProvider, err := provider.NewWebPushProvider(provider.VAPIDConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
	}, cfg.PushTTL(), cfg.PushTimeout())
	if err != nil {
		return fmt.Errorf("push provider initialization failed: %w", err)
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.PushRateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	runLocker, err := infraredis.NewRedisRunLocker(rdb)
	if err != nil {
		return fmt.Errorf("run locker initialization failed: %w", err)
	}

	employeeRepo := repository.NewGormEmployeeRepo(db)
	reportRepo := repository.NewGormReportRepo(db)

	dispatcher, err := service.NewDispatcher(pushProvider, employeeRepo, rateLimiter, logger)
	if err != nil {
		return fmt.Errorf("dispatcher initialization failed: %w", err)
	}
	dispatcher.SetMetrics(metrics)

	selector, err := service.NewRecipientSelector(employeeRepo, reportRepo)
	if err != nil {
		return fmt.Errorf("recipient selector initialization failed: %w", err)
	}

	runner, err := service.NewJobRunner(selector, dispatcher, runLocker, cfg.DispatchConcurrency, cfg.JobLockTTL(), logger)
	if err != nil {
		return fmt.Errorf("job runner initialization failed: %w", err)
	}
	runner.SetMetrics(metrics)

	employeeService, err := service.NewEmployeeService(employeeRepo, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("employee service initialization failed: %w", err)
	}

	var scheduler *service.Scheduler
	if cfg.SchedulerEnabled {
		scheduler, err = service.NewScheduler(runner, cfg.Location(), service.DefaultTriggers(), logger)
		if err != nil {
			return fmt.Errorf("scheduler initialization failed: %w", err)
		}
		scheduler.Start()
	} else {
		logger.Warn("scheduler disabled, jobs run on demand only")
	}

	app := fiber.New(fiber.Config{
		AppName:               "wsr-notifier",
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, handler.PostgresCheck(sqlDB), handler.RedisCheck(rdb))
	if err := handler.RegisterAdminRoutes(app, cfg.AdminAPIToken, runner, employeeService); err != nil {
		return fmt.Errorf("admin routes registration failed: %w", err)
	}
	if err := handler.RegisterSelfServiceRoutes(app, employeeService); err != nil {
		return fmt.Errorf("self-service routes registration failed: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("wsr-notifier api started",
			zap.Int("port", cfg.APIPort),
			zap.Bool("scheduler", cfg.SchedulerEnabled),
			zap.String("timezone", cfg.Location().String()),
		)
		serverErr <- app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}

	logger.Info("wsr-notifier api stopped")
	return runErr
}
