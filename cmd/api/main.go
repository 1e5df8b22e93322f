package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/deptevents/event-registration/internal/api/http"
	"github.com/deptevents/event-registration/internal/api/http/handlers"
	"github.com/deptevents/event-registration/internal/auth"
	"github.com/deptevents/event-registration/internal/config"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/i18n"
	"github.com/deptevents/event-registration/internal/observability"
	"github.com/deptevents/event-registration/internal/persistence"
	"github.com/deptevents/event-registration/internal/repository"
	"github.com/deptevents/event-registration/internal/service"
	"github.com/deptevents/event-registration/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	loc, err := cfg.App.Location()
	if err != nil {
		logger.Fatal("failed to load timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Timezone, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pingers := map[string]handlers.Pinger{"postgres": pg}
	var limiterStorage fiber.Storage
	if redis.Enabled() {
		pingers["redis"] = redis
		limiterStorage = persistence.NewLimiterStorage(redis, "ratelimit:")
	}

	translator, err := i18n.NewTranslator(cfg.App.DefaultLocale, logger)
	if err != nil {
		logger.Fatal("failed to load translations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	participationRepo := repository.NewParticipationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		TokenRepo:  tokenRepo,
		Dispatcher: dispatcher,
	})
	userService := service.NewUserService(userRepo)
	eventService := service.NewEventService(*cfg, service.EventDependencies{
		EventRepo:  eventRepo,
		Dispatcher: dispatcher,
		Location:   loc,
		Logger:     logger,
	})
	participationService := service.NewParticipationService(service.ParticipationDependencies{
		EventRepo:         eventRepo,
		ParticipationRepo: participationRepo,
		Dispatcher:        dispatcher,
		Recorder:          metrics,
		Location:          loc,
		Logger:            logger,
	})
	notificationService := service.NewNotificationService(dispatcher, translator, logger, cfg.Notification)
	sweeper := worker.NewFinishSweeper(eventService, cfg.Schedule.SweepInterval(), logger)
	waitWorkers := worker.Start(ctx, notificationService, sweeper)

	cookie := auth.NewSessionCookie(
		cfg.Auth.CookieName,
		cfg.Auth.CookieHashKey,
		cfg.Auth.CookieBlockKey,
		authService.TokenManager().TTL(),
		cfg.Auth.CookieSecure,
	)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), cookie, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pingers, metrics),
		Auth:           handlers.NewAuthHandler(authService, cookie),
		Users:          handlers.NewUsersHandler(userService, participationService),
		Events:         handlers.NewEventsHandler(eventService, participationService, translator),
		Pages:          handlers.NewPagesHandler(eventService, translator),
		AuthMiddleware: authMiddleware,
		RateLimiter:    httptransport.RateLimiter(cfg.RateLimit, limiterStorage),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.Shutdown(); err != nil {
		logger.Error("fiber shutdown", zap.Error(err))
	}
	waitWorkers()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
