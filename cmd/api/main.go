package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/cortexdesk/cortexdesk/internal/api/http"
	"github.com/cortexdesk/cortexdesk/internal/api/http/handlers"
	"github.com/cortexdesk/cortexdesk/internal/auth"
	"github.com/cortexdesk/cortexdesk/internal/config"
	"github.com/cortexdesk/cortexdesk/internal/engine"
	"github.com/cortexdesk/cortexdesk/internal/events"
	"github.com/cortexdesk/cortexdesk/internal/observability"
	"github.com/cortexdesk/cortexdesk/internal/persistence"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/internal/service"
	"github.com/cortexdesk/cortexdesk/internal/worker"
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

	slaPolicy, err := cfg.Sla.Policy()
	if err != nil {
		logger.Fatal("invalid sla policy", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: userRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		UserRepo:     userRepo,
		HistoryRepo:  historyRepo,
		Machine:      engine.NewStateMachine(slaPolicy),
		Dispatcher:   dispatcher,
	})
	categoryService := service.NewCategoryService(categoryRepo)
	escalationService := service.NewEscalationService(ticketService, categoryRepo, dispatcher, logger, cfg.Escalation.DefaultCategoryName)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	slaMonitor := worker.NewSlaMonitor(worker.SlaMonitorDependencies{
		TicketRepo: ticketRepo,
		Policy:     slaPolicy,
		Dispatcher: dispatcher,
		Redis:      redis,
		Metrics:    metrics,
		Logger:     logger,
		Interval:   cfg.Sla.MonitorInterval(),
	})
	if err := slaMonitor.Start(ctx); err != nil {
		logger.Fatal("failed to start sla monitor", zap.Error(err))
	}
	defer slaMonitor.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		Escalations:    handlers.NewEscalationsHandler(escalationService, ticketService),
		AuthMiddleware: authMiddleware,
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
