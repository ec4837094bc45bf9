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

	httptransport "github.com/spec-kit/citizen-request-service/internal/api/http"
	"github.com/spec-kit/citizen-request-service/internal/api/http/handlers"
	"github.com/spec-kit/citizen-request-service/internal/auth"
	"github.com/spec-kit/citizen-request-service/internal/cache"
	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/observability"
	"github.com/spec-kit/citizen-request-service/internal/persistence"
	"github.com/spec-kit/citizen-request-service/internal/repository"
	"github.com/spec-kit/citizen-request-service/internal/service"
	"github.com/spec-kit/citizen-request-service/internal/worker"
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

	pool := pg.PoolHandle()
	requestRepo := repository.NewRequestRepository(pool)
	courierRepo := repository.NewCourierRepository(pool)
	audienceRepo := repository.NewAudienceRepository(pool)
	linkRepo := repository.NewLinkRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	sequenceRepo := repository.NewSequenceRepository(pool)
	citizenRepo := repository.NewCitizenAccountRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	requestCache := cache.NewRequestCache(redis.Client, time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second, logger)

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		RequestRepo:      requestRepo,
		CourierRepo:      courierRepo,
		SequenceRepo:     sequenceRepo,
		Dispatcher:       dispatcher,
		Config:           cfg.Notification,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:     requestRepo,
		AgentRepo:       agentRepo,
		SequenceRepo:    sequenceRepo,
		NotificationSvc: notificationService,
		Dispatcher:      dispatcher,
		Cache:           requestCache,
		Workflows:       cfg.Workflow,
		SLA:             cfg.SLA,
	})
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		RequestRepo:     requestRepo,
		NotificationSvc: notificationService,
		Dispatcher:      dispatcher,
		Cache:           requestCache,
	})
	linkService := service.NewLinkService(service.LinkDependencies{
		LinkRepo:     linkRepo,
		RequestRepo:  requestRepo,
		CourierRepo:  courierRepo,
		AudienceRepo: audienceRepo,
	})
	courierService := service.NewCourierService(service.CourierDependencies{
		CourierRepo:     courierRepo,
		LinkRepo:        linkRepo,
		SequenceRepo:    sequenceRepo,
		NotificationSvc: notificationService,
		Dispatcher:      dispatcher,
	})
	audienceService := service.NewAudienceService(service.AudienceDependencies{
		AudienceRepo: audienceRepo,
		LinkRepo:     linkRepo,
		SequenceRepo: sequenceRepo,
	})
	bulkService := service.NewBulkService(service.BulkDependencies{
		RequestSvc:      requestService,
		CourierSvc:      courierService,
		AudienceSvc:     audienceService,
		NotificationSvc: notificationService,
		Dispatcher:      dispatcher,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo:       citizenRepo,
		AgentRepo:         agentRepo,
		PasswordResetRepo: resetRepo,
	})
	deliveryService := service.NewDeliveryService(dispatcher, logger, cfg.Notification)
	worker.StartDeliveryWorker(deliveryService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), citizenRepo, agentRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:       handlers.NewAccountsHandler(authService),
		Agents:         handlers.NewAgentsHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService, workflowService, linkService),
		Couriers:       handlers.NewCouriersHandler(courierService, linkService),
		Audiences:      handlers.NewAudiencesHandler(audienceService, linkService),
		Notifications:  handlers.NewNotificationsHandler(notificationService, requestService),
		Bulk:           handlers.NewBulkHandler(bulkService),
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
