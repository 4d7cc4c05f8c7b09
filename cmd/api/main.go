package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/rolliedev/ticketflow/internal/api/http"
	"github.com/rolliedev/ticketflow/internal/api/http/handlers"
	"github.com/rolliedev/ticketflow/internal/auth"
	"github.com/rolliedev/ticketflow/internal/config"
	"github.com/rolliedev/ticketflow/internal/domain"
	"github.com/rolliedev/ticketflow/internal/events"
	"github.com/rolliedev/ticketflow/internal/observability"
	"github.com/rolliedev/ticketflow/internal/persistence"
	"github.com/rolliedev/ticketflow/internal/repository"
	"github.com/rolliedev/ticketflow/internal/service"
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
	userRepo := repository.NewCachedUserRepository(
		repository.NewUserRepository(pool),
		redis.Client,
		cfg.Redis.UserCacheTTL(),
		logger,
	)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	uow := repository.NewPgxUnitOfWork(pool)

	dispatcher := events.NewInMemoryDispatcher()
	subscribeAuditLog(dispatcher, logger)

	eventService := service.NewEventService(eventRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		UserRepo:   userRepo,
		TicketRepo: ticketRepo,
		Events:     eventService,
		UnitOfWork: uow,
		Dispatcher: dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		Events:      eventService,
		UnitOfWork:  uow,
		Dispatcher:  dispatcher,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	userService := service.NewUserService(userRepo, tokenManager, cfg.Auth.BcryptCost)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, eventService),
		Comments:       handlers.NewCommentsHandler(commentService),
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

func subscribeAuditLog(dispatcher events.Dispatcher, logger *zap.Logger) {
	handler := func(_ context.Context, n events.Notification) error {
		logger.Info("ticket event",
			zap.String("type", string(n.Type)),
			zap.String("ticket_id", n.TicketID),
			zap.String("actor_id", n.ActorID),
			zap.Any("payload", n.Payload),
		)
		return nil
	}
	for _, eventType := range []domain.EventType{
		domain.EventCreated,
		domain.EventAssigned,
		domain.EventPriorityChanged,
		domain.EventStatusChanged,
		domain.EventCommented,
		domain.EventCommentDeleted,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
