package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	notificationapp "github.com/storefront/backend/internal/application/notification"
	orderapp "github.com/storefront/backend/internal/application/order"
	returnsapp "github.com/storefront/backend/internal/application/returns"
	supportapp "github.com/storefront/backend/internal/application/support"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/invoicing"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithGormLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	// Redis backs the notification fan-out and the idempotency stores.
	// When it is unreachable the server still starts: notifications fall
	// back to the in-process broker and idempotency to the in-memory
	// store, which is fine for a single instance.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisAvailable := true
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, using in-process fallbacks", zap.Error(err))
			redisAvailable = false
		}
		cancel()
	}
	defer redisClient.Close()

	// Repositories with transactional outbox
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	orderRepo.SetOutboxEventSaver(outboxPublisher)
	returnRepo := persistence.NewGormReturnRequestRepository(db.DB)
	returnRepo.SetOutboxEventSaver(outboxPublisher)
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	ticketRepo.SetOutboxEventSaver(outboxPublisher)

	// Application services
	orderService := orderapp.NewOrderService(orderRepo, log)
	if redisAvailable {
		orderService.SetIdempotencyStore(cache.NewRedisIdempotencyStore(redisClient, "idempotency:request"))
	} else {
		orderService.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore())
	}
	returnService := returnsapp.NewReturnService(returnRepo, orderRepo, cfg.Returns.WindowDays, log)
	ticketService := supportapp.NewTicketService(ticketRepo, log)

	// Notification broker and websocket hub
	var notifier notification.Notifier
	var subscriber notification.Subscriber
	if redisAvailable {
		broker := notification.NewRedisBroker(redisClient, log,
			notification.WithChannelPrefix(cfg.Notification.ChannelPrefix),
			notification.WithSendTimeout(cfg.Notification.SendTimeout),
		)
		notifier = broker
		subscriber = broker
	} else {
		local := notification.NewLocalBroker()
		defer local.Close()
		notifier = local
		subscriber = local
	}
	hub := notification.NewHub(subscriber, log)
	defer hub.Close()

	// Collaborator clients
	invoicingClient := newInvoicingClient(cfg, log)
	paymentClient := newPaymentClient(cfg, log)

	// Event bus, handlers and the outbox processor
	eventBus := event.NewInMemoryEventBus(log)
	handlers := []shared.EventHandler{
		orderapp.NewInvoiceHandler(invoicingClient, log),
		orderapp.NewRefundHoldHandler(paymentClient, log),
		returnsapp.NewReturnCompletedHandler(orderService, log),
		notificationapp.NewFanoutHandler(notifier, log),
	}
	var handlerStore shared.IdempotencyStore
	if redisAvailable {
		handlerStore = cache.NewRedisIdempotencyStore(redisClient, "idempotency:event")
	} else {
		handlerStore = cache.NewInMemoryIdempotencyStore()
	}
	for _, h := range event.WrapHandlersWithIdempotency(handlers, handlerStore, log) {
		eventBus.Subscribe(h, h.EventTypes()...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}

	processorConfig := event.OutboxProcessorConfig{
		BatchSize:        cfg.Event.BatchSize,
		PollInterval:     cfg.Event.PollInterval,
		CleanupEnabled:   cfg.Event.CleanupEnabled,
		CleanupRetention: cfg.Event.CleanupRetention,
		CleanupInterval:  time.Hour,
	}
	processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, log)
	if cfg.Event.ProcessorEnabled {
		if err := processor.Start(ctx); err != nil {
			log.Fatal("failed to start outbox processor", zap.Error(err))
		}
	} else {
		log.Warn("outbox processor disabled, stored events will not be delivered")
	}

	// HTTP layer
	jwtService := auth.NewJWTService(cfg.JWT)
	engine := router.New(router.Config{
		JWTService:  jwtService,
		CORSOrigins: cfg.HTTP.CORSAllowOrigins,
		Logger:      log,
		Health:      handler.NewHealthHandler(version),
		Orders:      handler.NewOrderHandler(orderService),
		Returns:     handler.NewReturnHandler(returnService),
		Tickets:     handler.NewTicketHandler(ticketService),
		Stream:      handler.NewStreamHandler(hub, nil, log),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if cfg.Event.ProcessorEnabled {
			if err := processor.Stop(shutdownCtx); err != nil {
				log.Error("error stopping outbox processor", zap.Error(err))
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server exited gracefully")
}

func newInvoicingClient(cfg *config.Config, log *zap.Logger) invoicing.Client {
	if cfg.Invoicing.BaseURL == "" {
		return invoicing.NewNoopClient(log)
	}
	client, err := invoicing.NewHTTPClient(&invoicing.Config{
		BaseURL: cfg.Invoicing.BaseURL,
		APIKey:  cfg.Invoicing.APIKey,
		Timeout: cfg.Invoicing.Timeout,
	}, log)
	if err != nil {
		log.Fatal("invalid invoicing configuration", zap.Error(err))
	}
	return client
}

func newPaymentClient(cfg *config.Config, log *zap.Logger) payment.Client {
	if cfg.Payment.BaseURL == "" {
		return payment.NewNoopClient(log)
	}
	client, err := payment.NewHTTPClient(&payment.Config{
		BaseURL: cfg.Payment.BaseURL,
		APIKey:  cfg.Payment.APIKey,
		Timeout: cfg.Payment.Timeout,
	}, log)
	if err != nil {
		log.Fatal("invalid payment configuration", zap.Error(err))
	}
	return client
}
