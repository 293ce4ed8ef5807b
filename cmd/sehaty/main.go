package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/sehaty-app/sehaty/internal/app"
	"github.com/sehaty-app/sehaty/internal/appointments"
	"github.com/sehaty-app/sehaty/internal/auth"
	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/categories"
	"github.com/sehaty-app/sehaty/internal/contact"
	"github.com/sehaty-app/sehaty/internal/deliveries"
	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/notifications"
	"github.com/sehaty-app/sehaty/internal/observability"
	"github.com/sehaty-app/sehaty/internal/orders"
	"github.com/sehaty-app/sehaty/internal/platform/cache"
	"github.com/sehaty-app/sehaty/internal/platform/db"
	"github.com/sehaty-app/sehaty/internal/products"
	"github.com/sehaty-app/sehaty/internal/providers"
	"github.com/sehaty-app/sehaty/internal/rbac"
	"github.com/sehaty-app/sehaty/internal/services"
	"github.com/sehaty-app/sehaty/internal/users"
	"github.com/sehaty-app/sehaty/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, logger)
	if err := rbac.Provision(ctx, rbacRepo, logger); err != nil {
		logger.Error("provision rbac", slog.Any("error", err))
		os.Exit(1)
	}

	registry := authz.NewRegistry()
	gate := authz.Middleware{
		Gate:     authz.NewGate(rbacService),
		Registry: registry,
		Logger:   logger,
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	negotiator := i18n.NewNegotiator(i18n.NewStore(pool))
	metrics := observability.NewMetrics()

	asynqClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	mailer := jobs.NewQueueMailer(asynqClient, logger)

	// Domain modules notify through the queue; the worker writes the
	// rows. The in-process service only backs the read endpoints.
	notifier := jobs.NewQueueNotifier(asynqClient, logger)
	notificationsService := notifications.NewService(notifications.NewRepository(pool), logger)

	authService := auth.NewService(auth.NewRepository(pool), tokens, mailer, rbacService, logger, cfg.AuthCodeTTL)
	usersService := users.NewService(users.NewRepository(pool), logger)

	categoryCache := categories.NewCache(redisClient, cfg.CategoryCacheTTL)
	categoriesService := categories.NewService(categories.NewRepository(pool), categoryCache, logger)

	providersService := providers.NewService(providers.NewRepository(pool), notifier, logger)
	productsService := products.NewService(products.NewRepository(pool), providersService, logger)
	servicesManager := services.NewManager(services.NewRepository(pool), providersService, logger)
	ordersService := orders.NewService(orders.NewRepository(pool), providersService, notifier, logger)
	deliveriesService := deliveries.NewService(deliveries.NewRepository(pool), providersService, notifier, logger)
	appointmentsService := appointments.NewService(appointments.NewRepository(pool), providersService, notifier, logger)
	contactService := contact.NewService(contact.NewRepository(pool), logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Tokens:     tokens,
		Negotiator: negotiator,
		Gate:       gate,
		Metrics:    metrics,

		AuthHandler:          auth.NewHandler(authService),
		UsersHandler:         users.NewHandler(usersService),
		RBACHandler:          rbac.NewHandler(rbacService),
		CategoriesHandler:    categories.NewHandler(categoriesService),
		ProvidersHandler:     providers.NewHandler(providersService),
		ProductsHandler:      products.NewHandler(productsService),
		ServicesHandler:      services.NewHandler(servicesManager),
		OrdersHandler:        orders.NewHandler(ordersService),
		DeliveriesHandler:    deliveries.NewHandler(deliveriesService),
		AppointmentsHandler:  appointments.NewHandler(appointmentsService),
		NotificationsHandler: notifications.NewHandler(notificationsService),
		ContactHandler:       contact.NewHandler(contactService),
		JobsHandler:          jobs.NewHandler(inspector, logger),
	})

	// Mounting registered every gated resource; refuse to start if any
	// maps to codenames missing from the catalog.
	if err := registry.Validate(ctx, rbacService); err != nil {
		logger.Error("authz catalog validation", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		// Drops stale category trees when another instance bumps the
		// cache version.
		if err := categoryCache.ListenForInvalidation(groupCtx); err != nil && groupCtx.Err() == nil {
			logger.Warn("category cache listener", slog.Any("error", err))
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
