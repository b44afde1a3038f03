package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.MustNew("storefront", cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront_exited", zap.Error(err))
	}
	log.Info("server_exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	// Database setup
	repo, err := repository.NewRepository(&repository.Credentials{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		DBName:   cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database_migrations_completed")

	// Session cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	sessions := cache.NewRedisCache(rdb, cfg.SessionTTL)

	m := metrics.New(prometheus.DefaultRegisterer)

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.Stripe.Currency,
		BackendURL:    cfg.Stripe.BackendURL,
	}, log)

	accounts := service.NewAccountService(repo)
	if cfg.AdminUsername != "" {
		if err := accounts.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	checkout := service.NewCheckoutService(repo, repo, gateway, service.RedirectURLs{
		Success: cfg.BaseURL + "/user_orders?session_id={CHECKOUT_SESSION_ID}",
		Cancel:  cfg.BaseURL + "/user_orders",
	}, m)

	handler := h.NewHandler(
		service.NewCatalogService(repo),
		service.NewCartService(repo),
		checkout,
		service.NewFulfillmentService(repo, m),
		accounts,
		h.NewSessionManager(sessions, cfg.SessionSecure, cfg.SessionTTL),
	)
	router := h.NewRouter(handler, h.RouterConfig{
		Logger:             log,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Metrics:            promhttp.Handler(),
		Ready: func(ctx context.Context) error {
			if err := repo.Ping(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	var wg sync.WaitGroup
	if cfg.OutboxEnabled() {
		poller := publisher.NewOutboxPoller(repo, m, cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
		log.Info("outbox_relay_started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	wg.Wait()
	return nil
}
