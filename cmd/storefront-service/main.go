package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Cheertaboi/chat-storefront-service/internal/api"
	"github.com/Cheertaboi/chat-storefront-service/internal/api/handlers"
	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
	"github.com/Cheertaboi/chat-storefront-service/internal/concurrency"
	"github.com/Cheertaboi/chat-storefront-service/internal/conversation"
	"github.com/Cheertaboi/chat-storefront-service/internal/repository"
	"github.com/Cheertaboi/chat-storefront-service/internal/service"
	"github.com/Cheertaboi/chat-storefront-service/internal/session"
	"github.com/Cheertaboi/chat-storefront-service/internal/transport"
	"github.com/Cheertaboi/chat-storefront-service/pkg/config"
	"github.com/Cheertaboi/chat-storefront-service/pkg/db"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.NewConnection(cfg.DB)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, cfg.DB.Driver); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// sessions live in redis when configured so restarts keep them
	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
	} else {
		mem := session.NewMemoryStore(cfg.SessionTTL)
		go mem.Run(ctx, time.Minute)
		sessions = mem
	}

	var messenger transport.Messenger
	if cfg.TransportURL != "" {
		messenger = transport.NewWebhookClient(cfg.TransportURL, cfg.TransportToken)
	} else {
		logger.Warn("TRANSPORT_URL not set, outbound messages are only logged")
		messenger = transport.NewLogMessenger(logger)
	}

	// repositories
	products := repository.NewProductRepo(conn)
	carts := repository.NewCartRepo(conn)
	orders := repository.NewOrderRepo(conn)
	methods := repository.NewPaymentMethodRepo(conn)

	// services
	render := chat.NewRenderer(cfg.ExchangeRate)
	catalog := service.NewCatalogService(products, carts, repository.NewContentRepo(conn), methods, repository.NewStatsRepo(conn), logger)
	discounts := service.NewDiscountService(repository.NewDiscountRepo(conn), logger)
	payments := service.NewPaymentService(orders, products, messenger, render, cfg.AdminID, logger)
	checkout := service.NewCheckoutService(conn, products, carts, orders, methods, discounts, payments, logger)

	queue := concurrency.NewUserQueue()
	machine := conversation.NewMachine(conversation.Deps{
		Catalog:   catalog,
		Checkout:  checkout,
		Payments:  payments,
		Sessions:  sessions,
		Queue:     queue,
		Messenger: messenger,
		Render:    render,
		AdminID:   cfg.AdminID,
		Logger:    logger,
	})

	router := api.NewRouter(
		api.RouterConfig{
			AdminID:        cfg.AdminID,
			AdminJWTSecret: cfg.AdminJWTSecret,
			GatewaySecret:  cfg.GatewaySecret,
			EventRate:      cfg.EventRate,
			EventBurst:     cfg.EventBurst,
		},
		handlers.NewEventsHandler(machine, logger),
		handlers.NewAdminHandler(catalog, discounts, payments, logger),
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", zap.Error(err))
		}
		queue.Close()
		close(idleConnsClosed)
	}()

	logger.Info("starting storefront-service",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("db_driver", cfg.DB.Driver),
		zap.Bool("redis_sessions", cfg.RedisAddr != ""),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen", zap.Error(err))
	}

	<-idleConnsClosed
	logger.Info("server stopped")
}
