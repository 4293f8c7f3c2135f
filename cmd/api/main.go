// Command api serves the store HTTP API.
//
// @title                       Store API
// @version                     1.0
// @description                 Users, products and purchases.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/storefront/store-api/docs"
	"github.com/storefront/store-api/internal/api"
	"github.com/storefront/store-api/internal/api/handler"
	"github.com/storefront/store-api/internal/api/metrics"
	"github.com/storefront/store-api/internal/core/ports"
	"github.com/storefront/store-api/internal/core/service"
	"github.com/storefront/store-api/internal/infrastructure/config"
	mongostore "github.com/storefront/store-api/internal/infrastructure/db/mongo"
	"github.com/storefront/store-api/internal/infrastructure/db/postgres"
	redisstore "github.com/storefront/store-api/internal/infrastructure/db/redis"
	"github.com/storefront/store-api/internal/infrastructure/messaging/kafka"
	"github.com/storefront/store-api/internal/infrastructure/queue"
	"github.com/storefront/store-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "store-api",
	})
	log.Info().
		Str("env", cfg.Env).
		Str("store", cfg.Store.Driver).
		Str("tx_mode", cfg.Store.TxMode).
		Msg("starting")

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("store-api stopped")
	}
	log.Info().Msg("store-api stopped")
}

// backend is the persistence layer selected by STORE_DRIVER.
type backend struct {
	name     string
	store    ports.PurchaseStore
	products ports.ProductRepository
	tx       ports.PurchaseTxRunner
	ping     handler.PingFunc
	close    func(context.Context)
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// cleanups run in reverse registration order once the server has stopped.
	var cleanups []func(context.Context)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](shutdownCtx)
		}
	}()

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, be.close)

	readiness := map[string]handler.Pinger{be.name: be.ping}

	var purchaseOpts []service.PurchaseOption
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, idempotency keys disabled")
	} else {
		purchaseOpts = append(purchaseOpts, service.WithIdempotency(redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)))
		readiness["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		cleanups = append(cleanups, func(context.Context) {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("close redis")
			}
		})
	}

	var publisher ports.PurchaseEventPublisher = kafka.NewLogPublisher(logger.Component("events"))
	if cfg.Kafka.Brokers != "" {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		publisher = producer
		cleanups = append(cleanups, func(ctx context.Context) {
			if err := producer.Close(ctx); err != nil {
				log.Error().Err(err).Msg("close kafka producer")
			}
		})
		log.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing purchase events to kafka")
	}

	// Workers outlive the signal so Close can drain what is already queued.
	dispatcher := queue.NewDispatcher(cfg.Kafka.Workers, publisher, metrics.EventRecorder{}, logger.Component("dispatcher"))
	dispatcher.Start(context.WithoutCancel(ctx))
	cleanups = append(cleanups, func(context.Context) { dispatcher.Close() })
	purchaseOpts = append(purchaseOpts, service.WithEventQueue(dispatcher))

	authService := service.NewAuthService(be.store.Users, cfg.JWTSecret, cfg.JWTTTL, logger.Component("auth"))
	productService := service.NewProductService(be.products, logger.Component("products"))
	purchaseService := service.NewPurchaseService(be.store, be.tx, logger.Component("purchases"), purchaseOpts...)

	router := api.NewRouter(api.Dependencies{
		AuthService:     authService,
		ProductService:  productService,
		PurchaseService: purchaseService,
		Readiness:       readiness,
		JWTSecret:       cfg.JWTSecret,
		RequestTimeout:  cfg.HTTP.RequestTimeout,
		Logger:          logger.Component("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	if cfg.Store.Driver == config.StoreMongo {
		return openMongo(ctx, cfg, log)
	}
	return openPostgres(ctx, cfg, log)
}

func openPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	pool, err := postgres.NewPool(ctx, postgres.Config{
		URL:      cfg.Postgres.URL,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, postgres.Up, logger.Component("migrate")); err != nil {
			pool.Close()
			return nil, err
		}
	}

	var tx ports.PurchaseTxRunner = postgres.NewAutoCommitRunner(pool)
	if cfg.AtomicPurchases() {
		tx = postgres.NewTxRunner(pool)
	}
	log.Info().Bool("atomic", tx.Atomic()).Msg("postgres connected")

	return &backend{
		name:     "postgres",
		store:    postgres.Store(pool),
		products: postgres.NewProductRepository(pool),
		tx:       tx,
		ping:     pool.Ping,
		close:    func(context.Context) { pool.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return nil, err
	}
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	// Session transactions need a replica set or sharded cluster.
	var tx ports.PurchaseTxRunner = mongostore.NewDirectRunner(db)
	if cfg.AtomicPurchases() {
		tx = mongostore.NewSessionTxRunner(client, db)
	}
	log.Info().Bool("atomic", tx.Atomic()).Str("database", cfg.Mongo.Database).Msg("mongo connected")

	return &backend{
		name:     "mongodb",
		store:    mongostore.Store(db),
		products: mongostore.NewProductRepository(db),
		tx:       tx,
		ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("disconnect mongo")
			}
		},
	}, nil
}
