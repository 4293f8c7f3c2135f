// Command migrate applies or rolls back the embedded PostgreSQL migrations.
//
//	migrate -direction up
//	migrate -direction down
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/storefront/store-api/internal/infrastructure/config"
	"github.com/storefront/store-api/internal/infrastructure/db/postgres"
	"github.com/storefront/store-api/pkg/logger"
)

func main() {
	direction := flag.String("direction", string(postgres.Up), "migration direction: up or down")
	flag.Parse()

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
		Service: "store-migrate",
	})

	pool, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: 2})
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, postgres.Direction(*direction), log); err != nil {
		pool.Close()
		log.Fatal().Err(err).Str("direction", *direction).Msg("migration failed")
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}
