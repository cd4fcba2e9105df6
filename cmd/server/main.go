package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/refonic/inventory/internal/api"
	"github.com/refonic/inventory/internal/api/metrics"
	"github.com/refonic/inventory/internal/infrastructure/config"
	"github.com/refonic/inventory/internal/infrastructure/db/redis"
	"github.com/refonic/inventory/internal/infrastructure/db/sqlstore"
	"github.com/refonic/inventory/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Refonic Inventory API
// @version      1.0
// @description  Phone inventory: products, barcode scan, sales and receipts.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		URL:             cfg.Database.URL,
		SQLitePath:      cfg.Database.SQLitePath,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("engine", db.Dialect().Name()).Msg("store connected")

	report, err := sqlstore.Migrate(ctx, db, sqlstore.MigrateOptions{
		DefaultPassword: cfg.Auth.DefaultPassword,
		Logger:          log,
	})
	if err != nil {
		return err
	}
	metrics.MigrationsTotal.WithLabelValues("applied").Add(float64(len(report.Applied)))
	metrics.MigrationsTotal.WithLabelValues("adopted").Add(float64(len(report.Adopted)))
	metrics.MigrationsTotal.WithLabelValues("failed").Add(float64(len(report.Failed)))

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Dial(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info().Str("addr", rdb.Options().Addr).Int("db", rdb.Options().DB).Msg("redis connected, login rate limiting enabled")
	}

	e := api.NewRouter(api.Deps{
		DB:     db,
		Redis:  rdb,
		Config: cfg,
		Logger: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
