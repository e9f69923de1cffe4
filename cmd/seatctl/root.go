package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/seat-planner/internal/config"
	"github.com/iliyamo/seat-planner/internal/database"
	"github.com/iliyamo/seat-planner/internal/logging"
	"github.com/iliyamo/seat-planner/internal/middleware"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/service"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "seatctl",
		Short:        "Operator tools for the seat planner database",
		SilenceUsage: true,
	}
	cmd.AddCommand(newImportCmd(), newLayoutCmd(), newExportCmd(), newHashPasswordCmd())
	return cmd
}

// connect opens the configured database and builds a service over it,
// wired like the server: events are published when enabled and every
// change bumps the server's layout cache generation.  The returned func
// releases the connections.
func connect(ctx context.Context) (*service.Service, func(), error) {
	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)
	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{db.Close}
	done := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			done()
			return nil, nil, err
		}
	}

	opts := []service.Option{service.WithLogger(log)}
	if cfg.EventsEnabled {
		opts = append(opts, service.WithEvents(queue.NewPublisher(cfg.RabbitURL)))
	}

	var cache middleware.CacheStore
	cacheCfg := config.LoadCacheConfig()
	if cacheCfg.Enabled {
		rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			log.WithError(err).Warn("redis unavailable; the server's cached layout expires after " + cacheCfg.TTL.String())
		} else {
			cache = rdb
			closers = append(closers, rdb.Close)
		}
	}
	opts = append(opts, cacheOptions(cacheCfg, cache, log)...)

	return service.New(repository.NewSQLStore(db), opts...), done, nil
}

// cacheOptions registers the layout cache invalidator when a cache store
// is available.
func cacheOptions(cfg config.CacheConfig, store middleware.CacheStore, log logrus.FieldLogger) []service.Option {
	if !cfg.Enabled || store == nil {
		return nil
	}
	return []service.Option{service.WithChangeListener(middleware.NewLayoutInvalidator(cfg, store, log))}
}
