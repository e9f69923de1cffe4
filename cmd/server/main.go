package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/seat-planner/internal/config"
	"github.com/iliyamo/seat-planner/internal/database"
	"github.com/iliyamo/seat-planner/internal/handler"
	"github.com/iliyamo/seat-planner/internal/logging"
	"github.com/iliyamo/seat-planner/internal/metrics"
	"github.com/iliyamo/seat-planner/internal/middleware"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/router"
	"github.com/iliyamo/seat-planner/internal/service"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
	}

	m := metrics.New(prometheus.NewRegistry())
	opts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}

	// Redis is optional: without it the limiter and the layout cache are
	// simply not mounted.
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	var (
		rateLimit   echo.MiddlewareFunc
		layoutCache echo.MiddlewareFunc
	)
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.WithError(err).Warn("redis unavailable; rate limiting and layout cache disabled")
	} else {
		defer rdb.Close()
		rateLimit = middleware.NewTokenBucket(rlCfg, rdb, log)
		if cacheCfg.Enabled {
			layoutCache = middleware.LayoutCache(cacheCfg, rdb, m, log)
			opts = append(opts, service.WithChangeListener(middleware.NewLayoutInvalidator(cacheCfg, rdb, log)))
		}
	}

	if cfg.EventsEnabled {
		opts = append(opts, service.WithEvents(queue.NewPublisher(cfg.RabbitURL)))
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("seating consumer stopped")
			}
		}()
	}

	svc := service.New(repository.NewSQLStore(db), opts...)

	deps := router.Deps{
		Seating:     handler.NewSeatingHandler(svc, log),
		Health:      handler.NewHealthHandler(db),
		Metrics:     m.Handler(),
		RateLimit:   rateLimit,
		LayoutCache: layoutCache,
	}
	if cfg.AuthEnabled {
		ttl := time.Duration(cfg.AccessTTLMin) * time.Minute
		deps.Auth = handler.NewAuthHandler(cfg.OperatorUser, cfg.OperatorPasswordHash, cfg.JWTSecret, ttl, log)
		deps.JWTSecret = cfg.JWTSecret
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	router.Register(e, deps)

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
