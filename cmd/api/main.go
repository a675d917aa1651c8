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

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/api/http/handlers"
	"github.com/siteops/alertdesk/internal/app"
	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/observability"
	"github.com/siteops/alertdesk/internal/persistence"
	"github.com/siteops/alertdesk/internal/realtime"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/repository/memory"
	"github.com/siteops/alertdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	health := map[string]handlers.Pinger{}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repository.Set
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresSet(pool)
		health["postgres"] = pg
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
		repos = memory.NewSet()
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		health["redis"] = redis
		if err != nil {
			logger.Warn("realtime events will be delivered in-process only", zap.Error(err))
		} else {
			redisClient = redis.Client
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.RefreshTokenTTLMinutes)

	opts := app.Options{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Repos:        repos,
		TokenManager: tokens,
		Health:       health,
	}

	var (
		hub      *realtime.Hub
		wsServer *http.Server
	)
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(auth.NewAuthMiddleware(tokens, repos.Users), logger, metrics)
		bus := realtime.NewBus(redisClient, cfg.Realtime.Channel, hub, logger)
		opts.Publisher = bus
		opts.Pusher = bus

		go func() {
			if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("realtime bus stopped", zap.Error(err))
			}
		}()

		wsServer = realtime.NewServer(cfg.Realtime.Addr(), hub)
		go func() {
			logger.Info("realtime gateway listening", zap.String("addr", cfg.Realtime.Addr()))
			if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("realtime listen", zap.Error(err))
			}
		}()
	}

	application := app.New(opts)

	if cfg.Auth.BootstrapAdminEmail != "" {
		if err := application.Auth.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	sweeper := worker.NewSLASweeper(application.Engine, application.Dispatcher, logger, time.Minute)
	scheduler, err := worker.StartSLASweep(ctx, sweeper, cfg.SLA.SweepSchedule)
	if err != nil {
		logger.Fatal("failed to schedule sla sweep", zap.Error(err))
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := application.Fiber.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	<-scheduler.Stop().Done()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if wsServer != nil {
		_ = wsServer.Shutdown(shutdownCtx)
		hub.Close()
	}
	_ = application.Fiber.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
