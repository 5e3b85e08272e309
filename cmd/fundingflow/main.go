package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"fundingflow/config"
	"fundingflow/internal/aggregator"
	"fundingflow/internal/cache"
	"fundingflow/internal/exchange"
	"fundingflow/internal/scheduler"
	"fundingflow/internal/server"
	"fundingflow/internal/store"
	"fundingflow/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Fundingflow.Name,
		"version": cfg.Fundingflow.Version,
	}).Info("starting fundingflow")

	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cacheStore cache.Store
	var redisStore *cache.RedisStore
	redisStore, err = cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, using in-memory cache")
		cacheStore = cache.NewMemoryStore()
		redisStore = nil
	} else {
		cacheStore = redisStore
		defer redisStore.Close()
	}

	var persist aggregator.Persistence
	var pg *store.Postgres
	pg, err = store.NewPostgres(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Warn("postgres unavailable, rates will not be persisted")
		pg = nil
	} else {
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.WithError(err).Error("failed to ensure database schema")
			os.Exit(1)
		}
		persist = pg
	}

	registry := exchange.NewRegistry(exchange.Credentials{
		LighterAPIKey:        cfg.Exchanges.Lighter.APIKey,
		AsterAPIKey:          cfg.Exchanges.Aster.APIKey,
		AsterAPISecret:       cfg.Exchanges.Aster.APISecret,
		VariationalAPIKey:    cfg.Exchanges.Variational.APIKey,
		VariationalAPISecret: cfg.Exchanges.Variational.APISecret,
		EdgexAPIKey:          cfg.Exchanges.EdgeX.APIKey,
		GrvtAPIKey:           cfg.Exchanges.Grvt.APIKey,
	})

	engine := aggregator.NewEngine(registry, cacheStore, persist, cfg.Redis.TTL())

	sched := scheduler.New()
	sched.Start(ctx, "funding-rates", cfg.Fetch.Interval, func(ctx context.Context) {
		engine.FetchAll(ctx)
	})

	opts := server.Options{Version: cfg.Fundingflow.Version}
	if redisStore != nil {
		opts.RedisPing = redisStore.Ping
	}
	if pg != nil {
		opts.DBPing = pg.Ping
	}

	srv := server.New(engine, opts)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, cfg.Server.Address); err != nil {
			log.WithError(err).Error("http server exited")
			cancel()
		}
	}()

	<-ctx.Done()
	log.WithComponent("main").Info("shutting down")

	sched.StopAll()
	wg.Wait()

	log.WithComponent("main").Info("shutdown complete")
}
