package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cms_admin/internal/cache"
	"github.com/Skotchmaster/cms_admin/internal/config"
	"github.com/Skotchmaster/cms_admin/internal/db"
	"github.com/Skotchmaster/cms_admin/internal/events"
	"github.com/Skotchmaster/cms_admin/internal/graphql"
	"github.com/Skotchmaster/cms_admin/internal/logging"
	"github.com/Skotchmaster/cms_admin/internal/repo"
	"github.com/Skotchmaster/cms_admin/internal/search"
	"github.com/Skotchmaster/cms_admin/internal/service"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
	httpserver "github.com/Skotchmaster/cms_admin/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			slog.Error("config_error", "key", cfgErr.Key, "reason", cfgErr.Reason)
		} else {
			slog.Error("config_error", "error", err)
		}
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	issuer, err := tokens.NewIssuer(cfg.Security.SecretKey, cfg.Security.ExpiresIn)
	if err != nil {
		logger.Error("config_error", "key", "SECRET_KEY", "error", err)
		os.Exit(1)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(initCtx, gdb)
	}
	if err != nil {
		cancel()
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}

	var kv cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(initCtx, cfg.RedisURL, cfg.ServiceName+":", cfg.CacheTTL)
		if err != nil {
			logger.Warn("redis_init_error", "reason", "model cache disabled", "error", err)
		} else {
			kv = rc
		}
	}

	var indexer search.Indexer = search.Disabled{}
	if cfg.ESURL != "" {
		es, err := search.NewClient(initCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("es_init_error", "reason", "search disabled", "error", err)
		} else {
			indexer = search.NewESIndexer(es, cfg.ESIndex)
		}
	}
	cancel()

	publisher := events.NewPublisher(cfg.KafkaBrokers)

	r := repo.New(gdb)
	authSvc := &service.AuthService{Repo: r, Issuer: issuer, Events: publisher}
	schemaSvc := &service.SchemaService{
		Repo:     r,
		Cache:    kv,
		CacheTTL: cfg.CacheTTL,
		Search:   indexer,
		Events:   publisher,
	}

	schema, err := graphql.NewSchema(&graphql.Resolver{Auth: authSvc, Schema: schemaSvc})
	if err != nil {
		logger.Error("graphql_schema_error", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	httpserver.Register(e, &httpserver.Deps{
		Logger:   logger,
		GraphQL:  &graphql.GraphQLHTTP{Schema: schema},
		Verifier: authSvc,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http server started", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if err := kv.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	logger.Info("shutdown complete")
}
