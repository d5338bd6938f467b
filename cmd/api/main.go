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

	"coffee-shop/internal/audit"
	"coffee-shop/internal/auth"
	"coffee-shop/internal/config"
	"coffee-shop/internal/drinks"
	"coffee-shop/internal/httpapi"
	"coffee-shop/internal/storage"
	"coffee-shop/pkg/logger"
	"coffee-shop/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log, closeLog := logger.New(cfg.App.Env, logger.Options{File: cfg.Log.File})
	slog.SetDefault(log)
	defer func() { _ = closeLog() }()

	if err := run(rootCtx, stop, cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		_ = closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, log *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dialect, err := storage.ParseDialect(cfg.DB.Driver)
	if err != nil {
		return err
	}
	db, err := storage.Open(ctx, dialect, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	drinkRepo := drinks.NewSQLRepository(db, dialect)
	drinkSvc := drinks.NewService(drinkRepo)

	if cfg.DB.Reset {
		// Drops every record.
		log.Warn("resetting database", "driver", dialect)
		if err := storage.Reset(ctx, db); err != nil {
			return err
		}
		seeded, err := drinkSvc.Seed(ctx)
		if err != nil {
			return err
		}
		log.Info("database seeded", "drinks", len(seeded))
	} else if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	ksOpts := auth.KeySetOptions{
		RefreshInterval: cfg.Auth.JWKSRefresh,
		Logger:          log,
	}
	if addr := cfg.RedisAddr(); addr != "" {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: addr})
		if err != nil {
			return err
		}
		defer rdb.Close()
		ksOpts.Cache = auth.NewRedisDocumentCache(rdb, "")
	}

	keys, err := auth.NewKeySet(cfg.Auth.JWKSURL, ksOpts)
	if err != nil {
		return err
	}
	// Warm the key set; a failure here is retried lazily on the first request.
	if err := keys.Refresh(ctx); err != nil {
		log.Warn("initial jwks fetch failed", "err", err)
	}
	go keys.Run(ctx)

	verifier, err := auth.NewVerifier(cfg.Auth, keys)
	if err != nil {
		return err
	}

	handler := newHandler(cfg.CORS, httpapi.Deps{
		Logger:   log,
		Verifier: verifier,
		Handlers: httpapi.Handlers{
			Drinks: drinkSvc,
			Audit:  audit.NewService(audit.NewSQLRepo(db, dialect)),
			Ping: func(ctx context.Context) error {
				return utils.HealthCheck(ctx, db, 2*time.Second)
			},
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "db", dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
