// crate is a personal music collection server: user accounts with token
// authentication, ownership-scoped artists, albums and playlists, and an
// admin console.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/crate/pkg/api"
	"github.com/platinummonkey/crate/pkg/auth"
	"github.com/platinummonkey/crate/pkg/config"
	"github.com/platinummonkey/crate/pkg/httputil"
	"github.com/platinummonkey/crate/pkg/observability"
	"github.com/platinummonkey/crate/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.LogLevel), os.Stdout)
	logger.WithField("log_level", cfg.LogLevel).Info("starting crate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := store.RunMigrations(ctx, db); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	st := store.New(db)
	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.SecretKey), cfg.Auth.TokenTTL)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	metrics.RegisterDBPool(db)
	health := observability.NewHealthChecker(db)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.NewServer(st, issuer, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	healthMux.Handle("/metrics", metrics.Handler())
	healthServer := &http.Server{
		Addr: cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: httputil.Chain(
			httputil.RequestIDMiddleware,
			httputil.RecoveryMiddleware(logger),
		)(healthMux),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", server.Addr).Info("api server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("api server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
