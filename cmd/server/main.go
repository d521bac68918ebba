// Package main runs the LocalPulse API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/localpulse/platform/internal/app"
	"github.com/localpulse/platform/internal/app/httpapi"
	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/internal/app/storage/postgres"
	"github.com/localpulse/platform/internal/config"
	"github.com/localpulse/platform/internal/middleware"
	"github.com/localpulse/platform/pkg/logger"
)

func main() {
	log := logger.NewDefault("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect to database")
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
		store := postgres.New(db)
		stores = app.Stores{
			Tenants:   store,
			Locations: store,
			Reviews:   store,
			Rankings:  store,
			Social:    store,
			Instagram: store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	application, err := app.New(stores, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start background services")
	}

	handler := httpapi.NewHandler(application, log)

	auth := middleware.NewAuthMiddleware([]byte(cfg.JWTSecret), log, []string{
		"/healthz",
		"/metrics",
		"/system/health",
		"/r/",
	})
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			case <-ctx.Done():
				return
			}
		}
	}()
	cors := middleware.NewCORSMiddleware(strings.Split(cfg.AllowedOrigins, ","))
	tracing := middleware.NewTracingMiddleware(log)

	chain := cors.Handler(tracing.Handler(metrics.InstrumentHandler(auth.Handler(limiter.Handler(handler)))))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      chain,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("api server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("stop background services")
	}
}
