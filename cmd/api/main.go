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

	"consola/internal/audit"
	"consola/internal/auth"
	"consola/internal/config"
	"consola/internal/httpserver"
	"consola/internal/logger"
	"consola/internal/metrics"
	"consola/internal/seed"
	"consola/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg.LogLevel, cfg.Development())
	defer lg.Sync()

	db, err := store.Open(cfg, lg)
	if err != nil {
		lg.Fatalw("db connect failed", "driver", cfg.DBDriver, "error", err)
	}

	ctx := context.Background()
	if err := seed.Migrate(ctx, db); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	catalog, err := seed.DefaultCatalog()
	if err != nil {
		lg.Fatalw("load seed catalog", "error", err)
	}
	if err := seed.Apply(ctx, db, catalog); err != nil {
		lg.Fatalw("seed catalog failed", "error", err)
	}
	if err := seed.Admin(ctx, db, cfg.Admin, lg); err != nil {
		lg.Fatalw("seed admin failed", "error", err)
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		lg.Fatalw("token signer", "error", err)
	}
	m := metrics.New()
	st := store.New(db)
	svc := auth.NewService(st, signer, audit.NewDBRecorder(st, lg, m), lg, auth.WithMetrics(m))

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httpserver.NewRouter(httpserver.Deps{
			Config:  cfg,
			Auth:    svc,
			Store:   st,
			Metrics: m,
			Log:     lg,
		}),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("listen", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	lg.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warnw("shutdown", "error", err)
	}
	if err := store.Close(db); err != nil {
		lg.Warnw("close db", "error", err)
	}
	lg.Infow("stopped")
}
