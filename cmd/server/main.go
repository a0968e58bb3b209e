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

	_ "github.com/mattn/go-sqlite3"

	"fabric-bridge/internal/api"
	"fabric-bridge/internal/app"
	"fabric-bridge/internal/config"
	internaldb "fabric-bridge/internal/db"
	"fabric-bridge/internal/ui"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	conn, err := internaldb.Open(cfg.SessionDBPath)
	if err != nil {
		logger.Error("open session store", "error", err)
		os.Exit(1)
	}
	defer conn.Close() //nolint:errcheck
	if err := internaldb.RunMigrations(conn); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	application, err := app.New(app.Deps{Cfg: cfg, DB: conn, Logger: logger})
	if err != nil {
		logger.Error("wire application", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(
		application.Sessions,
		application.Registry,
		application.Decisions,
		application.Fabric,
		application.AuditRepo,
		application.Source,
		logger.With("component", "api"),
	)
	uiHandler := ui.NewHandler(application.Sessions, application.Registry, cfg.IsProduction())
	router := api.NewRouter(cfg, handler, uiHandler)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
