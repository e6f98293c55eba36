package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equion/internal/api"
	"equion/internal/config"
	"equion/internal/db"
	"equion/internal/logging"
	"equion/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.Log.File, logging.ParseLevel(cfg.Log.Level)); err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}

	slog.Info("starting server", "name", cfg.Server.Name)

	store, err := db.Open(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := service.New(store)
	server := api.NewServer(cfg, store, svc)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	server.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
