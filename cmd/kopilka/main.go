package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kopilka/internal/budget"
	"kopilka/internal/cache"
	"kopilka/internal/config"
	"kopilka/internal/events"
	apphttp "kopilka/internal/http"
	"kopilka/internal/ledger"
	applog "kopilka/internal/log"
	"kopilka/internal/planner"
	"kopilka/internal/registry"
	"kopilka/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "kopilka"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.SQLiteDBPath, cfg.RequestTimeout)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	viewCache := cache.NewTagCache[any](cfg.CacheMaxEntries, cfg.CacheTTL)

	// The invalidation fanout always hits the local cache; the AMQP leg is
	// optional and the app degrades to in-process invalidation without it.
	fanout := cache.Fanout{viewCache}
	var bus *events.Client
	if cfg.AMQPURL != "" {
		bus, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, running with local invalidation only", "error", err)
		} else {
			defer bus.Close()
			fanout = append(fanout, bus)
			logger.Info("AMQP invalidation bus connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	reg := registry.NewRegistry(st, fanout)
	eng := ledger.NewEngine(st, fanout)
	bud := budget.NewService(st, viewCache, fanout)
	pln := planner.NewPlanner(st, fanout)

	srv := apphttp.NewServer(":"+cfg.Port, reg, eng, bud, pln)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting kopilka server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
