/*
Package main is the entry point for the PulseChat server.

It loads configuration, initializes logging, wires the account, session, and
chat services, starts the HTTP server, and handles operating system
interrupt signals for a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsechat/internal/app/account"
	"pulsechat/internal/app/chat"
	"pulsechat/internal/app/db"
	"pulsechat/internal/app/session"
	"pulsechat/internal/configs"
	"pulsechat/internal/handler"
	"pulsechat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("history_capacity", cfg.HistoryCapacity).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Account repository: Postgres when a DSN is configured, in-memory
	// otherwise (development only; LoadConfig enforces that).
	var repo account.Repository
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to database")
		}
		defer pool.Close()
		repo = account.NewPostgresRepository(pool)
	} else {
		logx.Warn("No DATABASE_URL configured; using in-memory account store")
		repo = account.NewMemoryRepository()
	}

	accounts := account.NewService(repo)
	sessions := session.NewStore(accounts)

	hub := chat.NewHub(
		sessions,
		chat.NewPresenceRegistry(),
		chat.NewMessageLog(cfg.HistoryCapacity, accounts),
	)

	deps := &handler.AppDeps{
		Hub:      hub,
		Config:   cfg,
		Sessions: sessions,
		Accounts: accounts,
	}

	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("PulseChat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for the interrupt signal, then shut down with a timeout.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
