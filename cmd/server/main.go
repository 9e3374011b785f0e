package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trading-go/internal/api"
	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/logger"
	"paper-trading-go/internal/marketdata"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.New(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Market data: live REST tier first, deterministic synthetic fallback last.
	var providers []marketdata.Provider
	if cfg.MarketData.QuoteURL != "" {
		providers = append(providers, marketdata.NewRESTProvider(&cfg.MarketData, log))
	} else {
		log.Warn("No quote URL configured, all fills will use fallback prices")
	}
	oracle := marketdata.NewOracle(log, db, providers, marketdata.NewSyntheticProvider())

	// Core services
	engine := ledger.NewEngine(log, &cfg.Trading, db, oracle)
	accounts := ledger.NewAccountService(log, &cfg.Trading, db, oracle)

	handler := api.NewHandler(log, engine, accounts, oracle)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler),
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go func() {
		log.Info("Starting API server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down server cleanly", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
