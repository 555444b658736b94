package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/seazero-dotcom/CryptoTraderPro/src/config"
	"github.com/seazero-dotcom/CryptoTraderPro/src/exchange/binance"
	"github.com/seazero-dotcom/CryptoTraderPro/src/interfaces"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/network"
	"github.com/seazero-dotcom/CryptoTraderPro/src/relay"
	"github.com/seazero-dotcom/CryptoTraderPro/src/server"
	"github.com/seazero-dotcom/CryptoTraderPro/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Local .env files override nothing, they only fill missing env vars
	godotenv.Load() //nolint:errcheck

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Setup Storage
	var store interfaces.IRecordStore

	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.MConfig, appLogger)
	case "sqlite":
		store, err = storage.NewSQLiteStore(cfg.MConfig, appLogger)
	default:
		store = storage.NewMemStore()
	}

	if err != nil {
		appLogger.Critical("Failed to init storage: %v", err)
	}
	defer store.Close()

	// 3. Setup Components
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)

	source := binance.NewBinanceSource(cfg.MConfig, networkManager, appLogger)
	registry := relay.NewRegistry()
	priceRelay := relay.NewPriceRelay(cfg.MConfig, source, registry, appLogger)

	srv := server.NewDashboardServer(cfg.MConfig, appLogger, store, source, networkManager, registry, priceRelay)

	// 4. Start Relay
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go priceRelay.Start(ctx)

	// 5. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	appLogger.Info("Relaying %d symbols every %ds", len(cfg.Relay.Symbols), cfg.Relay.IntervalSeconds)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
}
