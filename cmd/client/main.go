package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/seazero-dotcom/CryptoTraderPro/src/client"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------

func main() {

	url := flag.String("url", "ws://localhost:8090/ws", "dashboard websocket URL")
	logLevel := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	appLogger := logger.NewLogger(*logLevel, "PriceClient")

	manager := client.NewConnManager(*url, appLogger)
	manager.OnStateChange = func(old, new client.ConnState) {
		appLogger.Info("Connection state: %s -> %s", old, new)
	}
	manager.OnMessage(models.MessageTypeTicker, func(msg *models.MRelayMessage) {
		t := msg.Data
		fmt.Printf("%-10s last=%s chg=%s%% high=%s low=%s vol=%s\n",
			t.Symbol, t.LastPrice, t.PriceChangePercent, t.HighPrice, t.LowPrice, t.Volume)
	})

	if err := manager.Connect(); err != nil {
		appLogger.Critical("Could not connect: %v", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	manager.Disconnect()
	appLogger.Info("Bye.")
}
