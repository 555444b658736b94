package server

import (
	"fmt"
	"strings"

	"github.com/seazero-dotcom/CryptoTraderPro/src/exchange/binance"
	"github.com/seazero-dotcom/CryptoTraderPro/src/interfaces"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
	"github.com/seazero-dotcom/CryptoTraderPro/src/relay"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	// Collaborators
	Store    interfaces.IRecordStore
	Source   *binance.BinanceSource
	Network  interfaces.INetworkManager
	Registry *relay.Registry
	Relay    *relay.PriceRelay
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(
	cfg *models.MConfig,
	log *logger.Logger,
	store interfaces.IRecordStore,
	source *binance.BinanceSource,
	netMgr interfaces.INetworkManager,
	registry *relay.Registry,
	priceRelay *relay.PriceRelay,
) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:   cfg,
		Logger:   log.Named("DashboardServer"),
		engine:   gin.Default(),
		Store:    store,
		Source:   source,
		Network:  netMgr,
		Registry: registry,
		Relay:    priceRelay,
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	// API Credentials
	s.engine.POST("/api/credentials", s.createCredentials)
	s.engine.GET("/api/credentials/:userId", s.getCredentials)
	s.engine.POST("/api/credentials/test", s.testCredentials)

	// Strategies
	s.engine.GET("/api/strategies/:userId", s.getStrategies)
	s.engine.POST("/api/strategies", s.createStrategy)
	s.engine.PUT("/api/strategies/:id", s.updateStrategy)
	s.engine.DELETE("/api/strategies/:id", s.deleteStrategy)

	// Orders
	s.engine.GET("/api/orders/:userId", s.getOrders)
	s.engine.POST("/api/orders", s.createOrder)

	// Portfolio
	s.engine.GET("/api/portfolio/:userId", s.getPortfolio)

	// Market data
	s.engine.GET("/api/prices", s.getPrices)
	s.engine.GET("/api/ticker/:symbol", s.getTicker)
	s.engine.GET("/api/history/:symbol", s.getHistory)

	// Health
	s.engine.GET("/api/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Engine exposes the router for tests.
func (s *DashboardServer) Engine() *gin.Engine {
	return s.engine
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":      "ok",
		"connections": s.Registry.Len(),
	})
}
