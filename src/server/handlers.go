package server

import (
	"strconv"

	"github.com/seazero-dotcom/CryptoTraderPro/src/exchange/binance"
	"github.com/seazero-dotcom/CryptoTraderPro/src/helpers"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// accountClientFor builds a signed exchange client from the stored
// credentials of one user. Returns nil if no credentials are configured.
func (s *DashboardServer) accountClientFor(userID int) *binance.AccountClient {
	creds, err := s.Store.GetApiCredentials(userID)
	if err != nil || creds == nil {
		return nil
	}
	return binance.NewAccountClient(s.Config.Exchange.BaseURL, creds.APIKey, creds.APISecret, s.Network, s.Logger)
}

// -----------------------------------------------------------------------------

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		fail(c, helpers.WrapValidation("invalid "+name))
		return 0, false
	}
	return id, true
}

// fail writes a classified error with the status code its type maps to.
func fail(c *gin.Context, err error) {
	c.JSON(helpers.HTTPStatus(err), gin.H{"message": err.Error()})
}

// masked returns the credentials with the secret replaced, so it never
// leaves the server once stored.
func masked(creds models.MApiCredentials) models.MApiCredentials {
	creds.APISecret = "***"
	return creds
}

// -----------------------------------------------------------------------------
// API Credentials
// -----------------------------------------------------------------------------

func (s *DashboardServer) createCredentials(c *gin.Context) {
	var creds models.MApiCredentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(400, gin.H{"message": err.Error()})
		return
	}

	// Test the credentials before storing anything
	testClient := binance.NewAccountClient(s.Config.Exchange.BaseURL, creds.APIKey, creds.APISecret, s.Network, s.Logger)
	if err := testClient.ValidateCredentials(c.Request.Context()); err != nil {
		fail(c, helpers.WrapAuth("credential validation", err))
		return
	}

	stored, err := s.Store.CreateApiCredentials(creds)
	if err != nil {
		fail(c, helpers.WrapStorage("credential create", err))
		return
	}
	c.JSON(200, masked(*stored))
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getCredentials(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	creds, err := s.Store.GetApiCredentials(userID)
	if err != nil {
		fail(c, helpers.WrapStorage("credential lookup", err))
		return
	}
	if creds == nil {
		c.JSON(404, gin.H{"message": "Credentials not found"})
		return
	}
	c.JSON(200, masked(*creds))
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) testCredentials(c *gin.Context) {
	var req struct {
		APIKey    string `json:"apiKey"`
		APISecret string `json:"apiSecret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": err.Error()})
		return
	}

	testClient := binance.NewAccountClient(s.Config.Exchange.BaseURL, req.APIKey, req.APISecret, s.Network, s.Logger)
	if err := testClient.ValidateCredentials(c.Request.Context()); err != nil {
		wrapped := helpers.WrapAuth("credential validation", err)
		c.JSON(helpers.HTTPStatus(wrapped), gin.H{"success": false, "message": wrapped.Error()})
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "Credentials are valid"})
}

// -----------------------------------------------------------------------------
// Strategies
// -----------------------------------------------------------------------------

func (s *DashboardServer) getStrategies(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	strategies, err := s.Store.GetStrategies(userID)
	if err != nil {
		fail(c, helpers.WrapStorage("strategy lookup", err))
		return
	}
	c.JSON(200, strategies)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) createStrategy(c *gin.Context) {
	var strategy models.MStrategy
	if err := c.ShouldBindJSON(&strategy); err != nil {
		c.JSON(400, gin.H{"message": err.Error()})
		return
	}

	stored, err := s.Store.CreateStrategy(strategy)
	if err != nil {
		fail(c, helpers.WrapStorage("strategy create", err))
		return
	}
	c.JSON(200, stored)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) updateStrategy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	existing, err := s.Store.GetStrategy(id)
	if err != nil {
		fail(c, helpers.WrapStorage("strategy lookup", err))
		return
	}
	if existing == nil {
		c.JSON(404, gin.H{"message": "Strategy not found"})
		return
	}

	// Decode over a copy of the existing record: fields absent from the
	// request body keep their current values (partial update).
	updated := *existing
	if err := c.ShouldBindJSON(&updated); err != nil {
		c.JSON(400, gin.H{"message": err.Error()})
		return
	}

	stored, err := s.Store.UpdateStrategy(id, updated)
	if err != nil {
		fail(c, helpers.WrapStorage("strategy update", err))
		return
	}
	if stored == nil {
		c.JSON(404, gin.H{"message": "Strategy not found"})
		return
	}
	c.JSON(200, stored)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) deleteStrategy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := s.Store.DeleteStrategy(id)
	if err != nil {
		fail(c, helpers.WrapStorage("strategy delete", err))
		return
	}
	if !deleted {
		c.JSON(404, gin.H{"message": "Strategy not found"})
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

func (s *DashboardServer) getOrders(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	orders, err := s.Store.GetOrders(userID)
	if err != nil {
		fail(c, helpers.WrapStorage("order lookup", err))
		return
	}
	c.JSON(200, orders)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) createOrder(c *gin.Context) {
	var order models.MOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(400, gin.H{"message": err.Error()})
		return
	}

	client := s.accountClientFor(order.UserID)
	if client == nil {
		fail(c, helpers.WrapValidation("API credentials not configured"))
		return
	}

	// Place the order on the exchange first; only persist what it accepted
	result, err := client.CreateOrder(c.Request.Context(), order)
	if err != nil {
		c.JSON(400, gin.H{"message": err.Error()})
		return
	}

	order.ExchangeOrderID = strconv.FormatInt(result.OrderID, 10)
	order.Status = result.Status

	stored, err := s.Store.CreateOrder(order)
	if err != nil {
		fail(c, helpers.WrapStorage("order create", err))
		return
	}
	c.JSON(200, stored)
}

// -----------------------------------------------------------------------------
// Portfolio
// -----------------------------------------------------------------------------

func (s *DashboardServer) getPortfolio(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	client := s.accountClientFor(userID)
	if client == nil {
		fail(c, helpers.WrapValidation("API credentials not configured"))
		return
	}

	balances, err := client.AccountInfo(c.Request.Context())
	if err != nil {
		fail(c, helpers.WrapUpstream("account info", err))
		return
	}

	portfolio := make([]models.MBalance, 0)
	for _, b := range balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		if free <= 0 && locked <= 0 {
			continue
		}

		portfolio = append(portfolio, models.MBalance{
			Symbol: b.Asset,
			Free:   b.Free,
			Locked: b.Locked,
		})

		// Keep a snapshot so the dashboard has something to show when the
		// exchange is unreachable.
		if _, err := s.Store.UpsertPortfolio(models.MPortfolio{
			UserID: userID,
			Symbol: b.Asset,
			Free:   b.Free,
			Locked: b.Locked,
		}); err != nil {
			s.Logger.Warning("Failed to snapshot portfolio for user %d: %v", userID, err)
		}
	}

	c.JSON(200, portfolio)
}

// -----------------------------------------------------------------------------
// Market data
// -----------------------------------------------------------------------------

func (s *DashboardServer) getPrices(c *gin.Context) {
	prices, err := s.Source.FetchPrices(c.Request.Context(), s.Config.Relay.Symbols)
	if err != nil {
		fail(c, helpers.WrapUpstream("price fetch", err))
		return
	}
	c.JSON(200, prices)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getTicker(c *gin.Context) {
	ticker, err := s.Source.FetchDailyStats(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		fail(c, helpers.WrapUpstream("ticker fetch", err))
		return
	}
	c.JSON(200, ticker)
}

// -----------------------------------------------------------------------------

// getHistory serves the snapshots the relay has broadcast so far, for charts
// that want backfill without replaying the websocket stream.
func (s *DashboardServer) getHistory(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, helpers.WrapValidation("invalid limit"))
			return
		}
		limit = n
	}
	c.JSON(200, s.Relay.History(c.Param("symbol"), limit))
}
