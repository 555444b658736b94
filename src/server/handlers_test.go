package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazero-dotcom/CryptoTraderPro/src/exchange/binance"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
	"github.com/seazero-dotcom/CryptoTraderPro/src/network"
	"github.com/seazero-dotcom/CryptoTraderPro/src/relay"
	"github.com/seazero-dotcom/CryptoTraderPro/src/storage"
)

// -----------------------------------------------------------------------------
// Test fixtures
// -----------------------------------------------------------------------------

// fakeExchange imitates the handful of Binance endpoints the server talks to.
func fakeExchange(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/account", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MBX-APIKEY") == "" {
			http.Error(w, `{"code":-2014,"msg":"API-key format invalid."}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"balances": []map[string]string{
				{"asset": "BTC", "free": "0.5", "locked": "0.1"},
				{"asset": "ETH", "free": "2", "locked": "0"},
				{"asset": "DUST", "free": "0", "locked": "0"},
			},
		})
	})
	mux.HandleFunc("/api/v3/order", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"orderId": 987654,
			"status":  "NEW",
		})
	})
	mux.HandleFunc("/api/v3/ticker/price", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"symbol": "BTCUSDT", "price": "50000.10"},
		})
	})
	mux.HandleFunc("/api/v3/ticker/24hr", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.MTicker{
			Symbol: "BTCUSDT", LastPrice: "50000.10", HighPrice: "51000", LowPrice: "49000",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, exchangeURL string) (*DashboardServer, *storage.MemStore) {
	t.Helper()

	cfg := &models.MConfig{Name: "test", Host: "127.0.0.1", Port: 8090, LogLevel: "ERROR"}
	cfg.Network.RequestTimeout = 5
	cfg.Exchange.BaseURL = exchangeURL
	cfg.Relay.Symbols = []string{"BTCUSDT"}
	cfg.Relay.IntervalSeconds = 1

	log := logger.NewLogger("ERROR", "test")
	store := storage.NewMemStore()
	netMgr := network.NewAsyncNetworkManager(cfg, log)
	source := binance.NewBinanceSource(cfg, netMgr, log)
	registry := relay.NewRegistry()
	priceRelay := relay.NewPriceRelay(cfg, source, registry, log)

	return NewDashboardServer(cfg, log, store, source, netMgr, registry, priceRelay), store
}

func doJSON(t *testing.T, s *DashboardServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

// -----------------------------------------------------------------------------
// Strategies
// -----------------------------------------------------------------------------

func TestStrategyEndpoints(t *testing.T) {
	s, _ := newTestServer(t, fakeExchange(t).URL)

	rec := doJSON(t, s, http.MethodPost, "/api/strategies", models.MStrategy{
		UserID: 1, Name: "grid", Symbol: "BTCUSDT", BuyPrice: "48000", Pnl: "0",
	})
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var created models.MStrategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	rec = doJSON(t, s, http.MethodGet, "/api/strategies/1", nil)
	require.Equal(t, 200, rec.Code)
	var listed []models.MStrategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// Partial update: only pnl in the body, the rest survives
	rec = doJSON(t, s, http.MethodPut, "/api/strategies/1", map[string]string{"pnl": "42.5"})
	require.Equal(t, 200, rec.Code, rec.Body.String())
	var updated models.MStrategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "42.5", updated.Pnl)
	assert.Equal(t, "grid", updated.Name)
	assert.Equal(t, "48000", updated.BuyPrice)

	rec = doJSON(t, s, http.MethodPut, "/api/strategies/99", map[string]string{"pnl": "1"})
	assert.Equal(t, 404, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/strategies/1", nil)
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/strategies/1", nil)
	assert.Equal(t, 404, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/strategies/abc", map[string]string{"pnl": "1"})
	assert.Equal(t, 400, rec.Code)
}

// -----------------------------------------------------------------------------
// Credentials
// -----------------------------------------------------------------------------

func TestCredentialEndpoints(t *testing.T) {
	s, _ := newTestServer(t, fakeExchange(t).URL)

	rec := doJSON(t, s, http.MethodGet, "/api/credentials/1", nil)
	assert.Equal(t, 404, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/credentials", models.MApiCredentials{
		UserID: 1, APIKey: "key", APISecret: "secret",
	})
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var stored models.MApiCredentials
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "***", stored.APISecret, "secret must never be echoed back")

	rec = doJSON(t, s, http.MethodGet, "/api/credentials/1", nil)
	require.Equal(t, 200, rec.Code)
	var loaded models.MApiCredentials
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "key", loaded.APIKey)
	assert.Equal(t, "***", loaded.APISecret)

	rec = doJSON(t, s, http.MethodPost, "/api/credentials/test", map[string]string{
		"apiKey": "key", "apiSecret": "secret",
	})
	require.Equal(t, 200, rec.Code)
}

func TestCredentialsRejectedByExchange(t *testing.T) {
	// An exchange that refuses every signed request
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-2015,"msg":"Invalid API-key."}`, http.StatusUnauthorized)
	}))
	defer exchange.Close()

	s, store := newTestServer(t, exchange.URL)

	rec := doJSON(t, s, http.MethodPost, "/api/credentials", models.MApiCredentials{
		UserID: 1, APIKey: "bad", APISecret: "bad",
	})
	assert.Equal(t, 401, rec.Code)

	// Nothing was persisted
	creds, err := store.GetApiCredentials(1)
	require.NoError(t, err)
	assert.Nil(t, creds)

	// The test endpoint classifies the rejection the same way
	rec = doJSON(t, s, http.MethodPost, "/api/credentials/test", map[string]string{
		"apiKey": "bad", "apiSecret": "bad",
	})
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

func TestCreateOrderPlacesOnExchangeFirst(t *testing.T) {
	s, store := newTestServer(t, fakeExchange(t).URL)

	order := models.MOrder{
		UserID: 1, Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT",
		Quantity: "0.5", Price: "48000",
	}

	// Without credentials the order is refused before reaching the exchange
	rec := doJSON(t, s, http.MethodPost, "/api/orders", order)
	assert.Equal(t, 400, rec.Code)

	_, err := store.CreateApiCredentials(models.MApiCredentials{
		UserID: 1, APIKey: "key", APISecret: "secret",
	})
	require.NoError(t, err)

	rec = doJSON(t, s, http.MethodPost, "/api/orders", order)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var stored models.MOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "987654", stored.ExchangeOrderID)
	assert.Equal(t, "NEW", stored.Status)

	rec = doJSON(t, s, http.MethodGet, "/api/orders/1", nil)
	require.Equal(t, 200, rec.Code)
	var listed []models.MOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

// -----------------------------------------------------------------------------
// Portfolio
// -----------------------------------------------------------------------------

func TestGetPortfolioFiltersEmptyBalances(t *testing.T) {
	s, store := newTestServer(t, fakeExchange(t).URL)

	_, err := store.CreateApiCredentials(models.MApiCredentials{
		UserID: 1, APIKey: "key", APISecret: "secret",
	})
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodGet, "/api/portfolio/1", nil)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var balances []models.MBalance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balances))
	require.Len(t, balances, 2, "zero balances are dropped")

	// A snapshot was persisted for the dashboard fallback
	snapshots, err := store.GetPortfolio(1)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

// -----------------------------------------------------------------------------
// Market data
// -----------------------------------------------------------------------------

func TestMarketDataEndpoints(t *testing.T) {
	s, _ := newTestServer(t, fakeExchange(t).URL)

	rec := doJSON(t, s, http.MethodGet, "/api/prices", nil)
	require.Equal(t, 200, rec.Code, rec.Body.String())
	var prices map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prices))
	assert.Equal(t, "50000.10", prices["BTCUSDT"])

	rec = doJSON(t, s, http.MethodGet, "/api/ticker/BTCUSDT", nil)
	require.Equal(t, 200, rec.Code)
	var ticker models.MTicker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticker))
	assert.Equal(t, "50000.10", ticker.LastPrice)

	rec = doJSON(t, s, http.MethodGet, "/api/history/BTCUSDT", nil)
	require.Equal(t, 200, rec.Code)
	var history []models.MTicker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history)

	rec = doJSON(t, s, http.MethodGet, "/api/history/BTCUSDT?limit=abc", nil)
	assert.Equal(t, 400, rec.Code)
}

func TestMarketDataUpstreamFailure(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer exchange.Close()

	s, _ := newTestServer(t, exchange.URL)

	rec := doJSON(t, s, http.MethodGet, "/api/prices", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/ticker/BTCUSDT", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, fakeExchange(t).URL)

	rec := doJSON(t, s, http.MethodGet, "/api/health", nil)
	require.Equal(t, 200, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 0, health["connections"])
}
