package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seazero-dotcom/CryptoTraderPro/src/interfaces"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------
// Signed account endpoints
// -----------------------------------------------------------------------------

// AccountClient calls the authenticated Binance endpoints on behalf of one
// set of API credentials. Every request carries a millisecond timestamp and
// an HMAC-SHA256 signature over the query string.
type AccountClient struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Network   interfaces.INetworkManager
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAccountClient(baseURL, apiKey, apiSecret string, netMgr interfaces.INetworkManager, log *logger.Logger) *AccountClient {
	return &AccountClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		APISecret: apiSecret,
		Network:   netMgr,
		Logger:    log.Named("BinanceAccount"),
	}
}

// -----------------------------------------------------------------------------

// Balance is one asset line from the account info response.
type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

type accountInfoResponse struct {
	Balances []Balance `json:"balances"`
}

// -----------------------------------------------------------------------------

// AccountInfo returns all asset balances for the account.
func (c *AccountClient) AccountInfo(ctx context.Context) ([]Balance, error) {
	body, err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, err
	}

	var resp accountInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse account info: %w", err)
	}

	return resp.Balances, nil
}

// -----------------------------------------------------------------------------

// ValidateCredentials checks the key pair by fetching account info.
func (c *AccountClient) ValidateCredentials(ctx context.Context) error {
	_, err := c.AccountInfo(ctx)
	return err
}

// -----------------------------------------------------------------------------

// OrderResult carries the exchange's answer to a placed order.
type OrderResult struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

// CreateOrder places an order on the exchange and returns its id and status.
func (c *AccountClient) CreateOrder(ctx context.Context, order models.MOrder) (*OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(order.Symbol))
	params.Set("side", order.Side)
	params.Set("type", order.Type)
	params.Set("quantity", order.Quantity)
	if order.Price != "" && order.Type != "MARKET" {
		params.Set("price", order.Price)
		params.Set("timeInForce", "GTC")
	}

	body, err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}

	var result OrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse order response: %w", err)
	}

	return &result, nil
}

// -----------------------------------------------------------------------------

// signedRequest is the shared helper for signed REST calls.
func (c *AccountClient) signedRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if params.Get("recvWindow") == "" {
		params.Set("recvWindow", "5000")
	}

	query := params.Encode()
	signature := c.sign(query)
	endpoint := fmt.Sprintf("%s%s?%s&signature=%s", c.BaseURL, path, query, signature)

	headers := map[string]string{
		"X-MBX-APIKEY": c.APIKey,
		"Content-Type": "application/x-www-form-urlencoded",
	}

	body, err := c.Network.Do(ctx, method, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("account request failed: %w", err)
	}
	return body, nil
}

// -----------------------------------------------------------------------------

func (c *AccountClient) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
