package models

import "time"

// -----------------------------------------------------------------------------
// Record Store entities
// -----------------------------------------------------------------------------
// Monetary fields are decimal strings, same convention as the ticker wire
// format. The record store treats these as opaque values; only the exchange
// client ever interprets them.

type MUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type MApiCredentials struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	APIKey    string    `json:"apiKey"`
	APISecret string    `json:"apiSecret"`
	IsTestnet bool      `json:"isTestnet"`
	CreatedAt time.Time `json:"createdAt"`
}

type MStrategy struct {
	ID         int       `json:"id"`
	UserID     int       `json:"userId"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"` // e.g. BTCUSDT
	BuyPrice   string    `json:"buyPrice"`
	BuyAmount  string    `json:"buyAmount"`
	SellPrice  string    `json:"sellPrice"`
	SellAmount string    `json:"sellAmount"`
	IsActive   bool      `json:"isActive"`
	Pnl        string    `json:"pnl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type MOrder struct {
	ID              int        `json:"id"`
	UserID          int        `json:"userId"`
	StrategyID      int        `json:"strategyId"`
	ExchangeOrderID string     `json:"exchangeOrderId"`
	Symbol          string     `json:"symbol"`
	Side            string     `json:"side"` // BUY or SELL
	Type            string     `json:"type"` // MARKET, LIMIT, ...
	Quantity        string     `json:"quantity"`
	Price           string     `json:"price"`
	Status          string     `json:"status"` // PENDING, FILLED, CANCELLED, ...
	ExecutedAt      *time.Time `json:"executedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type MPortfolio struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Symbol    string    `json:"symbol"`
	Free      string    `json:"free"`
	Locked    string    `json:"locked"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// -----------------------------------------------------------------------------

// MBalance is one non-zero asset balance from the live exchange account,
// returned by the portfolio route.
type MBalance struct {
	Symbol string `json:"symbol"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}
