package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/seazero-dotcom/CryptoTraderPro/src/interfaces"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------

// ErrUpstreamUnavailable marks network or parse failures talking to the
// exchange. Callers match it with errors.Is and decide the retry policy.
var ErrUpstreamUnavailable = errors.New("upstream price source unavailable")

// -----------------------------------------------------------------------------

// BinanceSource fetches public market data from the Binance REST API.
// It holds no persistent state and is safe to call repeatedly.
type BinanceSource struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewBinanceSource(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *BinanceSource {
	return &BinanceSource{
		BaseURL: strings.TrimRight(cfg.Exchange.BaseURL, "/"),
		Network: netMgr,
		Logger:  log.Named("BinanceSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *BinanceSource) Name() string {
	return "binance"
}

// -----------------------------------------------------------------------------

type priceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// FetchPrices returns the latest trade price per symbol in one request.
// No retries here: the relay skips the tick and tries again next period.
func (s *BinanceSource) FetchPrices(ctx context.Context, symbols []string) (map[string]string, error) {
	if len(symbols) == 0 {
		return map[string]string{}, nil
	}

	params := map[string]string{
		"symbols": symbolsParam(symbols),
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/api/v3/ticker/price", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var tickers []priceTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("%w: parse ticker response: %v", ErrUpstreamUnavailable, err)
	}

	prices := make(map[string]string, len(tickers))
	for _, t := range tickers {
		if _, err := strconv.ParseFloat(t.Price, 64); err != nil {
			s.Logger.Warning("Skipping unparsable price for %s: %q", t.Symbol, t.Price)
			continue
		}
		prices[strings.ToUpper(t.Symbol)] = t.Price
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no usable prices in response", ErrUpstreamUnavailable)
	}

	return prices, nil
}

// -----------------------------------------------------------------------------

// FetchDailyStats returns the full 24h ticker statistics for one symbol.
// The Binance response shape matches the relay wire format field for field.
func (s *BinanceSource) FetchDailyStats(ctx context.Context, symbol string) (*models.MTicker, error) {
	params := map[string]string{
		"symbol": strings.ToUpper(symbol),
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/api/v3/ticker/24hr", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	var ticker models.MTicker
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, fmt.Errorf("%w: parse 24hr stats: %v", ErrUpstreamUnavailable, err)
	}

	return &ticker, nil
}

// -----------------------------------------------------------------------------

// symbolsParam encodes the symbol list the way the Binance API expects:
// a JSON array literal, e.g. ["BTCUSDT","ETHUSDT"].
func symbolsParam(symbols []string) string {
	quoted := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		quoted = append(quoted, `"`+sym+`"`)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
