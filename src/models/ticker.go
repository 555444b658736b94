package models

// -----------------------------------------------------------------------------
// Ticker Snapshot (Matches the Binance 24hr ticker wire shape exactly)
// -----------------------------------------------------------------------------

// MTicker is a point-in-time price/volume summary for one trading symbol.
// Price and volume fields stay decimal strings end to end so no precision is
// lost crossing the wire. A snapshot is immutable once built: a newer one
// fully replaces the older one for the same symbol, never a field-wise merge.
type MTicker struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	WeightedAvgPrice   string `json:"weightedAvgPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	LastPrice          string `json:"lastPrice"`
	LastQty            string `json:"lastQty"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenTime           int64  `json:"openTime"`
	CloseTime          int64  `json:"closeTime"`
	FirstID            int64  `json:"firstId"`
	LastID             int64  `json:"lastId"`
	Count              int64  `json:"count"`
}

// -----------------------------------------------------------------------------
// Relay Message envelope
// -----------------------------------------------------------------------------

// MessageTypeTicker is the only message kind the relay currently emits.
const MessageTypeTicker = "ticker"

// MRelayMessage is the tagged envelope pushed to every subscriber. One message
// always describes exactly one symbol's snapshot at one point in time.
type MRelayMessage struct {
	Type   string  `json:"type"`
	Symbol string  `json:"symbol"`
	Data   MTicker `json:"data"`
}
