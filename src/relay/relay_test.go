package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------

type stubSource struct {
	prices map[string]string
	err    error
	calls  int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchPrices(ctx context.Context, symbols []string) (map[string]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.prices, nil
}

// -----------------------------------------------------------------------------

func testRelay(source *stubSource, symbols ...string) (*PriceRelay, *Registry) {
	cfg := &models.MConfig{}
	cfg.Relay.Symbols = symbols
	cfg.Relay.IntervalSeconds = 1

	reg := NewRegistry()
	log := logger.NewLogger("ERROR", "test")
	return NewPriceRelay(cfg, source, reg, log), reg
}

// -----------------------------------------------------------------------------

func TestTickBroadcastsToAllSubscribers(t *testing.T) {
	source := &stubSource{prices: map[string]string{
		"BTCUSDT": "50000.10",
		"ETHUSDT": "3000.55",
	}}
	r, reg := testRelay(source, "BTCUSDT", "ETHUSDT")

	a := &stubSubscriber{}
	b := &stubSubscriber{}
	reg.Add(a)
	reg.Add(b)

	r.tick(context.Background())

	require.Len(t, a.received, 2)
	require.Len(t, b.received, 2)

	for _, msg := range a.received {
		assert.Equal(t, models.MessageTypeTicker, msg.Type)
		assert.Equal(t, msg.Symbol, msg.Data.Symbol)
	}
}

func TestLowercaseConfigSymbolStillBroadcasts(t *testing.T) {
	// The upstream keys its reply by uppercase symbol regardless of how
	// the request was spelled.
	source := &stubSource{prices: map[string]string{"BTCUSDT": "50000.10"}}
	r, reg := testRelay(source, " btcusdt ")

	sub := &stubSubscriber{}
	reg.Add(sub)

	r.tick(context.Background())

	require.Len(t, sub.received, 1)
	assert.Equal(t, "BTCUSDT", sub.received[0].Symbol)
}

func TestTickSkipsOnSourceError(t *testing.T) {
	source := &stubSource{err: errors.New("upstream down")}
	r, reg := testRelay(source, "BTCUSDT")

	sub := &stubSubscriber{}
	reg.Add(sub)

	r.tick(context.Background())

	assert.Empty(t, sub.received, "a failed fetch must not broadcast anything")
	assert.Equal(t, 1, reg.Len(), "subscribers survive a skipped tick")
}

func TestFailingSubscriberIsPruned(t *testing.T) {
	source := &stubSource{prices: map[string]string{"BTCUSDT": "50000"}}
	r, reg := testRelay(source, "BTCUSDT")

	healthy := &stubSubscriber{}
	broken := &stubSubscriber{fail: errors.New("slow consumer")}
	reg.Add(healthy)
	reg.Add(broken)

	r.tick(context.Background())

	require.Len(t, healthy.received, 1, "healthy subscriber still gets the message")
	assert.Equal(t, 1, reg.Len(), "broken subscriber is dropped")

	// Next tick only reaches the survivor
	r.tick(context.Background())
	assert.Len(t, healthy.received, 2)
	assert.Empty(t, broken.received)
}

func TestLateJoinerOnlySeesSubsequentTicks(t *testing.T) {
	source := &stubSource{prices: map[string]string{"BTCUSDT": "50000"}}
	r, reg := testRelay(source, "BTCUSDT")

	r.tick(context.Background())

	late := &stubSubscriber{}
	reg.Add(late)
	assert.Empty(t, late.received)

	r.tick(context.Background())
	assert.Len(t, late.received, 1)
}

// -----------------------------------------------------------------------------

func TestSynthesizeTracksSession(t *testing.T) {
	source := &stubSource{}
	r, _ := testRelay(source, "BTCUSDT")

	now := time.Now().UnixMilli()

	first := r.synthesize("BTCUSDT", "100", now)
	require.NotNil(t, first)
	assert.Equal(t, "100", first.Data.LastPrice)
	assert.Equal(t, "100", first.Data.OpenPrice)
	assert.Equal(t, "0", first.Data.PriceChange)
	assert.Equal(t, "100", first.Data.PrevClosePrice)
	assert.Equal(t, int64(1), first.Data.Count)

	second := r.synthesize("BTCUSDT", "110", now+5000)
	require.NotNil(t, second)
	assert.Equal(t, "110", second.Data.LastPrice)
	assert.Equal(t, "100", second.Data.OpenPrice)
	assert.Equal(t, "10", second.Data.PriceChange)
	assert.Equal(t, "10", second.Data.PriceChangePercent)
	assert.Equal(t, "110", second.Data.HighPrice)
	assert.Equal(t, "100", second.Data.LowPrice)
	assert.Equal(t, "100", second.Data.PrevClosePrice)
	assert.Equal(t, "105", second.Data.WeightedAvgPrice)
	assert.Equal(t, int64(2), second.Data.Count)

	third := r.synthesize("BTCUSDT", "90", now+10000)
	require.NotNil(t, third)
	assert.Equal(t, "-10", third.Data.PriceChange)
	assert.Equal(t, "110", third.Data.HighPrice)
	assert.Equal(t, "90", third.Data.LowPrice)
	assert.Equal(t, "110", third.Data.PrevClosePrice)
}

func TestSynthesizeRejectsGarbage(t *testing.T) {
	source := &stubSource{}
	r, _ := testRelay(source, "BTCUSDT")

	msg := r.synthesize("BTCUSDT", "not-a-price", time.Now().UnixMilli())
	assert.Nil(t, msg)
}

// -----------------------------------------------------------------------------

func TestHistoryAccumulates(t *testing.T) {
	source := &stubSource{prices: map[string]string{"BTCUSDT": "100"}}
	r, _ := testRelay(source, "BTCUSDT")

	assert.Empty(t, r.History("BTCUSDT", 10))

	r.tick(context.Background())
	source.prices["BTCUSDT"] = "101"
	r.tick(context.Background())

	history := r.History("BTCUSDT", 10)
	require.Len(t, history, 2)
	assert.Equal(t, "100", history[0].LastPrice)
	assert.Equal(t, "101", history[1].LastPrice)

	// limit applies from the newest end
	latest := r.History("BTCUSDT", 1)
	require.Len(t, latest, 1)
	assert.Equal(t, "101", latest[0].LastPrice)

	assert.Empty(t, r.History("UNKNOWN", 10))
}
