package relay

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/seazero-dotcom/CryptoTraderPro/src/interfaces"
	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
	"github.com/seazero-dotcom/CryptoTraderPro/src/utils"

	"github.com/shopspring/decimal"
)

const historyCapacity = 720 // one hour of snapshots at the default 5s interval

// -----------------------------------------------------------------------------
// Price Relay
// -----------------------------------------------------------------------------

// PriceRelay periodically pulls latest prices from the upstream source and
// pushes one ticker message per symbol to every registered subscriber.
// It keeps no per-subscriber state: at broadcast time it only iterates the
// registry's current membership.
type PriceRelay struct {
	Source   interfaces.IPriceSource
	Registry *Registry
	Logger   *logger.Logger

	symbols  []string
	interval time.Duration

	// sessions is touched only by the tick loop goroutine.
	sessions map[string]*symbolSession

	// history is read by HTTP handlers while the tick loop appends.
	historyMu sync.RWMutex
	history   map[string]*utils.RingBuffer
}

// -----------------------------------------------------------------------------

// symbolSession accumulates what the upstream never gives us: the open/high/
// low since the relay started tracking the symbol, the previous close, and a
// running sum for the weighted average. All arithmetic is decimal so the
// broadcast strings stay exact.
type symbolSession struct {
	open      decimal.Decimal
	high      decimal.Decimal
	low       decimal.Decimal
	prevClose decimal.Decimal
	sum       decimal.Decimal
	count     int64
	openTime  int64
}

// -----------------------------------------------------------------------------

func NewPriceRelay(cfg *models.MConfig, source interfaces.IPriceSource, registry *Registry, log *logger.Logger) *PriceRelay {
	// Upstream replies are keyed by uppercase symbol, so the configured
	// list is normalized once here and the tick loop can match verbatim.
	symbols := make([]string, 0, len(cfg.Relay.Symbols))
	for _, s := range cfg.Relay.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}

	return &PriceRelay{
		Source:   source,
		Registry: registry,
		Logger:   log.Named("PriceRelay"),
		symbols:  symbols,
		interval: time.Duration(cfg.Relay.IntervalSeconds) * time.Second,
		sessions: make(map[string]*symbolSession),
		history:  make(map[string]*utils.RingBuffer),
	}
}

// -----------------------------------------------------------------------------

// Start runs the tick loop until ctx is cancelled. Blocking; run it in its
// own goroutine.
func (r *PriceRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Logger.Info("Relay started: %d symbols every %s", len(r.symbols), r.interval)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("Relay stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// tick performs one fetch-and-broadcast cycle. An upstream failure skips the
// whole tick: no partial broadcast, no crash, the next tick retries
// independently. Staleness beats termination.
func (r *PriceRelay) tick(ctx context.Context) {
	prices, err := r.Source.FetchPrices(ctx, r.symbols)
	if err != nil {
		r.Logger.Warning("Skipping tick, upstream fetch failed: %v", err)
		return
	}

	now := time.Now().UnixMilli()

	for _, symbol := range r.symbols {
		raw, ok := prices[symbol]
		if !ok {
			continue
		}

		msg := r.synthesize(symbol, raw, now)
		if msg == nil {
			continue
		}
		r.record(msg.Data)
		r.broadcast(msg)
	}
}

// -----------------------------------------------------------------------------

func (r *PriceRelay) record(ticker models.MTicker) {
	r.historyMu.Lock()
	defer r.historyMu.Unlock()

	buf, ok := r.history[ticker.Symbol]
	if !ok {
		buf = utils.NewRingBuffer(historyCapacity)
		r.history[ticker.Symbol] = buf
	}
	buf.Append(ticker)
}

// History returns up to n recent ticker snapshots for a symbol, oldest first.
func (r *PriceRelay) History(symbol string, n int) []models.MTicker {
	r.historyMu.RLock()
	defer r.historyMu.RUnlock()

	buf, ok := r.history[symbol]
	if !ok {
		return []models.MTicker{}
	}
	return buf.GetLatest(n)
}

// -----------------------------------------------------------------------------

// broadcast delivers one message to every current subscriber. Delivery is
// fire-and-forget per subscriber: a failed send prunes only that subscriber
// and never blocks delivery to the others.
func (r *PriceRelay) broadcast(msg *models.MRelayMessage) {
	r.Registry.ForEach(func(sub interfaces.ISubscriber) {
		if err := sub.Send(msg); err != nil {
			r.Registry.Remove(sub)
			r.Logger.Info("Dropped subscriber: %v", err)
		}
	})
}

// -----------------------------------------------------------------------------

// synthesize turns a raw last price into a full ticker snapshot, deriving the
// change fields against the session open. Returns nil if the price does not
// parse; that symbol is simply skipped this tick.
func (r *PriceRelay) synthesize(symbol, raw string, now int64) *models.MRelayMessage {
	last, err := decimal.NewFromString(raw)
	if err != nil {
		r.Logger.Warning("Unparsable price for %s: %q", symbol, raw)
		return nil
	}

	sess, ok := r.sessions[symbol]
	if !ok {
		sess = &symbolSession{
			open:      last,
			high:      last,
			low:       last,
			prevClose: last,
			openTime:  now,
		}
		r.sessions[symbol] = sess
	}

	if last.GreaterThan(sess.high) {
		sess.high = last
	}
	if last.LessThan(sess.low) {
		sess.low = last
	}
	sess.sum = sess.sum.Add(last)
	sess.count++

	change := last.Sub(sess.open)
	changePercent := decimal.Zero
	if !sess.open.IsZero() {
		changePercent = change.Div(sess.open).Mul(decimal.NewFromInt(100)).Round(4)
	}
	weightedAvg := sess.sum.Div(decimal.NewFromInt(sess.count))

	ticker := models.MTicker{
		Symbol:             symbol,
		PriceChange:        change.String(),
		PriceChangePercent: changePercent.String(),
		WeightedAvgPrice:   weightedAvg.String(),
		PrevClosePrice:     sess.prevClose.String(),
		LastPrice:          last.String(),
		LastQty:            "0",
		BidPrice:           last.String(),
		AskPrice:           last.String(),
		OpenPrice:          sess.open.String(),
		HighPrice:          sess.high.String(),
		LowPrice:           sess.low.String(),
		Volume:             "0",
		QuoteVolume:        "0",
		OpenTime:           sess.openTime,
		CloseTime:          now,
		FirstID:            1,
		LastID:             sess.count,
		Count:              sess.count,
	}

	sess.prevClose = last

	return &models.MRelayMessage{
		Type:   models.MessageTypeTicker,
		Symbol: symbol,
		Data:   ticker,
	}
}
