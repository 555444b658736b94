package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seazero-dotcom/CryptoTraderPro/src/logger"
	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
)

// -----------------------------------------------------------------------------
// Connection states
// -----------------------------------------------------------------------------

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateGivenUp
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateGivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}

var ErrMaxAttemptsReached = errors.New("maximum reconnection attempts reached")

const (
	defaultMaxAttempts  = 5
	defaultBaseInterval = 1 * time.Second
	handshakeTimeout    = 10 * time.Second
)

// -----------------------------------------------------------------------------
// Connection Manager
// -----------------------------------------------------------------------------

// ConnManager maintains a websocket subscription to the price relay. A lost
// connection is retried with a linearly growing delay (attempt * BaseInterval)
// until MaxAttempts is exhausted, after which the manager gives up until
// Reset or a fresh Connect call.
type ConnManager struct {
	URL          string
	MaxAttempts  int
	BaseInterval time.Duration
	Logger       *logger.Logger

	OnStateChange func(old, new ConnState)

	mu         sync.Mutex
	state      ConnState
	conn       *websocket.Conn
	attempts   int
	retryTimer *time.Timer
	handlers   map[string]func(msg *models.MRelayMessage)
	prices     map[string]models.MTicker

	// gen identifies the current connection cycle. Disconnect and Connect
	// bump it, so a dial or retry timer from an older cycle finds the
	// mismatch and abandons its result instead of installing a connection
	// the caller no longer wants.
	gen uint64
}

func NewConnManager(url string, log *logger.Logger) *ConnManager {
	return &ConnManager{
		URL:          url,
		MaxAttempts:  defaultMaxAttempts,
		BaseInterval: defaultBaseInterval,
		Logger:       log.Named("ConnManager"),
		state:        StateDisconnected,
		handlers:     make(map[string]func(msg *models.MRelayMessage)),
		prices:       make(map[string]models.MTicker),
	}
}

// -----------------------------------------------------------------------------

// OnMessage registers a handler for a message type. Must be called before
// Connect.
func (m *ConnManager) OnMessage(kind string, handler func(msg *models.MRelayMessage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[kind] = handler
}

// Connect starts a fresh connection cycle, resetting the attempt counter.
// Any retry still pending from an earlier cycle is cancelled first.
func (m *ConnManager) Connect() error {
	m.mu.Lock()
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.attempts = 0
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	return m.dial(gen)
}

func (m *ConnManager) dial(gen uint64) error {
	m.mu.Lock()
	if gen != m.gen || m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.attempts++
	attempt := m.attempts
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.Logger.Info("Connecting to %s (attempt %d/%d)", m.URL, attempt, m.MaxAttempts)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(m.URL, nil)
	if err != nil {
		m.Logger.Warning("Connection attempt %d failed: %v", attempt, err)
		return m.scheduleRetry(gen)
	}

	m.mu.Lock()
	if gen != m.gen {
		// Disconnect (or a newer Connect) won the race while the
		// handshake was in flight. The result must not be installed.
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.conn = conn
	m.attempts = 0
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	go m.readLoop(conn, gen)
	return nil
}

func (m *ConnManager) scheduleRetry(gen uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return nil
	}

	if m.attempts >= m.MaxAttempts {
		m.setStateLocked(StateGivenUp)
		m.Logger.Error("Giving up after %d attempts", m.attempts)
		return fmt.Errorf("%w (%d)", ErrMaxAttemptsReached, m.MaxAttempts)
	}

	delay := time.Duration(m.attempts) * m.BaseInterval
	m.setStateLocked(StateDisconnected)
	m.Logger.Info("Retrying in %s", delay)
	m.retryTimer = time.AfterFunc(delay, func() {
		m.dial(gen) //nolint:errcheck
	})
	return nil
}

// -----------------------------------------------------------------------------

func (m *ConnManager) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			lost := gen == m.gen && m.conn == conn && m.state == StateConnected
			if lost {
				m.conn = nil
				m.setStateLocked(StateDisconnected)
			}
			m.mu.Unlock()

			if lost {
				m.Logger.Warning("Connection lost: %v", err)
				m.dial(gen) //nolint:errcheck
			}
			return
		}
		m.handleMessage(raw)
	}
}

func (m *ConnManager) handleMessage(raw []byte) {
	var msg models.MRelayMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Malformed frames are dropped; the stream keeps flowing.
		m.Logger.Warning("Discarding malformed message: %v", err)
		return
	}

	if msg.Type == models.MessageTypeTicker {
		m.updatePrice(msg.Data)
	}

	m.mu.Lock()
	handler := m.handlers[msg.Type]
	m.mu.Unlock()
	if handler != nil {
		handler(&msg)
	}
}

// updatePrice replaces the cached ticker unless the incoming frame is older
// than what we already hold.
func (m *ConnManager) updatePrice(ticker models.MTicker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, ok := m.prices[ticker.Symbol]
	if ok && ticker.CloseTime < cached.CloseTime {
		return
	}
	m.prices[ticker.Symbol] = ticker
}

// LatestPrice returns the last cached ticker for a symbol.
func (m *ConnManager) LatestPrice(symbol string) (models.MTicker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticker, ok := m.prices[symbol]
	return ticker, ok
}

// Prices returns a copy of the full price cache.
func (m *ConnManager) Prices() map[string]models.MTicker {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]models.MTicker, len(m.prices))
	for symbol, ticker := range m.prices {
		out[symbol] = ticker
	}
	return out
}

// -----------------------------------------------------------------------------

// Disconnect closes the connection and cancels any pending retry. A dial
// that is still in flight when Disconnect is called finds its cycle stale on
// completion, closes the connection it obtained, and leaves the manager
// disconnected. Calling Disconnect while already disconnected is a no-op.
func (m *ConnManager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.attempts = 0
	if m.state != StateDisconnected {
		m.setStateLocked(StateDisconnected)
	}
}

// Reset clears a given-up manager so Connect can be retried.
func (m *ConnManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = 0
	if m.state == StateGivenUp {
		m.setStateLocked(StateDisconnected)
	}
}

func (m *ConnManager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

func (m *ConnManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// setStateLocked requires m.mu to be held. The callback fires outside the
// lock to let listeners call back into the manager.
func (m *ConnManager) setStateLocked(next ConnState) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next

	if m.OnStateChange != nil {
		cb := m.OnStateChange
		go cb(prev, next)
	}
}
