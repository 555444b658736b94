package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/seazero-dotcom/CryptoTraderPro/src/models"
	"github.com/seazero-dotcom/CryptoTraderPro/src/relay"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBufferSize bounds how far one slow subscriber may lag before it
	// is pruned instead of blocking the broadcast.
	sendBufferSize = 256
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one open subscriber connection. It implements
// interfaces.ISubscriber: the relay hands it messages through Send and the
// writePump drains them onto the wire.
type Client struct {
	server   *DashboardServer
	registry *relay.Registry
	conn     *websocket.Conn
	send     chan *models.MRelayMessage
	done     chan struct{}
	closed   atomic.Bool
}

// -----------------------------------------------------------------------------

// Send queues one message without blocking. A full buffer or a closed
// connection returns relay-visible errors so the broadcast prunes this
// subscriber and moves on.
func (c *Client) Send(msg *models.MRelayMessage) error {
	if c.closed.Load() {
		return errClientClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errClientTooSlow
	}
}

// -----------------------------------------------------------------------------

var (
	errClientClosed  = &clientError{"subscriber connection closed"}
	errClientTooSlow = &clientError{"subscriber send buffer full"}
)

type clientError struct{ msg string }

func (e *clientError) Error() string { return e.msg }

// -----------------------------------------------------------------------------
// readPump - acts as a watchdog for the connection
// -----------------------------------------------------------------------------
// The relay protocol is one-way; inbound frames are only read to detect
// disconnects and answer pings.

func (c *Client) readPump() {
	defer func() {
		c.closed.Store(true)
		c.registry.Remove(c)
		close(c.done)
		c.conn.Close()
		c.server.Logger.Info("Subscriber disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to the subscriber
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.Logger.Info("Write error: %v", err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handler
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		server:   s,
		registry: s.Registry,
		conn:     conn,
		// Buffered so one slow reader never stalls a broadcast
		send: make(chan *models.MRelayMessage, sendBufferSize),
		done: make(chan struct{}),
	}

	s.Registry.Add(client)
	s.Logger.Info("Subscriber connected")

	go client.writePump()
	go client.readPump()
}
