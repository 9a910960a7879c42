package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrHubClosed is returned when registering a client on a closed hub
var ErrHubClosed = errors.New("notification hub is closed")

const (
	// writeWait is the max time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is how long to wait for the peer's pong before dropping it
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; clients only send pongs
	maxMessageSize = 512

	// sendBufferSize is the per-client outbound buffer
	sendBufferSize = 256
)

// Client is one websocket connection bound to an identity channel
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	identityID uuid.UUID
	send       chan []byte
	logger     *zap.Logger
}

// NewClient wraps a websocket connection for the given identity
func NewClient(hub *Hub, conn *websocket.Conn, identityID uuid.UUID, logger *zap.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		identityID: identityID,
		send:       make(chan []byte, sendBufferSize),
		logger:     logger,
	}
}

// IdentityID returns the identity this client is subscribed as
func (c *Client) IdentityID() uuid.UUID {
	return c.identityID
}

// Run starts the read and write pumps and blocks until the connection
// is gone. The caller must have registered the client with the hub.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump drains inbound frames. Clients never send application data;
// reading is only needed to process control frames and detect closure.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("identity_id", c.identityID.String()),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump forwards hub messages to the peer and keeps the connection
// alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
