package notification

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub tracks websocket clients and bridges their identity channels.
// The first client for an identity opens the broker subscription and the
// last one leaving closes it, so channel resources live exactly as long
// as someone is listening.
type Hub struct {
	subscriber Subscriber
	logger     *zap.Logger

	mu      sync.Mutex
	clients map[uuid.UUID]map[*Client]struct{}
	stops   map[uuid.UUID]func()
	closed  bool
}

// NewHub creates a hub backed by the given subscriber
func NewHub(subscriber Subscriber, logger *zap.Logger) *Hub {
	return &Hub{
		subscriber: subscriber,
		logger:     logger,
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		stops:      make(map[uuid.UUID]func()),
	}
}

// Register adds a client for the identity and starts the channel
// subscription if this is the identity's first client
func (h *Hub) Register(ctx context.Context, c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	identity := c.identityID
	if h.clients[identity] == nil {
		stop, err := h.subscriber.Subscribe(ctx, identity, func(payload []byte) {
			h.broadcast(identity, payload)
		})
		if err != nil {
			return err
		}
		h.clients[identity] = make(map[*Client]struct{})
		h.stops[identity] = stop
	}

	h.clients[identity][c] = struct{}{}
	h.logger.Debug("websocket client registered",
		zap.String("identity_id", identity.String()),
		zap.Int("clients", len(h.clients[identity])),
	)
	return nil
}

// Unregister removes a client, closing its send channel, and tears down
// the identity's subscription when no clients remain
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()

	identity := c.identityID
	set, ok := h.clients[identity]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}

	delete(set, c)
	close(c.send)

	var stop func()
	if len(set) == 0 {
		delete(h.clients, identity)
		stop = h.stops[identity]
		delete(h.stops, identity)
	}
	h.mu.Unlock()

	if stop != nil {
		stop()
	}

	h.logger.Debug("websocket client unregistered",
		zap.String("identity_id", identity.String()),
	)
}

// broadcast delivers a payload to every client of the identity. Clients
// whose send buffer is full are skipped; they resynchronize on their
// next poll. Sends happen under the hub mutex, the same lock that guards
// close(c.send) in Unregister, so a client leaving mid-fanout cannot
// race a send against the close. The sends are non-blocking, so holding
// the lock is bounded.
func (h *Hub) broadcast(identityID uuid.UUID, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[identityID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping notification, client send buffer full",
				zap.String("identity_id", identityID.String()),
			)
		}
	}
}

// ClientCount returns the number of connected clients for an identity
func (h *Hub) ClientCount(identityID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[identityID])
}

// Close unregisters every client and stops all subscriptions
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true

	stops := make([]func(), 0, len(h.stops))
	for _, stop := range h.stops {
		stops = append(stops, stop)
	}
	h.stops = make(map[uuid.UUID]func())

	for _, set := range h.clients {
		for c := range set {
			close(c.send)
		}
	}
	h.clients = make(map[uuid.UUID]map[*Client]struct{})
	h.mu.Unlock()

	for _, stop := range stops {
		stop()
	}

	h.logger.Info("notification hub closed")
}
