package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	orderapp "github.com/storefront/backend/internal/application/order"
	returnsapp "github.com/storefront/backend/internal/application/returns"
	supportapp "github.com/storefront/backend/internal/application/support"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/returns"
	"github.com/storefront/backend/internal/domain/support"
	"github.com/storefront/backend/internal/infrastructure/notification"
)

// SyncConfig bounds the refresh and reconnect behavior
type SyncConfig struct {
	// PollInterval is the periodic full refresh, the fallback against
	// missed push events
	PollInterval time.Duration

	// ReconnectBackoff is the initial wait after a dropped stream
	ReconnectBackoff time.Duration

	// MaxReconnectWait caps the doubled backoff
	MaxReconnectWait time.Duration
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = time.Second
	}
	if c.MaxReconnectWait <= 0 {
		c.MaxReconnectWait = time.Minute
	}
	return c
}

// Syncer keeps a local read model of watched entities converged on
// server state. Push events are cache-invalidation signals only; the
// syncer always refetches the authoritative entity over HTTP and never
// applies an event payload directly, so duplicate or out-of-order
// delivery is harmless. When the stream is unavailable it degrades to
// polling and keeps reconnecting with capped exponential backoff.
type Syncer struct {
	api    *Client
	cfg    SyncConfig
	logger *zap.Logger

	mu      sync.RWMutex
	orders  map[uuid.UUID]*orderapp.OrderResponse
	returns map[uuid.UUID]*returnsapp.ReturnResponse
	tickets map[uuid.UUID]*supportapp.TicketResponse

	onUpdate func(notification.Message)
}

// SyncerOption customizes a Syncer
type SyncerOption func(*Syncer)

// WithOnUpdate registers a callback invoked after a watched entity has
// been refreshed from the server
func WithOnUpdate(fn func(notification.Message)) SyncerOption {
	return func(s *Syncer) {
		s.onUpdate = fn
	}
}

// WithSyncerLogger attaches a logger
func WithSyncerLogger(logger *zap.Logger) SyncerOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// NewSyncer creates a Syncer on top of an API client
func NewSyncer(api *Client, cfg SyncConfig, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		api:     api,
		cfg:     cfg.withDefaults(),
		logger:  zap.NewNop(),
		orders:  make(map[uuid.UUID]*orderapp.OrderResponse),
		returns: make(map[uuid.UUID]*returnsapp.ReturnResponse),
		tickets: make(map[uuid.UUID]*supportapp.TicketResponse),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WatchOrder adds an order to the watch set and loads its current state
func (s *Syncer) WatchOrder(ctx context.Context, orderID uuid.UUID) error {
	resp, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.orders[orderID] = resp
	s.mu.Unlock()
	return nil
}

// WatchReturn adds a return request to the watch set
func (s *Syncer) WatchReturn(ctx context.Context, returnID uuid.UUID) error {
	resp, err := s.api.GetReturn(ctx, returnID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.returns[returnID] = resp
	s.mu.Unlock()
	return nil
}

// WatchTicket adds a ticket to the watch set
func (s *Syncer) WatchTicket(ctx context.Context, ticketID uuid.UUID) error {
	resp, err := s.api.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tickets[ticketID] = resp
	s.mu.Unlock()
	return nil
}

// UnwatchOrder drops an order from the watch set
func (s *Syncer) UnwatchOrder(orderID uuid.UUID) {
	s.mu.Lock()
	delete(s.orders, orderID)
	s.mu.Unlock()
}

// UnwatchReturn drops a return request from the watch set
func (s *Syncer) UnwatchReturn(returnID uuid.UUID) {
	s.mu.Lock()
	delete(s.returns, returnID)
	s.mu.Unlock()
}

// UnwatchTicket drops a ticket from the watch set
func (s *Syncer) UnwatchTicket(ticketID uuid.UUID) {
	s.mu.Lock()
	delete(s.tickets, ticketID)
	s.mu.Unlock()
}

// Order returns the local view of a watched order
func (s *Syncer) Order(orderID uuid.UUID) (*orderapp.OrderResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.orders[orderID]
	return resp, ok
}

// Return returns the local view of a watched return request
func (s *Syncer) Return(returnID uuid.UUID) (*returnsapp.ReturnResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.returns[returnID]
	return resp, ok
}

// Ticket returns the local view of a watched ticket
func (s *Syncer) Ticket(ticketID uuid.UUID) (*supportapp.TicketResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.tickets[ticketID]
	return resp, ok
}

// Run drives the stream and poll loops until the context is cancelled.
// The loops are independent so a dead stream never stops the polling
// fallback.
func (s *Syncer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.streamLoop(ctx)
	})
	g.Go(func() error {
		return s.pollLoop(ctx)
	})
	return g.Wait()
}

// streamLoop dials the event stream and refetches on every received
// message. Dropped connections are redialed with doubled backoff, reset
// after a successful connect. A full refresh runs after every connect
// to catch events missed while disconnected.
func (s *Syncer) streamLoop(ctx context.Context) error {
	backoff := s.cfg.ReconnectBackoff
	for {
		conn, err := s.dial(ctx)
		if err != nil {
			s.logger.Warn("stream dial failed, will retry",
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > s.cfg.MaxReconnectWait {
				backoff = s.cfg.MaxReconnectWait
			}
			continue
		}

		backoff = s.cfg.ReconnectBackoff
		s.refreshAll(ctx)
		s.readMessages(ctx, conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Syncer) dial(ctx context.Context) (*websocket.Conn, error) {
	streamURL, err := s.streamURL()
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// streamURL derives the websocket endpoint from the API base URL. The
// token rides in the query string because browsers cannot set headers
// on websocket upgrades, and the server accepts both.
func (s *Syncer) streamURL() (string, error) {
	u, err := url.Parse(s.api.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + "/stream"
	q := u.Query()
	q.Set("token", s.api.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Syncer) readMessages(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock the read when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("stream closed", zap.Error(err))
			}
			return
		}

		var msg notification.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("dropping malformed stream message", zap.Error(err))
			continue
		}
		s.handleMessage(ctx, msg)
	}
}

// handleMessage refetches the entity the message points at. Messages for
// entities outside the watch set are dropped without invoking onUpdate.
func (s *Syncer) handleMessage(ctx context.Context, msg notification.Message) {
	switch msg.AggregateType {
	case order.AggregateTypeOrder:
		if _, ok := s.Order(msg.AggregateID); !ok {
			return
		}
		s.refreshOrder(ctx, msg.AggregateID)
	case returns.AggregateTypeReturnRequest:
		if _, ok := s.Return(msg.AggregateID); !ok {
			return
		}
		s.refreshReturn(ctx, msg.AggregateID)
	case support.AggregateTypeTicket:
		if _, ok := s.Ticket(msg.AggregateID); !ok {
			return
		}
		s.refreshTicket(ctx, msg.AggregateID)
	default:
		return
	}

	if s.onUpdate != nil {
		s.onUpdate(msg)
	}
}

func (s *Syncer) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

// refreshAll refetches every watched entity. Individual failures are
// logged and skipped; the next poll tick tries again.
func (s *Syncer) refreshAll(ctx context.Context) {
	for _, id := range s.watchedOrders() {
		s.refreshOrder(ctx, id)
	}
	for _, id := range s.watchedReturns() {
		s.refreshReturn(ctx, id)
	}
	for _, id := range s.watchedTickets() {
		s.refreshTicket(ctx, id)
	}
}

func (s *Syncer) refreshOrder(ctx context.Context, orderID uuid.UUID) {
	resp, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("order refresh failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return
	}
	s.mu.Lock()
	if _, ok := s.orders[orderID]; ok {
		s.orders[orderID] = resp
	}
	s.mu.Unlock()
}

func (s *Syncer) refreshReturn(ctx context.Context, returnID uuid.UUID) {
	resp, err := s.api.GetReturn(ctx, returnID)
	if err != nil {
		s.logger.Warn("return refresh failed",
			zap.String("return_id", returnID.String()),
			zap.Error(err),
		)
		return
	}
	s.mu.Lock()
	if _, ok := s.returns[returnID]; ok {
		s.returns[returnID] = resp
	}
	s.mu.Unlock()
}

func (s *Syncer) refreshTicket(ctx context.Context, ticketID uuid.UUID) {
	resp, err := s.api.GetTicket(ctx, ticketID)
	if err != nil {
		s.logger.Warn("ticket refresh failed",
			zap.String("ticket_id", ticketID.String()),
			zap.Error(err),
		)
		return
	}
	s.mu.Lock()
	if _, ok := s.tickets[ticketID]; ok {
		s.tickets[ticketID] = resp
	}
	s.mu.Unlock()
}

func (s *Syncer) watchedOrders() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	return ids
}

func (s *Syncer) watchedReturns() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.returns))
	for id := range s.returns {
		ids = append(ids, id)
	}
	return ids
}

func (s *Syncer) watchedTickets() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	return ids
}
