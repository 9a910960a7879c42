// Package client is the synchronization adapter consumed by role views
// (customer, seller, admin consoles). It wraps the HTTP API with typed
// calls and keeps a local read model converged on server state through
// push invalidation plus periodic polling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	orderapp "github.com/storefront/backend/internal/application/order"
	returnsapp "github.com/storefront/backend/internal/application/returns"
	supportapp "github.com/storefront/backend/internal/application/support"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

const apiPrefix = "/api/v1"

// Client is a typed HTTP client for the storefront API. All calls carry
// the bearer token supplied at construction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given API base URL and bearer token
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope mirrors the API response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do executes a request and decodes the response envelope into out.
// API-level failures come back as *shared.DomainError so callers can
// branch on the error code.
func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		if env.Error != nil {
			return &shared.DomainError{Code: env.Error.Code, Message: env.Error.Message}
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

// GetOrder fetches the authoritative order state
func (c *Client) GetOrder(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error) {
	var out orderapp.OrderResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReturn fetches the authoritative return request state
func (c *Client) GetReturn(ctx context.Context, returnID uuid.UUID) (*returnsapp.ReturnResponse, error) {
	var out returnsapp.ReturnResponse
	if err := c.do(ctx, http.MethodGet, "/returns/"+returnID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTicket fetches the authoritative ticket state including its
// message thread
func (c *Client) GetTicket(ctx context.Context, ticketID uuid.UUID) (*supportapp.TicketResponse, error) {
	var out supportapp.TicketResponse
	if err := c.do(ctx, http.MethodGet, "/tickets/"+ticketID.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransitionOrder requests a status transition carrying the expected
// version. An Idempotency-Key header makes a retried request a no-op
// when the original already committed.
func (c *Client) TransitionOrder(ctx context.Context, orderID uuid.UUID, req orderapp.TransitionOrderRequest, idempotencyKey string) (*orderapp.OrderResponse, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	var out orderapp.OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders/"+orderID.String()+"/transition", headers, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvanceReturn requests a return workflow step with the expected version
func (c *Client) AdvanceReturn(ctx context.Context, returnID uuid.UUID, req returnsapp.AdvanceReturnRequest) (*returnsapp.ReturnResponse, error) {
	var out returnsapp.ReturnResponse
	if err := c.do(ctx, http.MethodPost, "/returns/"+returnID.String()+"/advance", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostTicketMessage appends a message to a ticket thread
func (c *Client) PostTicketMessage(ctx context.Context, ticketID uuid.UUID, req supportapp.PostMessageRequest) (*supportapp.MessageResponse, error) {
	var out supportapp.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/tickets/"+ticketID.String()+"/messages", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransitionOrderLatest reads the current order version, requests the
// transition against it, and on a version conflict refetches and retries
// exactly once. A second conflict is returned to the caller, who should
// re-read before deciding whether the transition still makes sense.
func (c *Client) TransitionOrderLatest(ctx context.Context, orderID uuid.UUID, actorRole shared.ActorRole, target order.Status, reason, idempotencyKey string) (*orderapp.OrderResponse, error) {
	current, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	req := orderapp.TransitionOrderRequest{
		ActorRole:       actorRole,
		TargetStatus:    target,
		ExpectedVersion: current.Version,
		Reason:          reason,
	}
	resp, err := c.TransitionOrder(ctx, orderID, req, idempotencyKey)
	if err == nil || !isConflict(err) {
		return resp, err
	}

	c.logger.Debug("version conflict, refetching and retrying once",
		zap.String("order_id", orderID.String()),
	)
	current, err = c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	req.ExpectedVersion = current.Version
	return c.TransitionOrder(ctx, orderID, req, idempotencyKey)
}

func isConflict(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == shared.ErrConcurrencyConflict.Code
}
