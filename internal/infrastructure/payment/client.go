package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundHoldRequest asks the payment collaborator to place a hold for a
// refund after an order was cancelled with a refund required
type RefundHoldRequest struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Reason      string          `json:"reason"`
	CancelledAt time.Time       `json:"cancelled_at"`
}

// Client talks to the external payment service
type Client interface {
	HoldRefund(ctx context.Context, req RefundHoldRequest) error
}

// Config holds payment service settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("payment: base URL is required")
	}
	return nil
}

// HTTPClient is the production client. Calls are fire-and-forget from the
// order lifecycle's point of view: a failed hold is logged and retried by
// the outbox, never surfaced to the cancelling actor.
type HTTPClient struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a new payment client
func NewHTTPClient(config *Config, logger *zap.Logger) (*HTTPClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// HoldRefund posts the refund hold to the collaborator
func (c *HTTPClient) HoldRefund(ctx context.Context, req RefundHoldRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("payment: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/refund-holds", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payment: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("payment: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment: unexpected status %d", resp.StatusCode)
	}

	c.logger.Info("refund hold placed",
		zap.String("order_id", req.OrderID.String()),
		zap.String("amount", req.Amount.String()),
	)
	return nil
}

var _ Client = (*HTTPClient)(nil)

// NoopClient is used when no payment service is configured
type NoopClient struct {
	logger *zap.Logger
}

// NewNoopClient creates a client that only logs
func NewNoopClient(logger *zap.Logger) *NoopClient {
	return &NoopClient{logger: logger}
}

// HoldRefund logs the request and succeeds
func (c *NoopClient) HoldRefund(ctx context.Context, req RefundHoldRequest) error {
	c.logger.Info("payment disabled, skipping refund hold",
		zap.String("order_id", req.OrderID.String()),
		zap.String("amount", req.Amount.String()),
	)
	return nil
}

var _ Client = (*NoopClient)(nil)
