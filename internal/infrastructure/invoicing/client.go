package invoicing

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

// InvoiceRequest is the payload sent to the invoicing collaborator when
// an order reaches DELIVERED
type InvoiceRequest struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	DeliveredAt time.Time       `json:"delivered_at"`
}

// Client issues invoices against the external invoicing service
type Client interface {
	IssueInvoice(ctx context.Context, req InvoiceRequest) error
}

// Config holds invoicing service settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("invoicing: base URL is required")
	}
	return nil
}

// HTTPClient is the production client. Delivery is fire-and-forget: the
// caller treats failures as log-and-continue, never as order failures.
type HTTPClient struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a new invoicing client
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

// IssueInvoice posts the invoice request to the collaborator
func (c *HTTPClient) IssueInvoice(ctx context.Context, req InvoiceRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("invoicing: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invoicing: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("invoicing: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("invoicing: unexpected status %d", resp.StatusCode)
	}

	c.logger.Info("invoice issued",
		zap.String("order_id", req.OrderID.String()),
		zap.String("order_number", req.OrderNumber),
	)
	return nil
}

var _ Client = (*HTTPClient)(nil)

// NoopClient is used when no invoicing service is configured
type NoopClient struct {
	logger *zap.Logger
}

// NewNoopClient creates a client that only logs
func NewNoopClient(logger *zap.Logger) *NoopClient {
	return &NoopClient{logger: logger}
}

// IssueInvoice logs the request and succeeds
func (c *NoopClient) IssueInvoice(ctx context.Context, req InvoiceRequest) error {
	c.logger.Info("invoicing disabled, skipping invoice",
		zap.String("order_id", req.OrderID.String()),
		zap.String("order_number", req.OrderNumber),
	)
	return nil
}

var _ Client = (*NoopClient)(nil)
