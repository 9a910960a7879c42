package invoicing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPClient_IssueInvoice(t *testing.T) {
	var received InvoiceRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invoices", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewHTTPClient(&Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, zap.NewNop())
	require.NoError(t, err)

	req := InvoiceRequest{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20260801-0001",
		CustomerID:  uuid.New(),
		TotalAmount: decimal.NewFromFloat(149.90),
		Currency:    "USD",
		DeliveredAt: time.Now(),
	}

	err = client.IssueInvoice(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, req.OrderID, received.OrderID)
	assert.Equal(t, req.OrderNumber, received.OrderNumber)
	assert.True(t, req.TotalAmount.Equal(received.TotalAmount))
}

func TestHTTPClient_IssueInvoice_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewHTTPClient(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	err = client.IssueInvoice(context.Background(), InvoiceRequest{OrderID: uuid.New()})
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestNewHTTPClient_MissingBaseURL(t *testing.T) {
	_, err := NewHTTPClient(&Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNoopClient_IssueInvoice(t *testing.T) {
	client := NewNoopClient(zap.NewNop())
	err := client.IssueInvoice(context.Background(), InvoiceRequest{OrderID: uuid.New()})
	assert.NoError(t, err)
}
