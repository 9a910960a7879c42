package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, data interface{}, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"success": success}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["error"] = map[string]string{"code": code, "message": message}
	}
	json.NewEncoder(w).Encode(body)
}

func TestClient_GetOrder(t *testing.T) {
	orderID := uuid.New()
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v1/orders/"+orderID.String(), r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, orderapp.OrderResponse{
			ID:      orderID,
			Status:  order.StatusShipped,
			Version: 4,
		}, "", "")
	}))
	defer server.Close()

	c, err := New(server.URL, "test-token")
	require.NoError(t, err)

	resp, err := c.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, resp.ID)
	assert.Equal(t, order.StatusShipped, resp.Status)
	assert.Equal(t, 4, resp.Version)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestClient_GetOrder_DomainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, nil, "NOT_FOUND", "order not found")
	}))
	defer server.Close()

	c, err := New(server.URL, "test-token")
	require.NoError(t, err)

	_, err = c.GetOrder(context.Background(), uuid.New())
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestClient_TransitionOrder_SendsIdempotencyKey(t *testing.T) {
	orderID := uuid.New()
	var gotKey string
	var gotReq orderapp.TransitionOrderRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		writeEnvelope(w, http.StatusOK, true, orderapp.OrderResponse{
			ID:      orderID,
			Status:  order.StatusConfirmed,
			Version: 2,
		}, "", "")
	}))
	defer server.Close()

	c, err := New(server.URL, "test-token")
	require.NoError(t, err)

	resp, err := c.TransitionOrder(context.Background(), orderID, orderapp.TransitionOrderRequest{
		ActorRole:       shared.RoleSeller,
		TargetStatus:    order.StatusConfirmed,
		ExpectedVersion: 1,
	}, "retry-key-1")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Version)
	assert.Equal(t, "retry-key-1", gotKey)
	assert.Equal(t, shared.RoleSeller, gotReq.ActorRole)
	assert.Equal(t, 1, gotReq.ExpectedVersion)
}

func TestClient_TransitionOrderLatest_RetriesConflictOnce(t *testing.T) {
	orderID := uuid.New()
	var fetches, attempts int32
	var lastExpected int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/orders/"+orderID.String(), func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&fetches, 1)
		// The stored version moved between the first read and the
		// first transition attempt
		version := 3
		if n > 1 {
			version = 4
		}
		writeEnvelope(w, http.StatusOK, true, orderapp.OrderResponse{
			ID:      orderID,
			Status:  order.StatusProcessing,
			Version: version,
		}, "", "")
	})
	mux.HandleFunc("POST /api/v1/orders/"+orderID.String()+"/transition", func(w http.ResponseWriter, r *http.Request) {
		var req orderapp.TransitionOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		atomic.StoreInt32(&lastExpected, int32(req.ExpectedVersion))

		if atomic.AddInt32(&attempts, 1) == 1 {
			writeEnvelope(w, http.StatusConflict, false, nil, "CONCURRENCY_CONFLICT", "version mismatch")
			return
		}
		writeEnvelope(w, http.StatusOK, true, orderapp.OrderResponse{
			ID:      orderID,
			Status:  order.StatusShipped,
			Version: req.ExpectedVersion + 1,
		}, "", "")
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := New(server.URL, "test-token")
	require.NoError(t, err)

	resp, err := c.TransitionOrderLatest(context.Background(), orderID, shared.RoleSeller, order.StatusShipped, "", "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, resp.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, int32(4), atomic.LoadInt32(&lastExpected))
}

func TestClient_TransitionOrderLatest_SecondConflictSurfaces(t *testing.T) {
	orderID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/orders/"+orderID.String(), func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, orderapp.OrderResponse{
			ID:      orderID,
			Status:  order.StatusProcessing,
			Version: 3,
		}, "", "")
	})
	mux.HandleFunc("POST /api/v1/orders/"+orderID.String()+"/transition", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, false, nil, "CONCURRENCY_CONFLICT", "version mismatch")
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c, err := New(server.URL, "test-token")
	require.NoError(t, err)

	_, err = c.TransitionOrderLatest(context.Background(), orderID, shared.RoleAdmin, order.StatusShipped, "", "")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
}

func TestNew_EmptyBaseURL(t *testing.T) {
	_, err := New("", "token")
	assert.Error(t, err)
}
