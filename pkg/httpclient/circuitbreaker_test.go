package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellnexa/cart-service/pkg/logger"
)

func noRetryClient() *Client {
	return New(Config{Timeout: 2 * time.Second})
}

func breakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 1.0,
		MinRequests:  3,
	}
}

func TestCircuitBreaker_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(noRetryClient(), breakerConfig("cb-success"), logger.New("test", "error"))

	resp, err := cb.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_ServerErrorCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(noRetryClient(), breakerConfig("cb-5xx"), logger.New("test", "error"))

	_, err := cb.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 500")
}

func TestCircuitBreaker_TripsAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := breakerConfig("cb-trips")
	cb := NewCircuitBreakerClient(noRetryClient(), cfg, logger.New("test", "error"))

	for i := 0; i < int(cfg.MinRequests); i++ {
		_, err := cb.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_OpenBreakerShedsLoad(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := breakerConfig("cb-sheds")
	cb := NewCircuitBreakerClient(noRetryClient(), cfg, logger.New("test", "error"))

	for i := 0; i < int(cfg.MinRequests); i++ {
		_, _ = cb.Get(context.Background(), srv.URL)
	}
	reached := calls.Load()

	// Requests against an open breaker never reach the server.
	for i := 0; i < 5; i++ {
		_, err := cb.Get(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, reached, calls.Load())
}

func TestCircuitBreaker_4xxDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := breakerConfig("cb-4xx")
	cb := NewCircuitBreakerClient(noRetryClient(), cfg, logger.New("test", "error"))

	for i := 0; i < 10; i++ {
		resp, err := cb.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
