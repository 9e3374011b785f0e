package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"paper-trading-go/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a RESTProvider configured to use it.
func setupTestServer(handler http.Handler) (*RESTProvider, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	p := &RESTProvider{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return p, server
}

func TestRESTProviderQuote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/quote", r.URL.Path)
			assert.Equal(t, "600036.SH", r.URL.Query().Get("symbol"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"symbol":"600036.SH","name":"China Merchants Bank","price":"35.80","change_pct":"0.56"}`))
		})

		p, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quote, err := p.Quote(context.Background(), "600036.SH")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "China Merchants Bank", quote.DisplayName)
		assert.True(t, decimal.RequireFromString("35.80").Equal(quote.Price))
		assert.Equal(t, "rest", quote.Source)
		assert.False(t, quote.Degraded)
	})

	t.Run("InvalidPrice", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"symbol":"600036.SH","name":"China Merchants Bank","price":"n/a"}`))
		})

		p, server := setupTestServer(handler)
		defer server.Close()

		_, err := p.Quote(context.Background(), "600036.SH")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid price")
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"symbol":"600036.SH","name":"China Merchants Bank","price":"0"}`))
		})

		p, server := setupTestServer(handler)
		defer server.Close()

		_, err := p.Quote(context.Background(), "600036.SH")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "non-positive price")
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "unknown symbol"}`))
		})

		p, server := setupTestServer(handler)
		defer server.Close()

		_, err := p.Quote(context.Background(), "BOGUS")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get quote")
	})
}

func TestRESTProviderHealthy(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		p, server := setupTestServer(handler)
		defer server.Close()

		assert.NoError(t, p.Healthy(context.Background()))
	})

	t.Run("Unhealthy", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		p, server := setupTestServer(handler)
		defer server.Close()

		assert.Error(t, p.Healthy(context.Background()))
	})
}

func TestNewRESTProvider(t *testing.T) {
	cfg := &config.MarketData{
		QuoteURL:       "http://localhost:9999",
		RateLimit:      10,
		RateLimitBurst: 5,
	}
	p := NewRESTProvider(cfg, zap.NewNop())
	assert.NotNil(t, p)
	assert.Equal(t, "rest", p.Name())
}
