package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"paper-trading-go/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RESTProvider fetches quotes from an HTTP market-data endpoint.
// It implements the Provider interface.
type RESTProvider struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RESTProvider implements the interface
var _ Provider = (*RESTProvider)(nil)

// NewRESTProvider creates a new REST market-data provider.
func NewRESTProvider(cfg *config.MarketData, logger *zap.Logger) *RESTProvider {
	client := resty.New().SetBaseURL(cfg.QuoteURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RESTProvider{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// Name returns the unique name of the provider.
func (p *RESTProvider) Name() string { return "rest" }

// quoteResponse is the wire format of the quote endpoint.
type quoteResponse struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ChangePct string `json:"change_pct"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (p *RESTProvider) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		p.logger.Debug("Executing request", zap.String("method", method), zap.String("url", p.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.RawResponse != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		p.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// Quote fetches the current price for a symbol from the quote endpoint.
func (p *RESTProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	req := p.client.R().
		SetQueryParam("symbol", symbol).
		SetResult(&quoteResponse{}).
		SetHeader("Content-Type", "application/json")

	resp, err := p.doRequest(ctx, "GET", "/api/quote", req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}

	result := resp.Result().(*quoteResponse)

	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return Quote{}, fmt.Errorf("invalid price %q for %s: %w", result.Price, symbol, err)
	}
	if price.Sign() <= 0 {
		return Quote{}, fmt.Errorf("non-positive price %q for %s", result.Price, symbol)
	}

	changePct := decimal.Zero
	if result.ChangePct != "" {
		if v, err := decimal.NewFromString(result.ChangePct); err == nil {
			changePct = v
		}
	}

	return Quote{
		Symbol:      symbol,
		DisplayName: result.Name,
		Price:       price,
		ChangePct:   changePct,
		Source:      p.Name(),
	}, nil
}

// Healthy checks connectivity against the provider's health endpoint.
func (p *RESTProvider) Healthy(ctx context.Context) error {
	req := p.client.R()

	resp, err := p.doRequest(ctx, "GET", "/api/health", req)
	if err != nil {
		return fmt.Errorf("provider %s unhealthy: %w", p.Name(), err)
	}
	if resp.IsError() {
		return fmt.Errorf("provider %s unhealthy: status %s", p.Name(), resp.Status())
	}

	return nil
}
